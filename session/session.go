// Package session holds the client-side credential state for the life of a
// client process and mirrors it to durable storage so a reload can restore it.
package session

import (
	"time"

	"github.com/cleanstack/authcore/identity"
)

// Session is the client-held credential tuple. It is replaced as a whole on
// every mutation; partial updates never occur.
type Session struct {
	AccessToken  string            `json:"access_token"`
	RefreshToken string            `json:"refresh_token,omitempty"`
	Identity     identity.Identity `json:"identity"`
	ObtainedAt   time.Time         `json:"obtained_at"`
}

func (s *Session) clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	if s.Identity.Roles != nil {
		copied.Identity.Roles = append([]string(nil), s.Identity.Roles...)
	}
	return &copied
}
