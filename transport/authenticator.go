// Package transport attaches the current bearer credential to outgoing
// requests and reacts to authorization-denied responses.
package transport

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// TokenProvider supplies the current bearer token, empty when unauthenticated.
type TokenProvider interface {
	Token() string
}

// LogoutFunc destroys the current session.
type LogoutFunc func(ctx context.Context) error

// Authenticator is an http.RoundTripper that adds the Authorization header to
// every request carrying a session. On a 401 response it forces logout and
// propagates the original response unchanged: no silent resend, no
// refresh-then-retry cycle. Refresh stays caller-initiated.
type Authenticator struct {
	base     http.RoundTripper
	sessions TokenProvider
	onDenied LogoutFunc
}

// AuthenticatorOption configures an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithBase sets the underlying transport. Defaults to http.DefaultTransport.
func WithBase(base http.RoundTripper) AuthenticatorOption {
	return func(a *Authenticator) {
		a.base = base
	}
}

// WithLogoutOnUnauthorized registers the logout trigger fired on 401 responses.
func WithLogoutOnUnauthorized(fn LogoutFunc) AuthenticatorOption {
	return func(a *Authenticator) {
		a.onDenied = fn
	}
}

// NewAuthenticator wraps outgoing requests with the session's bearer token.
func NewAuthenticator(sessions TokenProvider, options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		base:     http.DefaultTransport,
		sessions: sessions,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// RoundTrip implements http.RoundTripper.
func (a *Authenticator) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := a.sessions.Token(); token != "" {
		// RoundTrippers must not mutate the caller's request.
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && a.onDenied != nil {
		log.Warn().Str("url", req.URL.String()).Msg("authorization denied, forcing logout")
		if logoutErr := a.onDenied(req.Context()); logoutErr != nil {
			log.Err(logoutErr).Msg("forced logout failed")
		}
	}
	return resp, nil
}
