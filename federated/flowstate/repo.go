// Package flowstate holds the short-lived state and nonce values bound to an
// in-flight authorization redirect.
package flowstate

import "time"

type FlowState struct {
	Nonce     string
	ReturnURL string
	CreatedAt time.Time
}

type Repo interface {
	Upsert(state string, flowState *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
}
