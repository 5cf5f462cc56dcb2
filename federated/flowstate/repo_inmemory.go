package flowstate

import (
	"errors"
	"sync"
	"time"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface.
// Entries older than the configured TTL are treated as absent.
type InMemoryRepo struct {
	mu     sync.RWMutex
	states map[string]*FlowState
	ttl    time.Duration
}

// NewInMemoryRepo creates a new in-memory flow state repository. A zero ttl
// disables expiry.
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	return &InMemoryRepo{
		states: make(map[string]*FlowState),
		ttl:    ttl,
	}
}

// Upsert stores or updates a flow state
func (r *InMemoryRepo) Upsert(state string, flowState *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flowState == nil {
		return errors.New("flowState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to prevent external modifications
	r.states[state] = &FlowState{
		Nonce:     flowState.Nonce,
		ReturnURL: flowState.ReturnURL,
		CreatedAt: flowState.CreatedAt,
	}

	return nil
}

// Get retrieves a flow state by state parameter
func (r *InMemoryRepo) Get(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	flowState, exists := r.states[state]
	if !exists {
		return nil, errors.New("state not found")
	}
	if r.ttl > 0 && time.Since(flowState.CreatedAt) > r.ttl {
		return nil, errors.New("state expired")
	}

	// Return a copy to prevent external modifications
	return &FlowState{
		Nonce:     flowState.Nonce,
		ReturnURL: flowState.ReturnURL,
		CreatedAt: flowState.CreatedAt,
	}, nil
}

// Delete removes a flow state
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.states, state)
	return nil
}
