package session

import (
	"sync"
	"time"

	"github.com/cleanstack/authcore/token"
)

// Store holds the current Session in memory, mirrored to Storage. Mutations
// replace the session atomically and notify subscribers synchronously in
// registration order. The store serializes its own state internally; hosts
// running multiple flows concurrently must still avoid racing Refresh calls
// against each other (the loser of a rotation race gets an invalid-token
// failure and should retry once).
type Store struct {
	mu          sync.Mutex
	current     *Session
	storage     Storage
	subscribers []func(*Session)
	nowFunc     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreNowFunc overrides the clock (primarily for testing)
func WithStoreNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// NewStore creates a store backed by the given storage and restores any
// persisted session. A persisted session that has already expired is cleared
// immediately and the store starts unauthenticated.
func NewStore(storage Storage, options ...StoreOption) (*Store, error) {
	if storage == nil {
		storage = NewMemoryStorage()
	}

	s := &Store{
		storage: storage,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	restored, err := storage.Load()
	if err != nil {
		return nil, err
	}
	if restored != nil {
		if s.expired(restored) {
			_ = storage.Clear()
		} else {
			s.current = restored.clone()
		}
	}
	return s, nil
}

// Subscribe registers a callback invoked synchronously after every mutation,
// with the new session or nil on clear. Callbacks run in registration order.
func (s *Store) Subscribe(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Set replaces the current session. The durable mirror is written first; the
// in-memory state only changes when the write succeeds.
func (s *Store) Set(sess Session) error {
	s.mu.Lock()
	copied := sess.clone()
	if err := s.storage.Save(copied); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = copied
	subscribers, snapshot := s.notifySnapshot()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return nil
}

// Clear destroys the current session and its durable mirror.
func (s *Store) Clear() error {
	s.mu.Lock()
	if err := s.storage.Clear(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = nil
	subscribers, snapshot := s.notifySnapshot()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return nil
}

// Current returns a copy of the session, or false when none exists.
func (s *Store) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	return s.current.clone(), true
}

// Token returns the current access token, or empty when unauthenticated.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// IsAuthenticated reports whether a session exists and its access token's
// embedded expiry is still in the future. The check is purely local: no
// network call, trading a window of false-positive authenticated state for
// zero latency. An expired session self-clears.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	if !s.expired(s.current) {
		s.mu.Unlock()
		return true
	}

	// Silently revert to unauthenticated.
	_ = s.storage.Clear()
	s.current = nil
	subscribers, snapshot := s.notifySnapshot()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return false
}

func (s *Store) expired(sess *Session) bool {
	expiry, err := token.ExtractExpiry(sess.AccessToken)
	if err != nil {
		return true
	}
	return !s.nowFunc().Before(expiry)
}

// notifySnapshot must be called with the lock held.
func (s *Store) notifySnapshot() ([]func(*Session), *Session) {
	subscribers := append(([]func(*Session))(nil), s.subscribers...)
	return subscribers, s.current.clone()
}
