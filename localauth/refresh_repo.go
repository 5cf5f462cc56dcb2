package localauth

import (
	"errors"
	"sync"
	"time"
)

// StoredRefreshToken is the server-side record behind an issued refresh token.
// The client only ever sees the opaque Token string.
type StoredRefreshToken struct {
	Token    string
	UserID   string
	IssuedAt time.Time
}

// ErrRefreshTokenNotFound is the repo-level miss; the service maps it to
// ErrInvalidRefreshToken before it crosses the package boundary.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// RefreshTokenRepo manages server-side refresh token state. Storing tokens
// here is what makes rotation real revocation rather than a shape check.
type RefreshTokenRepo interface {
	Upsert(refreshToken *StoredRefreshToken) error
	Get(token string) (*StoredRefreshToken, error)
	Delete(token string) error
	DeleteByUserID(userID string) error
}

// InMemoryRefreshTokenRepo is a thread-safe in-memory RefreshTokenRepo.
type InMemoryRefreshTokenRepo struct {
	mu     sync.RWMutex
	tokens map[string]*StoredRefreshToken
}

func NewInMemoryRefreshTokenRepo() *InMemoryRefreshTokenRepo {
	return &InMemoryRefreshTokenRepo{
		tokens: make(map[string]*StoredRefreshToken),
	}
}

func (r *InMemoryRefreshTokenRepo) Upsert(refreshToken *StoredRefreshToken) error {
	if refreshToken == nil || refreshToken.Token == "" {
		return errors.New("refresh token cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *refreshToken
	r.tokens[refreshToken.Token] = &copied
	return nil
}

func (r *InMemoryRefreshTokenRepo) Get(token string) (*StoredRefreshToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *InMemoryRefreshTokenRepo) Delete(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tokens, token)
	return nil
}

func (r *InMemoryRefreshTokenRepo) DeleteByUserID(userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for token, stored := range r.tokens {
		if stored.UserID == userID {
			delete(r.tokens, token)
		}
	}
	return nil
}
