package users

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepo is a thread-safe in-memory implementation of Repo.
type InMemoryRepo struct {
	mu      sync.RWMutex
	byEmail map[string]*User
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		byEmail: make(map[string]*User),
	}
}

func (r *InMemoryRepo) Upsert(user *User) error {
	if user == nil || user.Email == "" {
		return ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.byEmail[strings.ToLower(user.Email)] = &copied
	return nil
}

func (r *InMemoryRepo) GetByEmail(email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *InMemoryRepo) GetByID(id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.byEmail {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// SeedDemoUsers installs the demo credential records so a fresh instance is
// usable without a registration step. Both accounts share password123.
func SeedDemoUsers(repo Repo) error {
	hash, err := HashPassword("password123")
	if err != nil {
		return err
	}

	demo := []*User{
		{
			ID:           uuid.New().String(),
			Email:        "user@example.com",
			Name:         "Regular User",
			PasswordHash: hash,
			Roles:        []string{RoleUser},
			DateJoined:   time.Now(),
		},
		{
			ID:           uuid.New().String(),
			Email:        "admin@example.com",
			Name:         "Admin User",
			PasswordHash: hash,
			Roles:        []string{RoleAdmin, RoleUser},
			DateJoined:   time.Now(),
		},
	}

	for _, user := range demo {
		if err := repo.Upsert(user); err != nil {
			return err
		}
	}
	return nil
}
