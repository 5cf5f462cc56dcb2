package session

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Storage is the durable mirror behind the in-memory store.
type Storage interface {
	Load() (*Session, error)
	Save(session *Session) error
	Clear() error
}

// FileStorage persists the session as JSON at a fixed path.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (*Session, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		// A corrupt mirror is treated as no session rather than an error.
		return nil, nil
	}
	return &session, nil
}

func (f *FileStorage) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStorage is a Storage for tests and hosts without a durable medium.
type MemoryStorage struct {
	mu      sync.Mutex
	session *Session
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.clone(), nil
}

func (m *MemoryStorage) Save(session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session.clone()
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
