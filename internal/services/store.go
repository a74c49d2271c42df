package services

import (
	"sync"

	"github.com/desertthunder/flickx/internal/models"
	"github.com/desertthunder/flickx/internal/shared"
)

// MemoryStore is a [SessionStore] that lives for the process only.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
	state   map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: make(map[string]string)}
}

func (m *MemoryStore) LoadSession() (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, shared.ErrSessionNotFound
	}
	s := *m.session
	return &s, nil
}

func (m *MemoryStore) SaveSession(s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.session = &copied
	return nil
}

func (m *MemoryStore) ClearSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *MemoryStore) GetState(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state[key], nil
}

func (m *MemoryStore) SetState(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[key] = value
	return nil
}

func (m *MemoryStore) DeleteState(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	return nil
}
