package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is a hand-written, in-memory TokenCache used in unit tests,
// mirroring the mock-repository style used elsewhere.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// Optional error overrides, set in tests to simulate an unreachable cache.
	SetErr    error
	GetErr    error
	DeleteErr error
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Set(_ context.Context, username, token string, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[Key(username)] = memoryEntry{token: token, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, username string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[Key(username)]
	if !ok || time.Now().After(e.expiresAt) {
		return "", ErrNotFound
	}
	return e.token, nil
}

func (m *Memory) Delete(_ context.Context, username string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, Key(username))
	return nil
}

// Len reports the number of live entries; used by tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
