package repository

import (
	"context"
	"sync"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// MockUserRepository is a hand-written, in-memory implementation of
// UserRepository used in unit tests. No mock-generation library needed.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User // keyed by ID

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr       error
	GetErr          error
	ListEligibleErr error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(_ context.Context, u *domain.User) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepository) ListEligible(_ context.Context) ([]*domain.User, error) {
	if m.ListEligibleErr != nil {
		return nil, m.ListEligibleErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var eligible []*domain.User
	for _, u := range m.users {
		if u.ReceiveNotifications {
			cp := *u
			eligible = append(eligible, &cp)
		}
	}
	return eligible, nil
}

func (m *MockUserRepository) ToggleNotifications(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	u.ReceiveNotifications = !u.ReceiveNotifications
	return u.ReceiveNotifications, nil
}
