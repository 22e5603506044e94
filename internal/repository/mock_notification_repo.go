package repository

import (
	"context"
	"sync"
	"time"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// MockNotificationRepository is a hand-written, in-memory implementation of
// NotificationRepository used in unit tests.
type MockNotificationRepository struct {
	mu            sync.RWMutex
	notifications map[string]*domain.Notification
	deliveries    map[string]map[string]time.Time // notificationID -> userID -> deliveredAt

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr         error
	GetByIDErr        error
	CreateDeliveryErr error
}

func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{
		notifications: make(map[string]*domain.Notification),
		deliveries:    make(map[string]map[string]time.Time),
	}
}

func (m *MockNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.notifications[n.ID] = &cp
	return nil
}

func (m *MockNotificationRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	if m.GetByIDErr != nil {
		return nil, m.GetByIDErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *MockNotificationRepository) ListForUser(_ context.Context, userID string) ([]*domain.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Notification
	for id, users := range m.deliveries {
		if _, ok := users[userID]; ok {
			if n, found := m.notifications[id]; found {
				cp := *n
				result = append(result, &cp)
			}
		}
	}
	return result, nil
}

func (m *MockNotificationRepository) CreateDelivery(_ context.Context, notificationID, userID string, deliveredAt time.Time) (bool, error) {
	if m.CreateDeliveryErr != nil {
		return false, m.CreateDeliveryErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	users, ok := m.deliveries[notificationID]
	if !ok {
		users = make(map[string]time.Time)
		m.deliveries[notificationID] = users
	}
	if _, exists := users[userID]; exists {
		return false, nil
	}
	users[userID] = deliveredAt
	return true, nil
}

func (m *MockNotificationRepository) CountDeliveries(_ context.Context, notificationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.deliveries[notificationID]), nil
}

// Created reports the number of stored notification rows; used by tests.
func (m *MockNotificationRepository) Created() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.notifications)
}
