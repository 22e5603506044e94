package repository

import (
	"context"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// UserRepository defines all persistence operations for users.
// The pgx implementation is in pg_user_repo.go.
// Tests use a hand-written mock (mock_user_repo.go).
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// ListEligible returns the snapshot of users with the notification
	// preference enabled at query time. Later toggles never change an
	// already-computed recipient set.
	ListEligible(ctx context.Context) ([]*domain.User, error)

	// ToggleNotifications flips the preference and returns the new value.
	ToggleNotifications(ctx context.Context, id string) (bool, error)
}
