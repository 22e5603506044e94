package repository

import (
	"context"
	"time"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// NotificationRepository defines all persistence operations for
// notifications and the notification × user delivery relation.
// The pgx implementation is in pg_notification_repo.go.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)

	// ListForUser returns every notification that has a delivery relation
	// row for the given user, newest first.
	ListForUser(ctx context.Context, userID string) ([]*domain.Notification, error)

	// CreateDelivery inserts the delivery relation row. The insert is
	// duplicate-safe: it reports inserted=false when the (notification,
	// user) pair already exists, which is not an error.
	CreateDelivery(ctx context.Context, notificationID, userID string, deliveredAt time.Time) (inserted bool, err error)

	// CountDeliveries returns the number of delivery relation rows
	// recorded for a notification.
	CountDeliveries(ctx context.Context, notificationID string) (int, error)
}
