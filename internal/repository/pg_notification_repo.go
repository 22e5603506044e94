package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

// NewPgNotificationRepository returns a NotificationRepository backed by PostgreSQL.
func NewPgNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, title, message, created_at)
		VALUES ($1,$2,$3,$4)`,
		n.ID, n.Title, n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *pgNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, message, created_at
		FROM notifications WHERE id = $1`, id)

	var n domain.Notification
	err := row.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return &n, nil
}

func (r *pgNotificationRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT n.id, n.title, n.message, n.created_at
		FROM notifications n
		JOIN notification_deliveries d ON d.notification_id = n.id
		WHERE d.user_id = $1
		ORDER BY n.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) CreateDelivery(ctx context.Context, notificationID, userID string, deliveredAt time.Time) (bool, error) {
	// ON CONFLICT DO NOTHING makes redelivery an absorbed no-op: the
	// composite primary key guarantees at most one row per pair.
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO notification_deliveries (notification_id, user_id, delivered_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (notification_id, user_id) DO NOTHING`,
		notificationID, userID, deliveredAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert delivery relation: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgNotificationRepository) CountDeliveries(ctx context.Context, notificationID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notification_deliveries WHERE notification_id = $1`,
		notificationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return count, nil
}
