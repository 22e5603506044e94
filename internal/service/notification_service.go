package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/repository"
)

// MetricHooks carries the metric callback functions injected by main.
type MetricHooks struct {
	OnPublished     func(recipients int)
	OnPublishFailed func()
}

// NotificationService is the publisher side of the fan-out pipeline: it
// persists the notification, snapshots the eligible recipient set, and
// emits one queue message per recipient. The delivery relation is written
// by the worker at consume time, not here.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	publisher     broker.Publisher
	queue         string
	logger        *zap.Logger
	hooks         MetricHooks
}

func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	publisher broker.Publisher,
	queue string,
	logger *zap.Logger,
	hooks MetricHooks,
) *NotificationService {
	if hooks.OnPublished == nil {
		hooks.OnPublished = func(int) {}
	}
	if hooks.OnPublishFailed == nil {
		hooks.OnPublishFailed = func() {}
	}
	return &NotificationService{
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		queue:         queue,
		logger:        logger,
		hooks:         hooks,
	}
}

// Publish creates the notification and fans it out.
//
// Ordering guarantee: the row is persisted before any queue I/O, so no
// queue message ever references a missing record. The recipient set is the
// snapshot of eligible users at this moment; later preference toggles do
// not affect this send. An empty set is a success with zero queue I/O.
//
// A broker failure after the row is written is surfaced to the caller as
// ErrBrokerUnavailable while the row stays persisted: best-effort
// semantics, no compensating delete.
func (s *NotificationService) Publish(ctx context.Context, req domain.PublishRequest) (*domain.PublishResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	n := &domain.Notification{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Message:   req.Message,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	recipients, err := s.users.ListEligible(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot eligible recipients: %w", err)
	}

	if len(recipients) == 0 {
		s.logger.Info("notification has no eligible recipients",
			zap.String("notification_id", n.ID))
		s.hooks.OnPublished(0)
		return &domain.PublishResult{NotificationID: n.ID, RecipientCount: 0}, nil
	}

	bodies := make([][]byte, len(recipients))
	for i, u := range recipients {
		body, err := json.Marshal(domain.TargetMessage{
			UserID:         u.ID,
			Username:       u.Username,
			Email:          u.Email,
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
		})
		if err != nil {
			return nil, fmt.Errorf("encode target message: %w", err)
		}
		bodies[i] = body
	}

	if err := s.publisher.Publish(ctx, s.queue, bodies); err != nil {
		s.logger.Error("fan-out publish failed, notification row persists",
			zap.String("notification_id", n.ID),
			zap.Int("recipients", len(recipients)),
			zap.Error(err),
		)
		s.hooks.OnPublishFailed()
		return nil, fmt.Errorf("%w: %v", domain.ErrBrokerUnavailable, err)
	}

	s.logger.Info("notification fanned out",
		zap.String("notification_id", n.ID),
		zap.Int("recipients", len(recipients)),
	)
	s.hooks.OnPublished(len(recipients))
	return &domain.PublishResult{NotificationID: n.ID, RecipientCount: len(recipients)}, nil
}

// ListForUser returns the notifications that were delivered to the user.
func (s *NotificationService) ListForUser(ctx context.Context, username string) ([]*domain.Notification, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.notifications.ListForUser(ctx, u.ID)
}

// ToggleNotifications flips the user's preference and returns the new value.
// The flip only affects sends published after it; an in-flight send keeps
// its snapshot.
func (s *NotificationService) ToggleNotifications(ctx context.Context, username string) (bool, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return s.users.ToggleNotifications(ctx, u.ID)
}
