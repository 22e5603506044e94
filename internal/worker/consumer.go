package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/sink"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the consumer metrics-agnostic.
type MetricHooks struct {
	OnDelivered func(latency time.Duration)
	OnDropped   func(reason string)
	OnRequeued  func()
}

// Consumer processes fan-out messages: resolve the notification, run the
// delivery side effect, and record the delivery relation idempotently.
//
// Ack policy, made explicit per failure class:
//
//	success                      → ack
//	malformed payload            → ack after logging (never redeliverable)
//	unknown notification or user → ack after logging (permanently unresolvable)
//	sink or storage failure      → nack with requeue (transient)
type Consumer struct {
	id            int
	notifications repository.NotificationRepository
	users         repository.UserRepository
	sink          sink.Sink
	limiter       *rate.Limiter
	logger        *zap.Logger
	hooks         MetricHooks
}

func NewConsumer(
	id int,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	deliverySink sink.Sink,
	limiter *rate.Limiter,
	logger *zap.Logger,
	hooks MetricHooks,
) *Consumer {
	if hooks.OnDelivered == nil {
		hooks.OnDelivered = func(time.Duration) {}
	}
	if hooks.OnDropped == nil {
		hooks.OnDropped = func(string) {}
	}
	if hooks.OnRequeued == nil {
		hooks.OnRequeued = func() {}
	}
	return &Consumer{
		id:            id,
		notifications: notifications,
		users:         users,
		sink:          deliverySink,
		limiter:       limiter,
		logger:        logger,
		hooks:         hooks,
	}
}

// Run blocks until ctx is cancelled or the delivery stream closes,
// processing one message at a time. A per-message failure never stops the
// consumer.
func (c *Consumer) Run(ctx context.Context, deliveries <-chan broker.Delivery) {
	c.logger.Info("consumer started", zap.Int("id", c.id))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping", zap.Int("id", c.id))
			return
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Info("delivery stream closed, consumer stopping", zap.Int("id", c.id))
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d broker.Delivery) {
	start := time.Now()

	requeue, err := c.process(ctx, d.Body)
	if err == nil {
		if ackErr := d.Ack(); ackErr != nil {
			c.logger.Error("failed to ack message", zap.Error(ackErr))
			return
		}
		c.hooks.OnDelivered(time.Since(start))
		return
	}

	if requeue {
		c.logger.Warn("transient failure, requeueing message", zap.Error(err))
		if nackErr := d.Requeue(); nackErr != nil {
			c.logger.Error("failed to requeue message", zap.Error(nackErr))
		}
		c.hooks.OnRequeued()
		return
	}

	// Permanent failure: acknowledge so the broker never redelivers it.
	c.logger.Warn("dropping message", zap.Error(err))
	if ackErr := d.Ack(); ackErr != nil {
		c.logger.Error("failed to ack dropped message", zap.Error(ackErr))
	}
	c.hooks.OnDropped(dropReason(err))
}

// process runs the per-message pipeline and classifies failures:
// requeue=false means the message must not be redelivered.
func (c *Consumer) process(ctx context.Context, body []byte) (requeue bool, err error) {
	var msg domain.TargetMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return false, errMalformed(err)
	}
	if msg.NotificationID == "" || msg.UserID == "" {
		return false, errMalformed(errors.New("missing notification_id or user_id"))
	}

	log := c.logger.With(
		zap.String("notification_id", msg.NotificationID),
		zap.String("user_id", msg.UserID),
	)

	if _, err := c.notifications.GetByID(ctx, msg.NotificationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, errors.New("unknown notification referenced by message")
		}
		return true, err
	}
	if _, err := c.users.GetByID(ctx, msg.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, errors.New("unknown user referenced by message")
		}
		return true, err
	}

	// Throttle the outbound side effect; a cancelled wait means shutdown,
	// so the message goes back to the queue untouched.
	if err := c.limiter.Wait(ctx); err != nil {
		return true, err
	}

	if err := c.sink.Deliver(ctx, &msg); err != nil {
		return true, err
	}

	inserted, err := c.notifications.CreateDelivery(ctx, msg.NotificationID, msg.UserID, time.Now().UTC())
	if err != nil {
		return true, err
	}
	if !inserted {
		log.Debug("duplicate delivery absorbed")
	}
	return false, nil
}

type malformedError struct{ cause error }

func (e malformedError) Error() string { return "malformed payload: " + e.cause.Error() }
func (e malformedError) Unwrap() error { return e.cause }

func errMalformed(cause error) error { return malformedError{cause: cause} }

func dropReason(err error) string {
	var m malformedError
	if errors.As(err, &m) {
		return "malformed"
	}
	return "not_found"
}
