package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/domain"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/worker"
)

// recordingSink counts Deliver calls and can simulate sink failure.
type recordingSink struct {
	mu         sync.Mutex
	delivered  []domain.TargetMessage
	DeliverErr error
}

func (s *recordingSink) Deliver(_ context.Context, msg *domain.TargetMessage) error {
	if s.DeliverErr != nil {
		return s.DeliverErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, *msg)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

type fixture struct {
	notifications *repository.MockNotificationRepository
	users         *repository.MockUserRepository
	sink          *recordingSink
	consumer      *worker.Consumer
}

func newFixture() *fixture {
	notifications := repository.NewMockNotificationRepository()
	users := repository.NewMockUserRepository()
	s := &recordingSink{}
	c := worker.NewConsumer(
		0, notifications, users, s,
		rate.NewLimiter(rate.Inf, 0),
		zap.NewNop(), worker.MetricHooks{},
	)
	return &fixture{notifications: notifications, users: users, sink: s, consumer: c}
}

func (f *fixture) seed(t *testing.T) (*domain.Notification, *domain.User) {
	t.Helper()
	ctx := context.Background()

	n := &domain.Notification{
		ID:        uuid.New().String(),
		Title:     "Maintenance",
		Message:   "System down 10pm",
		CreatedAt: time.Now().UTC(),
	}
	if err := f.notifications.Create(ctx, n); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	u := &domain.User{
		ID:                   uuid.New().String(),
		Username:             "alice",
		Email:                "alice@example.com",
		PasswordHash:         "x",
		ReceiveNotifications: true,
	}
	if err := f.users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return n, u
}

func targetBody(t *testing.T, n *domain.Notification, u *domain.User) []byte {
	t.Helper()
	body, err := json.Marshal(domain.TargetMessage{
		UserID:         u.ID,
		Username:       u.Username,
		Email:          u.Email,
		NotificationID: n.ID,
		Title:          n.Title,
		Message:        n.Message,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

// dispatch feeds the bodies through Run and records ack/requeue decisions.
func dispatch(t *testing.T, c *worker.Consumer, bodies ...[]byte) (acked, requeued int) {
	t.Helper()

	var mu sync.Mutex
	deliveries := make(chan broker.Delivery, len(bodies))
	for _, body := range bodies {
		deliveries <- broker.Delivery{
			Body: body,
			Ack: func() error {
				mu.Lock()
				defer mu.Unlock()
				acked++
				return nil
			},
			Requeue: func() error {
				mu.Lock()
				defer mu.Unlock()
				requeued++
				return nil
			},
		}
	}
	close(deliveries)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(context.Background(), deliveries)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the stream")
	}

	mu.Lock()
	defer mu.Unlock()
	return acked, requeued
}

func TestConsumer_RecordsDelivery(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)

	acked, requeued := dispatch(t, f.consumer, targetBody(t, n, u))
	if acked != 1 || requeued != 0 {
		t.Fatalf("expected 1 ack / 0 requeue, got %d / %d", acked, requeued)
	}
	if f.sink.count() != 1 {
		t.Fatalf("expected 1 sink delivery, got %d", f.sink.count())
	}

	count, err := f.notifications.CountDeliveries(context.Background(), n.ID)
	if err != nil {
		t.Fatalf("count deliveries: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 delivery relation row, got %d", count)
	}
}

func TestConsumer_RedeliveryIsAbsorbed(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)
	body := targetBody(t, n, u)

	// Each message delivered twice: relation rows must not duplicate.
	acked, requeued := dispatch(t, f.consumer, body, body)
	if acked != 2 || requeued != 0 {
		t.Fatalf("expected 2 acks / 0 requeue, got %d / %d", acked, requeued)
	}

	count, _ := f.notifications.CountDeliveries(context.Background(), n.ID)
	if count != 1 {
		t.Fatalf("expected exactly 1 delivery relation row after redelivery, got %d", count)
	}
}

func TestConsumer_FanOutWithSimulatedRedelivery(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	n := &domain.Notification{ID: uuid.New().String(), Title: "t", Message: "m", CreatedAt: time.Now().UTC()}
	if err := f.notifications.Create(ctx, n); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	// N eligible recipients, every message delivered twice.
	const recipients = 3
	var bodies [][]byte
	for i := 0; i < recipients; i++ {
		u := &domain.User{
			ID:                   uuid.New().String(),
			Username:             "user" + string(rune('a'+i)),
			Email:                "user" + string(rune('a'+i)) + "@example.com",
			ReceiveNotifications: true,
		}
		if err := f.users.Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		body := targetBody(t, n, u)
		bodies = append(bodies, body, body)
	}

	acked, requeued := dispatch(t, f.consumer, bodies...)
	if acked != recipients*2 || requeued != 0 {
		t.Fatalf("expected %d acks / 0 requeue, got %d / %d", recipients*2, acked, requeued)
	}

	count, _ := f.notifications.CountDeliveries(ctx, n.ID)
	if count != recipients {
		t.Fatalf("expected %d delivery relation rows, got %d", recipients, count)
	}
}

func TestConsumer_MalformedPayloadIsDropped(t *testing.T) {
	f := newFixture()

	acked, requeued := dispatch(t, f.consumer, []byte("{not json"))
	if acked != 1 || requeued != 0 {
		t.Fatalf("malformed payload must be acked (dropped), got ack=%d requeue=%d", acked, requeued)
	}
	if f.sink.count() != 0 {
		t.Fatal("malformed payload must never reach the sink")
	}
}

func TestConsumer_MissingFieldsAreDropped(t *testing.T) {
	f := newFixture()

	body, _ := json.Marshal(map[string]string{"title": "no ids"})
	acked, requeued := dispatch(t, f.consumer, body)
	if acked != 1 || requeued != 0 {
		t.Fatalf("payload without ids must be acked (dropped), got ack=%d requeue=%d", acked, requeued)
	}
}

func TestConsumer_UnknownNotificationIsDropped(t *testing.T) {
	f := newFixture()
	_, u := f.seed(t)

	ghost := &domain.Notification{ID: uuid.New().String(), Title: "t", Message: "m"}
	acked, requeued := dispatch(t, f.consumer, targetBody(t, ghost, u))
	if acked != 1 || requeued != 0 {
		t.Fatalf("unknown notification must be acked (dropped), got ack=%d requeue=%d", acked, requeued)
	}
	if f.sink.count() != 0 {
		t.Fatal("unresolvable message must never reach the sink")
	}
}

func TestConsumer_UnknownUserIsDropped(t *testing.T) {
	f := newFixture()
	n, _ := f.seed(t)

	ghost := &domain.User{ID: uuid.New().String(), Username: "ghost", Email: "ghost@example.com"}
	acked, requeued := dispatch(t, f.consumer, targetBody(t, n, ghost))
	if acked != 1 || requeued != 0 {
		t.Fatalf("unknown user must be acked (dropped), got ack=%d requeue=%d", acked, requeued)
	}
}

func TestConsumer_SinkFailureIsRequeued(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)
	f.sink.DeliverErr = errors.New("smtp timeout")

	acked, requeued := dispatch(t, f.consumer, targetBody(t, n, u))
	if acked != 0 || requeued != 1 {
		t.Fatalf("sink failure must requeue, got ack=%d requeue=%d", acked, requeued)
	}

	count, _ := f.notifications.CountDeliveries(context.Background(), n.ID)
	if count != 0 {
		t.Fatal("no delivery relation row may exist when the side effect failed")
	}
}

func TestConsumer_StorageFailureIsRequeued(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)
	f.notifications.CreateDeliveryErr = errors.New("connection reset")

	acked, requeued := dispatch(t, f.consumer, targetBody(t, n, u))
	if acked != 0 || requeued != 1 {
		t.Fatalf("storage failure must requeue, got ack=%d requeue=%d", acked, requeued)
	}
}

func TestPool_StopsWhenStreamCloses(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)

	pool := worker.NewPool(3, f.notifications, f.users, f.sink, 1000, zap.NewNop(), worker.MetricHooks{})

	deliveries := make(chan broker.Delivery, 1)
	deliveries <- broker.Delivery{
		Body:    targetBody(t, n, u),
		Ack:     func() error { return nil },
		Requeue: func() error { return nil },
	}
	close(deliveries)

	// No cancel: Wait must return on its own once the stream is closed, so
	// the binary can detect a lost broker connection and exit.
	pool.Start(context.Background(), deliveries)

	done := make(chan struct{})
	go func() {
		pool.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pool must stop when the delivery stream closes")
	}
}

func TestPool_DrainsSharedStream(t *testing.T) {
	f := newFixture()
	n, u := f.seed(t)

	pool := worker.NewPool(3, f.notifications, f.users, f.sink, 1000, zap.NewNop(), worker.MetricHooks{})

	deliveries := make(chan broker.Delivery)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx, deliveries)

	const messages = 10
	acks := make(chan struct{}, messages)
	body := targetBody(t, n, u)
	for i := 0; i < messages; i++ {
		deliveries <- broker.Delivery{
			Body: body,
			Ack: func() error {
				acks <- struct{}{}
				return nil
			},
			Requeue: func() error { return nil },
		}
	}

	for i := 0; i < messages; i++ {
		select {
		case <-acks:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for ack %d", i+1)
		}
	}

	cancel()
	pool.Wait()

	count, _ := f.notifications.CountDeliveries(context.Background(), n.ID)
	if count != 1 {
		t.Fatalf("expected 1 relation row for repeated redelivery, got %d", count)
	}
}
