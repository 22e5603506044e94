package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/darkgooddack/notification-distribution/internal/broker"
	"github.com/darkgooddack/notification-distribution/internal/repository"
	"github.com/darkgooddack/notification-distribution/internal/sink"
)

// Pool manages the lifecycle of all consumers. Every consumer reads from
// the same delivery stream; the broker's per-message delivery contract
// plus the idempotent relation insert is the only coordination needed, so
// multiple pools (processes) can safely consume the same queue.
type Pool struct {
	consumers []*Consumer
	wg        sync.WaitGroup
}

// NewPool creates count identical consumers sharing one rate limiter, so
// the delivery throttle applies to the process as a whole.
func NewPool(
	count int,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	deliverySink sink.Sink,
	ratePerSec int,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	// burst == rate: no "saved up" burst beyond the per-second maximum.
	limiter := rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)

	consumers := make([]*Consumer, count)
	for i := range consumers {
		consumers[i] = NewConsumer(
			i, notifications, users, deliverySink, limiter,
			logger.With(zap.Int("consumer_id", i)),
			hooks,
		)
	}
	return &Pool{consumers: consumers}
}

// Start launches all consumers as goroutines over the shared stream.
// Cancelling ctx triggers a graceful shutdown of the entire pool.
func (p *Pool) Start(ctx context.Context, deliveries <-chan broker.Delivery) {
	for _, c := range p.consumers {
		p.wg.Add(1)
		go func(c *Consumer) {
			defer p.wg.Done()
			c.Run(ctx, deliveries)
		}(c)
	}
}

// Wait blocks until every consumer has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight messages finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}
