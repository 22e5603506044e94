package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQP implements Publisher and Consumer over a single long-lived
// connection. Channels are cheap and scoped per operation; the connection
// is not, so it is owned by main and shared.
type AMQP struct {
	conn   *amqp.Connection
	logger *zap.Logger
}

// Dial connects to the broker and verifies the connection.
func Dial(url string, logger *zap.Logger) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return &AMQP{conn: conn, logger: logger}, nil
}

func (b *AMQP) Publish(ctx context.Context, queue string, bodies [][]byte) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := declareQueue(ch, queue); err != nil {
		return err
	}

	for i, body := range bodies {
		err := ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish message %d/%d: %w", i+1, len(bodies), err)
		}
	}
	return nil
}

func (b *AMQP) QueueDepth(queue string) (int, int, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return 0, 0, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := declareQueue(ch, queue)
	if err != nil {
		return 0, 0, err
	}
	return q.Messages, q.Consumers, nil
}

// Consume opens a dedicated channel and streams deliveries until ctx is
// cancelled. Messages are manually acknowledged by the worker; a message
// still unrouted at shutdown is nacked back to the queue.
func (b *AMQP) Consume(ctx context.Context, queue string, prefetch int) (<-chan Delivery, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := declareQueue(ch, queue); err != nil {
		ch.Close()
		return nil, err
	}

	// The prefetch window must cover the whole consumer pool: all
	// deliveries arrive on this one channel, and a window of 1 would hold
	// back message k+1 until message k is acked, serialising the pool.
	// Slow sinks still apply back-pressure once the window is full.
	if err := ch.Qos(normalizePrefetch(prefetch), 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set prefetch: %w", err)
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("start consuming: %w", err)
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					b.logger.Warn("broker delivery stream closed", zap.String("queue", queue))
					return
				}
				d := Delivery{
					Body:    m.Body,
					Ack:     func() error { return m.Ack(false) },
					Requeue: func() error { return m.Nack(false, true) },
				}
				select {
				case out <- d:
				case <-ctx.Done():
					_ = m.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (b *AMQP) Close() error {
	return b.conn.Close()
}

// normalizePrefetch clamps misconfigured values to the minimum usable
// window.
func normalizePrefetch(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func declareQueue(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %q: %w", queue, err)
	}
	return q, nil
}
