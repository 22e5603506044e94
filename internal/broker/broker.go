// Package broker wraps the AMQP connection to the external message broker.
// Each unit of work (one publish batch, one consumer stream) acquires its
// own channel and releases it on every exit path; the connection itself is
// a lifecycle-managed dependency owned by main.
package broker

import "context"

// Publisher is the producer side of the fan-out queue.
type Publisher interface {
	// Publish declares the queue (idempotent) and publishes every body as a
	// persistent message on one scoped channel. Any failure is a hard
	// failure of the whole batch.
	Publish(ctx context.Context, queue string, bodies [][]byte) error

	// QueueDepth reports ready messages and attached consumers, for the
	// stats endpoint.
	QueueDepth(queue string) (messages, consumers int, err error)

	Close() error
}

// Delivery is one received message plus its acknowledgement controls.
// Ack removes the message; Requeue returns it to the queue for another
// attempt. Exactly one of the two must be called per delivery.
type Delivery struct {
	Body    []byte
	Ack     func() error
	Requeue func() error
}

// Consumer yields deliveries until the context is cancelled or the
// underlying channel closes. prefetch bounds the unacknowledged messages
// the broker hands this process at once; size it to the consumer pool so
// all workers can hold a message in flight.
type Consumer interface {
	Consume(ctx context.Context, queue string, prefetch int) (<-chan Delivery, error)
	Close() error
}
