package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across both binaries.
// Registered once at startup via New(); passed by pointer wherever needed.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
type Metrics struct {
	// Publisher side
	NotificationsPublished prometheus.Counter
	FanoutMessages         prometheus.Counter
	PublishFailures        prometheus.Counter

	// Worker side
	DeliveriesRecorded prometheus.Counter
	MessagesDropped    *prometheus.CounterVec
	MessagesRequeued   prometheus.Counter
	DeliveryLatency    prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NotificationsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "Total number of notification rows created by the publisher.",
		}),
		FanoutMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fanout_messages_total",
			Help: "Total number of per-recipient messages emitted to the queue.",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "publish_failures_total",
			Help: "Publishes that persisted the row but failed to reach the broker.",
		}),

		DeliveriesRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deliveries_recorded_total",
			Help: "Messages fully processed: side effect done and relation row recorded.",
		}),
		MessagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messages_dropped_total",
			Help: "Messages acknowledged without delivery, by permanent-failure reason.",
		}, []string{"reason"}),
		MessagesRequeued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_requeued_total",
			Help: "Messages returned to the queue after a transient failure.",
		}),
		DeliveryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "delivery_processing_seconds",
			Help:    "Per-message processing latency from dequeue to ack.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.NotificationsPublished,
		m.FanoutMessages,
		m.PublishFailures,
		m.DeliveriesRecorded,
		m.MessagesDropped,
		m.MessagesRequeued,
		m.DeliveryLatency,
	)

	return m
}

// PublisherHooks returns the callbacks expected by service.MetricHooks.
func (m *Metrics) PublisherHooks() (onPublished func(recipients int), onPublishFailed func()) {
	onPublished = func(recipients int) {
		m.NotificationsPublished.Inc()
		m.FanoutMessages.Add(float64(recipients))
	}
	onPublishFailed = func() {
		m.PublishFailures.Inc()
	}
	return
}

// WorkerHooks returns the callbacks expected by worker.MetricHooks.
// Centralises the prometheus observation calls so the consumer stays
// import-free.
func (m *Metrics) WorkerHooks() (
	onDelivered func(latency time.Duration),
	onDropped func(reason string),
	onRequeued func(),
) {
	onDelivered = func(latency time.Duration) {
		m.DeliveriesRecorded.Inc()
		m.DeliveryLatency.Observe(latency.Seconds())
	}
	onDropped = func(reason string) {
		m.MessagesDropped.WithLabelValues(reason).Inc()
	}
	onRequeued = func() {
		m.MessagesRequeued.Inc()
	}
	return
}
