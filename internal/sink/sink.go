package sink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// Sink performs the delivery side effect for one recipient. The core only
// guarantees the delivery relation is recorded once per pair; what
// "delivering" means (log line, email, push, webhook) is pluggable here.
type Sink interface {
	Deliver(ctx context.Context, msg *domain.TargetMessage) error
}

// New builds a sink from configuration.
func New(kind, url string, timeout time.Duration, logger *zap.Logger) (Sink, error) {
	switch kind {
	case "log", "":
		return NewLogSink(logger), nil
	case "webhook":
		if url == "" {
			return nil, fmt.Errorf("sink kind %q requires SINK_URL", kind)
		}
		return NewWebhookSink(url, timeout), nil
	default:
		return nil, fmt.Errorf("unknown sink kind %q", kind)
	}
}
