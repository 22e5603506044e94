package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/darkgooddack/notification-distribution/internal/domain"
)

// LogSink writes each delivery to the structured log. It is the default
// sink and never fails.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(_ context.Context, msg *domain.TargetMessage) error {
	s.logger.Info("notification delivered",
		zap.String("username", msg.Username),
		zap.String("email", msg.Email),
		zap.String("notification_id", msg.NotificationID),
		zap.String("title", msg.Title),
	)
	return nil
}
