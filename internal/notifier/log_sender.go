package notifier

import (
	"context"

	"github.com/jonesrussell/exposure-watch/internal/logger"
	"github.com/jonesrussell/exposure-watch/internal/record"
)

// LogSender writes each delivery to the log. It is the default backend
// when no chat transport is configured.
type LogSender struct {
	log logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log logger.Logger) *LogSender {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogSender{log: log.With(logger.Component("log_sender"))}
}

// Send logs r for target.
func (s *LogSender) Send(_ context.Context, target Target, r record.Record) error {
	s.log.Info("New exposure site",
		logger.String("target", target.Key()),
		logger.String("record_hash", r.Hash()),
		logger.String("message", r.String()),
	)
	return nil
}
