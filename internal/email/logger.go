package email

import (
	"context"
	"log/slog"
)

// LoggerSender writes messages to the structured logger instead of sending
// them. Used in development when no provider key is configured.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send logs the message and reports success.
func (s *LoggerSender) Send(_ context.Context, msg Message) Result {
	if s != nil && s.logger != nil {
		s.logger.Info("email", "to", msg.To, "subject", msg.Subject, "bytes", len(msg.HTML))
	}
	return Result{Success: true, Data: &Receipt{StatusCode: 202}}
}
