package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendPath = "/v3/mail/send"

// SendGridConfig configures the SendGrid sender. Host is only set in tests.
type SendGridConfig struct {
	APIKey      string
	Host        string
	FromName    string
	FromAddress string
}

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *slog.Logger
}

// NewSendGridSender builds a SendGrid-backed sender.
func NewSendGridSender(cfg SendGridConfig, logger *slog.Logger) *SendGridSender {
	req := sendgrid.GetRequest(cfg.APIKey, sendPath, cfg.Host)
	req.Method = "POST"
	return &SendGridSender{
		client: &sendgrid.Client{Request: req},
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
		logger: logger,
	}
}

// Send delivers msg. Non-2xx responses and transport errors become failed results.
func (s *SendGridSender) Send(ctx context.Context, msg Message) Result {
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(s.from, msg.Subject, to, "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("email send failed", "to", msg.To, "error", err)
		return failed(fmt.Errorf("failed to send email: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Error("email rejected", "to", msg.To, "status", resp.StatusCode, "body", resp.Body)
		return failed(fmt.Errorf("failed to send email: provider returned status %d", resp.StatusCode))
	}

	receipt := &Receipt{StatusCode: resp.StatusCode}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		receipt.MessageID = ids[0]
	}
	s.logger.Info("email sent", "to", msg.To, "message_id", receipt.MessageID)
	return Result{Success: true, Data: receipt}
}
