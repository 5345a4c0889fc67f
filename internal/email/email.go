// Package email wraps the transactional email provider. Senders never return
// errors: every provider failure is folded into Result.
package email

import "context"

// Message is a single outbound HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Receipt describes an accepted message.
type Receipt struct {
	StatusCode int
	MessageID  string
}

// Result reports the outcome of Send.
type Result struct {
	Success bool
	Data    *Receipt
	Error   string
}

// Sender delivers emails to recipients.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

func failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
