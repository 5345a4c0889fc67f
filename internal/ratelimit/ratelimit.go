// Package ratelimit decides whether a client identifier (usually an IP
// address) may perform another sensitive action.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of a single Limit call.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter consults a rate-limit window for identifier.
type Limiter interface {
	Limit(ctx context.Context, identifier string) (Decision, error)
}

// Unlimited allows every request. Used when no limiter is configured.
type Unlimited struct{}

// Limit always allows.
func (Unlimited) Limit(_ context.Context, _ string) (Decision, error) {
	return Decision{Allowed: true, Remaining: -1}, nil
}
