package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MemoryLimiter keeps a token bucket per identifier in process memory.
// It refills max tokens per window with a burst of max.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	window   time.Duration
}

// NewMemoryLimiter builds an in-process limiter for development.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(window / time.Duration(max)),
		burst:    max,
		window:   window,
	}
}

func (l *MemoryLimiter) limiter(identifier string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[identifier]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[identifier] = lim
	}
	return lim
}

// Limit consumes one token for identifier.
func (l *MemoryLimiter) Limit(_ context.Context, identifier string) (Decision, error) {
	lim := l.limiter(identifier)
	now := time.Now()
	allowed := lim.AllowN(now, 1)
	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: allowed, Remaining: remaining, Reset: now.Add(l.window)}, nil
}
