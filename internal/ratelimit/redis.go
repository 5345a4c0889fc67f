package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window counter kept in Redis: the first hit in a
// window creates the key with a TTL, later hits increment it.
type RedisLimiter struct {
	cache  *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter allows max hits per window for each identifier.
func NewRedisLimiter(cache *redis.Client, max int, window time.Duration) *RedisLimiter {
	if max <= 0 {
		max = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{cache: cache, max: max, window: window}
}

// Limit increments the identifier's counter and reports whether it is still
// within the window budget.
func (l *RedisLimiter) Limit(ctx context.Context, identifier string) (Decision, error) {
	key := keyPrefix + identifier

	cnt, err := l.cache.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", identifier, err)
	}

	reset := time.Now().Add(l.window)
	if cnt == 1 {
		if err := l.cache.Expire(ctx, key, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit expire %s: %w", identifier, err)
		}
	} else if ttl, err := l.cache.PTTL(ctx, key).Result(); err == nil && ttl > 0 {
		reset = time.Now().Add(ttl)
	}

	remaining := l.max - int(cnt)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: cnt <= int64(l.max), Remaining: remaining, Reset: reset}, nil
}
