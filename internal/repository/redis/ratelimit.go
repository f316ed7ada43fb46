package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed-window per-caller request budget in Redis.
// Counters live in one-minute buckets keyed by the window start, so the
// advertised reset time always matches the bucket that is actually counting
// and stale windows expire on their own.
type RateLimiter struct {
	client *Client
	limit  int64
}

// NewRateLimiter creates a limiter allowing requestsPerMinute sustained
// requests with an additional burst allowance per window
func NewRateLimiter(client *Client, requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  int64(requestsPerMinute + burst),
	}
}

// Allow counts a request against the caller's current window. It reports
// whether the request is within budget, along with the remaining budget and
// the time the window resets.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	windowStart := time.Now().UTC().Truncate(time.Minute)
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	var used *redis.IntCmd
	_, err := r.client.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		used = pipe.Incr(ctx, bucket)
		// the bucket outlives its window by one minute so a request racing
		// the window edge still finds its counter
		pipe.Expire(ctx, bucket, 2*time.Minute)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, time.Time{}, fmt.Errorf("failed to count request: %w", err)
	}

	remaining := r.limit - used.Val()
	if remaining < 0 {
		remaining = 0
	}

	return used.Val() <= r.limit, int(remaining), windowStart.Add(time.Minute), nil
}
