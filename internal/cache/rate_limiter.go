package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window counter backed by redis. With a nil client it
// degrades to allowing everything, matching the rest of the cache layer.
type RateLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow increments the counter for key and reports whether the caller is
// still within the limit for the current window.
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil || r.limit <= 0 {
		return true, nil
	}

	cacheKey := fmt.Sprintf("%s%s", r.prefix, key)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, cacheKey)
	// Expiry is set on every hit; only the first NX call takes effect.
	pipe.ExpireNX(ctx, cacheKey, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limiter error: %w", err)
	}

	return incr.Val() <= int64(r.limit), nil
}

// Reset clears the counter for key.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, fmt.Sprintf("%s%s", r.prefix, key)).Err()
}
