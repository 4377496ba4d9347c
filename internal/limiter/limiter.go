package limiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter enforces a fixed-window per-user cap on code executions.
// A nil redis client disables limiting entirely, which keeps single-node
// deployments working without a redis dependency.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// New creates a rate limiter allowing limit requests per window
func New(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether userID may run code right now. Redis errors fail
// open: an unreachable limiter must not take code execution down with it.
func (l *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l.client == nil || l.limit <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("ratelimit:run-code:%s:%d", userID, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return true, nil
	}

	return incr.Val() <= int64(l.limit), nil
}
