package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptCounter counts events per key inside a fixed window that starts at the first event
type AttemptCounter struct {
	client redis.Cmdable
	prefix string
}

// NewAttemptCounter creates a counter whose keys live under prefix
func NewAttemptCounter(client redis.Cmdable, prefix string) *AttemptCounter {
	return &AttemptCounter{client: client, prefix: prefix}
}

// Count returns the current count and how long until the window resets
func (c *AttemptCounter) Count(ctx context.Context, key string) (int64, time.Duration, error) {
	count, err := c.client.Get(ctx, c.prefix+key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read attempt count: %w", err)
	}

	ttl, err := c.client.TTL(ctx, c.prefix+key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read attempt window: %w", err)
	}
	// no expiry means no open window; the next Incr re-arms it
	if ttl < 0 {
		return 0, 0, nil
	}
	return count, ttl, nil
}

// Incr records one attempt. INCR and EXPIRE NX go out in one MULTI so the
// window opened by the first attempt is never lost.
func (c *AttemptCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, c.prefix+key)
		pipe.ExpireNX(ctx, c.prefix+key, window)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count attempt: %w", err)
	}
	return incr.Val(), nil
}

// Reset clears the count for key
func (c *AttemptCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}
