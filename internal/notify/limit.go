package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter reserves one unit of the daily send allowance. Reserve reports
// false once limit units were already taken in the UTC day containing now.
// A limit of zero or less means unlimited.
type Counter interface {
	Reserve(ctx context.Context, limit int, now time.Time) (bool, error)
}

func dayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// MemoryCounter is a process local counter.
type MemoryCounter struct {
	mu    sync.Mutex
	day   string
	count int
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{}
}

func (c *MemoryCounter) Reserve(_ context.Context, limit int, now time.Time) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if day := dayKey(now); day != c.day {
		c.day = day
		c.count = 0
	}
	if c.count >= limit {
		return false, nil
	}
	c.count++
	return true, nil
}

type redisIncrementer interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisCounter shares the allowance across instances.
type RedisCounter struct {
	client redisIncrementer
	prefix string
}

func NewRedisCounter(client redisIncrementer, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

func (c *RedisCounter) Reserve(ctx context.Context, limit int, now time.Time) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	key := c.prefix + dayKey(now)
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("increment %s: %w", key, err)
	}
	if n == 1 {
		// keep the key a little past midnight UTC
		if err := c.client.Expire(ctx, key, 48*time.Hour).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", key, err)
		}
	}
	return n <= int64(limit), nil
}
