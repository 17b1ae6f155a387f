package websearch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateGate spaces out outgoing search requests.
type RateGate interface {
	Wait(ctx context.Context) error
}

// #region memory-gate

// MemoryGate enforces a minimum interval between calls within one process.
type MemoryGate struct {
	interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func NewMemoryGate(interval time.Duration) *MemoryGate {
	return &MemoryGate{interval: interval}
}

func (g *MemoryGate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if wait := time.Until(g.last.Add(g.interval)); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	g.last = time.Now()
	return nil
}

// #endregion memory-gate

// #region redis-gate

// RedisGate shares the interval across processes by holding a Redis key
// with a TTL equal to the interval. Whoever sets the key gets the slot.
type RedisGate struct {
	client   *redis.Client
	key      string
	interval time.Duration
}

func NewRedisGate(client *redis.Client, key string, interval time.Duration) *RedisGate {
	if key == "" {
		key = "searchagent:ratelimit:search"
	}
	return &RedisGate{client: client, key: key, interval: interval}
}

func (g *RedisGate) Wait(ctx context.Context) error {
	if g.interval <= 0 {
		return nil
	}
	for {
		ok, err := g.client.SetNX(ctx, g.key, time.Now().UnixNano(), g.interval).Result()
		if err != nil {
			return fmt.Errorf("rate gate: %w", err)
		}
		if ok {
			return nil
		}
		wait, err := g.client.PTTL(ctx, g.key).Result()
		if err != nil {
			return fmt.Errorf("rate gate ttl: %w", err)
		}
		// Key without expiry or already gone: poll shortly.
		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		t := time.NewTimer(wait)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// #endregion redis-gate
