package websearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestMemoryGate_SpacesCalls(t *testing.T) {
	g := NewMemoryGate(40 * time.Millisecond)
	ctx := context.Background()
	start := time.Now()
	require.NoError(t, g.Wait(ctx))
	require.NoError(t, g.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestMemoryGate_ContextCancel(t *testing.T) {
	g := NewMemoryGate(time.Hour)
	require.NoError(t, g.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)
}

func TestMemoryGate_ZeroInterval(t *testing.T) {
	g := NewMemoryGate(0)
	for i := 0; i < 3; i++ {
		require.NoError(t, g.Wait(context.Background()))
	}
}

func TestRedisGate_HoldsSlotUntilExpiry(t *testing.T) {
	mr, client := setupRedis(t)
	g := NewRedisGate(client, "", time.Minute)

	require.NoError(t, g.Wait(context.Background()))
	assert.True(t, mr.Exists("searchagent:ratelimit:search"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := g.Wait(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)

	mr.FastForward(time.Minute)
	require.NoError(t, g.Wait(context.Background()))
}

func TestRedisGate_RedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()
	g := NewRedisGate(client, "k", time.Second)
	assert.Error(t, g.Wait(context.Background()))
}
