package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, c Client) {
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	v, err = c.Take(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
	_, err = c.Take(ctx, "k")
	require.True(t, IsNotFound(err), "take is one-shot")

	require.NoError(t, c.Set(ctx, "d", "x", time.Minute))
	require.NoError(t, c.Delete(ctx, "d"))
	_, err = c.Get(ctx, "d")
	require.True(t, IsNotFound(err))
}

func concurrentTake(t *testing.T, c Client) {
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "code", "payload", time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Take(ctx, "code"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemory(t *testing.T) {
	c, err := New(Config{Kind: "memory", Prefix: "t:"})
	require.NoError(t, err)
	defer c.Close()
	exercise(t, c)
	concurrentTake(t, c)
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory("")
	require.NoError(t, c.Set(context.Background(), "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Take(context.Background(), "k")
	require.True(t, IsNotFound(err))
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(Config{Kind: "memcached"})
	require.Error(t, err)
	_, err = New(Config{Kind: "redis"})
	require.Error(t, err)
}

// Corre solo con un Redis real: REDIS_TEST_ADDR=localhost:6379
func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	c, err := New(Config{Kind: "redis", Addr: addr, Prefix: "hellodesk-test:"})
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Ping(context.Background()))
	exercise(t, c)
	concurrentTake(t, c)
}
