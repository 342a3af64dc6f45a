package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jurisgate/internal/config"
)

func TestRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	c, err := NewRedis(ctx, config.RedisConfig{Address: mr.Addr(), ReplayTTLSec: 60})
	require.NoError(t, err)
	defer c.Close()

	_, ok, err := c.Get(ctx, "case-1", "r-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "case-1", "r-1", []byte(`{"ok":true}`)))
	got, ok, err := c.Get(ctx, "case-1", "r-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"ok":true}`, string(got))

	// Scopes do not share request ids.
	_, ok, err = c.Get(ctx, "case-2", "r-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.True(t, mr.Exists("gate:replay:case-1:r-1"))
	assert.Equal(t, 60*time.Second, mr.TTL("gate:replay:case-1:r-1"))

	mr.FastForward(61 * time.Second)
	_, ok, err = c.Get(ctx, "case-1", "r-1")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, c.Ping(ctx))
}

func TestRedisUnavailable(t *testing.T) {
	ctx := context.Background()

	_, err := NewRedis(ctx, config.RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = NewRedis(ctx, config.RedisConfig{Address: addr})
	assert.ErrorContains(t, err, "redis ping")
}

func TestRedisWithClientNoTTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	c := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	defer c.Close()

	require.NoError(t, c.Put(ctx, "_system", "r-9", []byte("x")))
	assert.Equal(t, time.Duration(0), mr.TTL("gate:replay:_system:r-9"))
}
