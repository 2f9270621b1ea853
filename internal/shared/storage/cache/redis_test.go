package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvio-backend/internal/shared/config"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, New(config.RedisConfig{}))
	var c *Cache
	assert.NoError(t, c.Close())
}

func TestJSONRoundTripAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	var got []string
	hit, err := c.GetJSON(ctx, "skills:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.SetJSON(ctx, "skills:all", []string{"Go", "SQL"}, time.Minute))
	hit, err = c.GetJSON(ctx, "skills:all", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Go", "SQL"}, got)

	mr.FastForward(2 * time.Minute)
	hit, err = c.GetJSON(ctx, "skills:all", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDelAndErrors(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "k", 1, 0))
	require.NoError(t, c.Del(ctx, "k"))
	assert.False(t, mr.Exists("k"))

	require.NoError(t, mr.Set("bad", "{not json"))
	var v map[string]any
	_, err := c.GetJSON(ctx, "bad", &v)
	assert.Error(t, err)

	mr.SetError("LOADING dataset")
	_, err = c.GetJSON(ctx, "k", &v)
	assert.Error(t, err)
	assert.Error(t, c.Ping(ctx))
}
