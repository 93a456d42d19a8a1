package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop_AlwaysMisses(t *testing.T) {
	var c SummaryCache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}))
	var dst map[string]int
	assert.ErrorIs(t, c.Get(ctx, "k", &dst), ErrMiss)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}

func TestKeysAreScopedPerUser(t *testing.T) {
	assert.NotEqual(t, GlobalProgressKey("user_1"), GlobalProgressKey("user_2"))
	assert.NotEqual(t, GlobalProgressKey("user_1"), TopicStatsKey("user_1"))
}

func TestNewRedis_RequiresAddress(t *testing.T) {
	_, err := NewRedis(context.Background(), "", "", time.Minute)
	assert.Error(t, err)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedis(ctx, addr, os.Getenv("TEST_REDIS_PASSWORD"), time.Minute)
	require.NoError(t, err)
	defer c.Close()

	type payload struct {
		Solved int `json:"solved"`
	}
	key := GlobalProgressKey("cache_test_user")
	require.NoError(t, c.Set(ctx, key, payload{Solved: 7}))

	var got payload
	require.NoError(t, c.Get(ctx, key, &got))
	assert.Equal(t, 7, got.Solved)

	require.NoError(t, c.Delete(ctx, key))
	assert.ErrorIs(t, c.Get(ctx, key, &got), ErrMiss)
}
