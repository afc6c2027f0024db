package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/rebalancer/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()

	client, err := New(&config.Config{
		Redis: config.RedisConfig{Enabled: false},
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)

	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestLocker_Disabled(t *testing.T) {
	locker := NewLocker(disabledClient(t), "test")

	release, ok, err := locker.TryLock(context.Background(), "tick", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, release)
	release()
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, cache.Set(ctx, "key", "value", TTLShort))
	assert.NoError(t, cache.Delete(ctx, "key"))
	assert.NoError(t, cache.DeletePattern(ctx, OrdersKeyPattern()))

	var out []string
	err = cache.GetOrSet(ctx, "list", &out, TTLShort, func() (interface{}, error) {
		return []string{"a", "b"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "orders:2006-02-01:2006-03-01", OrdersKey("2006-02-01", "2006-03-01"))
	assert.Equal(t, "orders:*", OrdersKeyPattern())
}
