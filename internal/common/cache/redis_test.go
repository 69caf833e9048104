// Package cache Redis 缓存模块单元测试
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dumeirei/pg-manager-backend/internal/common/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})
	return NewStore(client), s
}

func TestInit(t *testing.T) {
	t.Run("连接成功", func(t *testing.T) {
		s, err := miniredis.Run()
		require.NoError(t, err)
		defer s.Close()

		client, err := Init(&config.RedisConfig{
			Host:        s.Host(),
			Port:        s.Server().Addr().Port,
			DialTimeout: 1,
			ReadTimeout: 1,
		})
		require.NoError(t, err)
		assert.Same(t, client, GetClient())
		assert.NoError(t, Close())
	})

	t.Run("连接失败", func(t *testing.T) {
		client, err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: 1, DialTimeout: 1})
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to connect redis")
	})
}

type listing struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestStore_JSON(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()
	key := BuildKey(KeyPrefixProperty, "list")

	var miss []listing
	assert.ErrorIs(t, store.GetJSON(ctx, key, &miss), ErrCacheMiss)

	require.NoError(t, store.SetJSON(ctx, key, []listing{{ID: 1, Name: "Green Nest"}}, time.Minute))

	var got []listing
	require.NoError(t, store.GetJSON(ctx, key, &got))
	assert.Equal(t, []listing{{ID: 1, Name: "Green Nest"}}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, store.GetJSON(ctx, key, &got), ErrCacheMiss)
}

func TestStore_DeletePrefix(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetJSON(ctx, BuildKey(KeyPrefixProperty, "list"), 1, 0))
	require.NoError(t, store.SetJSON(ctx, BuildKey(KeyPrefixProperty, "detail", "3"), 2, 0))
	require.NoError(t, store.SetJSON(ctx, BuildKey(KeyPrefixRateLimit, "1.2.3.4"), 3, 0))

	require.NoError(t, store.DeletePrefix(ctx, KeyPrefixProperty))

	assert.False(t, mr.Exists("pg:property:list"))
	assert.False(t, mr.Exists("pg:property:detail:3"))
	assert.True(t, mr.Exists("pg:ratelimit:1.2.3.4"))
}

func TestStore_Disabled(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	assert.False(t, store.Enabled())
	assert.NoError(t, store.SetJSON(ctx, "k", 1, time.Minute))
	assert.NoError(t, store.Delete(ctx, "k"))
	assert.NoError(t, store.DeletePrefix(ctx, "k"))

	var v int
	assert.ErrorIs(t, store.GetJSON(ctx, "k", &v), ErrCacheMiss)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "pg:property:detail:3", BuildKey(KeyPrefixProperty, "detail", "3"))
	assert.Equal(t, "pg:property:", BuildKey(KeyPrefixProperty))
}
