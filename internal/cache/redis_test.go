package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb, err := NewRedisClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	return NewRedisStore(rdb), mr
}

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Run("host and port", func(t *testing.T) {
		rdb, err := NewRedisClient(context.Background(), mr.Addr())
		require.NoError(t, err)
		_ = rdb.Close()
	})

	t.Run("url", func(t *testing.T) {
		rdb, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
		require.NoError(t, err)
		_ = rdb.Close()
	})

	t.Run("invalid url", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), "redis://%zz")
		assert.Error(t, err)
	})

	t.Run("unreachable", func(t *testing.T) {
		down, err := miniredis.Run()
		require.NoError(t, err)
		addr := down.Addr()
		down.Close()
		_, err = NewRedisClient(context.Background(), addr)
		assert.Error(t, err)
	})
}

func TestRedisStore_GetSetTTL(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "chatList:1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "chatList:1", []byte(`[{"chatid":1}]`), ChatListTTL))
	assert.Equal(t, ChatListTTL, mr.TTL("chatList:1"))

	got, err := store.Get(ctx, "chatList:1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"chatid":1}]`, string(got))

	mr.FastForward(ChatListTTL)
	_, err = store.Get(ctx, "chatList:1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisStore_DelExpire(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "user:a@example.com", []byte("{}"), UserTTL))
	require.NoError(t, store.Expire(ctx, "user:a@example.com", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("user:a@example.com"))

	require.NoError(t, store.Del(ctx, "user:a@example.com"))
	assert.False(t, mr.Exists("user:a@example.com"))
	assert.NoError(t, store.Del(ctx))
}
