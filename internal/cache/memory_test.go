package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStore_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "messages:1", []byte("[]"), 60*time.Second))

	clock.Advance(59 * time.Second)
	got, err := store.Get(ctx, "messages:1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(got))

	clock.Advance(time.Second)
	_, err = store.Get(ctx, "messages:1")
	assert.ErrorIs(t, err, ErrMiss, "entry must expire exactly at its ttl")
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_NoTTLNeverExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	clock.Advance(365 * 24 * time.Hour)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestMemoryStore_DelAndExpire(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	store := NewMemoryStoreWithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, store.Del(ctx, "a", "missing"))

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Expire(ctx, "b", 5*time.Second))
	clock.Advance(5 * time.Second)
	_, err = store.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, "c", []byte("3"), time.Minute))
	require.NoError(t, store.Expire(ctx, "c", 0))
	_, err = store.Get(ctx, "c")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	got[1] = 'z'
	assert.Equal(t, "abc", string(mustGet(t, store, "k")))
}

func mustGet(t *testing.T, s Store, key string) []byte {
	t.Helper()
	b, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	return b
}
