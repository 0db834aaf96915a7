package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheStringAndStructValues(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "s", "hello", time.Minute))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "hello", s)

	type payload struct {
		Text string `json:"text"`
		N    int    `json:"n"`
	}
	require.NoError(t, mc.Set(ctx, "p", payload{Text: "x", N: 3}, time.Minute))
	var p payload
	require.NoError(t, mc.Get(ctx, "p", &p))
	assert.Equal(t, payload{Text: "x", N: 3}, p)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "k", "v", time.Second))
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	var v string
	assert.ErrorIs(t, mc.Get(ctx, "k", &v), ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0)
	mc.now = func() time.Time { return now }

	require.NoError(t, mc.Set(ctx, "a", "1", time.Hour))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Hour))
	now = now.Add(time.Second)

	var v string
	require.NoError(t, mc.Get(ctx, "a", &v))
	now = now.Add(time.Second)

	require.NoError(t, mc.Set(ctx, "c", "3", time.Hour))
	assert.ErrorIs(t, mc.Get(ctx, "b", &v), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "a", &v))
	assert.NoError(t, mc.Get(ctx, "c", &v))
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	mc := NewMemoryCache()
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}

func TestHashKeyStable(t *testing.T) {
	assert.Equal(t, HashKey([]byte("abc")), HashKey([]byte("abc")))
	assert.NotEqual(t, HashKey([]byte("abc")), HashKey([]byte("abd")))
	assert.Len(t, HashKey(nil), 64)
}
