package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *IdeaCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewIdeaCache(rdb)
}

func TestNormalizeNiche(t *testing.T) {
	assert.Equal(t, "фитнес", NormalizeNiche("  Фитнес "))
	assert.Equal(t, "coffee shop", NormalizeNiche("Coffee Shop"))
	assert.Equal(t, "", NormalizeNiche("   "))
}

func TestCacheMissOnAbsentKey(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	_, ok, err := cache.Get(ctx, "фитнес")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Put(ctx, "Фитнес", "идея 1\nидея 2"))

	// Variants of the same niche hit the same entry.
	for _, niche := range []string{"Фитнес", "фитнес", "  фитнес  "} {
		got, ok, err := cache.Get(ctx, niche)
		require.NoError(t, err)
		assert.True(t, ok, niche)
		assert.Equal(t, "идея 1\nидея 2", got)
	}

	// A different niche stays a miss.
	_, ok, err := cache.Get(ctx, "кофейня")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCacheOverwrite(t *testing.T) {
	ctx := context.Background()
	cache := newTestCache(t)

	require.NoError(t, cache.Put(ctx, "кофейня", "старые идеи"))
	require.NoError(t, cache.Put(ctx, "кофейня", "свежие идеи"))

	got, ok, err := cache.Get(ctx, "кофейня")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "свежие идеи", got)
}
