package buildcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestHashSource(t *testing.T) {
	a := HashSource("main { print(1); }")
	b := HashSource("main { print(1); }")
	c := HashSource("main { print(2); }")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestCache_GetMiss(t *testing.T) {
	cache := openMemoryCache(t)

	_, found, err := cache.Get(context.Background(), HashSource("nothing"))
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_PutAndGet(t *testing.T) {
	cache := openMemoryCache(t)
	ctx := context.Background()

	hash := HashSource("main { print(1); }")
	require.NoError(t, cache.Put(ctx, hash, "section .text\n"))

	assembly, found, err := cache.Get(ctx, hash)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "section .text\n", assembly)
}

func TestCache_PutReplaces(t *testing.T) {
	cache := openMemoryCache(t)
	ctx := context.Background()

	hash := HashSource("prog")
	require.NoError(t, cache.Put(ctx, hash, "old"))
	require.NoError(t, cache.Put(ctx, hash, "new"))

	assembly, found, err := cache.Get(ctx, hash)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "new", assembly)

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_StatsAndClear(t *testing.T) {
	cache := openMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, HashSource("a"), "aaaa"))
	require.NoError(t, cache.Put(ctx, HashSource("b"), "bbbbbb"))

	stats, err := cache.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(10), stats.TotalSize)

	require.NoError(t, cache.Clear(ctx))
	stats, err = cache.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.Zero(t, stats.TotalSize)
}

func TestCache_PersistsOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	cache, err := Open(ctx, path)
	require.NoError(t, err)
	hash := HashSource("persistent")
	require.NoError(t, cache.Put(ctx, hash, "asm"))
	require.NoError(t, cache.Close())

	reopened, err := Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	assembly, found, err := reopened.Get(ctx, hash)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "asm", assembly)
}
