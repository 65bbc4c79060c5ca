package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, filename string, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
}

func TestCache(t *testing.T) {
	t.Parallel()

	cacheDir := filepath.Join(t.TempDir(), "cache")
	cache, err := New(cacheDir)
	require.NoError(t, err)

	key := Key{OldHash: "a", NewHash: "b", Name: "Tick"}

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get(Key{Name: "nonexistent"})
		assert.False(t, found)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		cache.Set(key, "Equal")
		require.NoError(t, cache.Save())

		reloaded, err := New(cacheDir)
		require.NoError(t, err)
		entry, found := reloaded.Get(key)
		require.True(t, found)
		assert.Equal(t, "Equal", entry.Verdict)
	})

	t.Run("DistinctKeys", func(t *testing.T) {
		other := key
		other.Symbol = "counter"
		_, found := cache.Get(other)
		assert.False(t, found)
	})
}

func TestCacheMaxAge(t *testing.T) {
	t.Parallel()

	cache, err := New(t.TempDir())
	require.NoError(t, err)
	key := Key{Name: "Tick"}
	cache.Set(key, "Equal")

	cache.SetMaxAge(time.Hour)
	_, found := cache.Get(key)
	assert.True(t, found)

	cache.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)
	_, found = cache.Get(key)
	assert.False(t, found)
	assert.Equal(t, 0, cache.Len())
}

func TestInvalidateAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cache, err := New(dir)
	require.NoError(t, err)
	cache.Set(Key{Name: "a"}, "Equal")
	cache.Set(Key{Name: "b"}, "Equal")
	require.NoError(t, cache.Save())

	require.NoError(t, cache.InvalidateAll())
	assert.Equal(t, 0, cache.Len())

	reloaded, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}

func TestCorruptCacheFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestFile(t, filepath.Join(dir, cacheFileName), "not gob")
	_, err := New(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode cache file")
}

func TestVerdictsFollowFileContents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.go")
	newPath := filepath.Join(dir, "new.go")
	writeTestFile(t, oldPath, "package main\n\nfunc main() {}\n")
	writeTestFile(t, newPath, "package main\n\nfunc main() {}\n")

	cache, err := New(filepath.Join(dir, "cache"))
	require.NoError(t, err)

	v, err := cache.ForFiles(oldPath, newPath, "", struct{ Lookahead int }{3})
	require.NoError(t, err)
	assert.False(t, v.KnownEqual("main"))
	v.RememberEqual("main")
	assert.True(t, v.KnownEqual("main"))

	tests := []struct {
		name    string
		symbol  string
		options any
		modify  bool
		known   bool
	}{
		{name: "same inputs", options: struct{ Lookahead int }{3}, known: true},
		{name: "other options", options: struct{ Lookahead int }{4}},
		{name: "sliced", symbol: "x", options: struct{ Lookahead int }{3}},
		{name: "file modified", options: struct{ Lookahead int }{3}, modify: true},
	}
	for _, tt := range tests {
		if tt.modify {
			writeTestFile(t, newPath, "package main\n\nfunc main() { println(\"Hello\") }\n")
		}
		again, err := cache.ForFiles(oldPath, newPath, tt.symbol, tt.options)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.known, again.KnownEqual("main"), tt.name)
	}

	_, err = cache.ForFiles(filepath.Join(dir, "absent.go"), newPath, "", nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCacheConcurrency(t *testing.T) {
	t.Parallel()

	cache, err := New(t.TempDir())
	require.NoError(t, err)
	key := Key{Name: "Tick"}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			cache.Set(key, "Equal")
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(key)
		}()
	}
	wg.Wait()

	assert.NoError(t, cache.Save())
	assert.Equal(t, 1, cache.Len())
}
