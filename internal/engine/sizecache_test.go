package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeCacheSizeOfStatsAndCaches(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, make([]byte, 123), 0o644))

	c := newSizeCache(8)
	size, err := c.sizeOf(path)
	require.NoError(t, err)
	assert.EqualValues(t, 123, size)

	_, ok := c.lookup(path)
	assert.True(t, ok, "sizeOf should have populated the cache")

	// Grow the file on disk; a cached lookup must not see the change
	// until evicted, matching "cached per path for the lifetime of the
	// engine".
	require.NoError(t, os.WriteFile(path, make([]byte, 999), 0o644))
	size, err = c.sizeOf(path)
	require.NoError(t, err)
	assert.EqualValues(t, 123, size, "expected cached stale size")
}

func TestSizeCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newSizeCache(2)
	c.insert("a", 1)
	c.insert("b", 2)
	// Touch "a" so "b" becomes the least recently used.
	_, ok := c.lookup("a")
	require.True(t, ok, "expected a to be present")
	c.insert("c", 3)

	_, ok = c.lookup("b")
	assert.False(t, ok, "b should have been evicted as the least recently used entry")
	_, ok = c.lookup("a")
	assert.True(t, ok, "a should still be cached")
	_, ok = c.lookup("c")
	assert.True(t, ok, "c should be cached")
}

func TestSizeCacheMissingFile(t *testing.T) {
	c := newSizeCache(4)
	_, err := c.sizeOf(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
