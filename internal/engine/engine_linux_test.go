//go:build linux

package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.SubmissionDepth = 32
	cfg.CompletionDepth = 32
	cfg.FDSlotsPerWorker = 8
	return cfg
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Skipf("io_uring unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func drainN(t *testing.T, e *Engine, n int, timeout time.Duration) []Chunk {
	t.Helper()
	chunks := make([]Chunk, 0, n)
	deadline := time.After(timeout)
	for len(chunks) < n {
		select {
		case c := <-e.Completions():
			chunks = append(chunks, c)
		case <-deadline:
			t.Fatalf("timed out after %d/%d chunks", len(chunks), n)
		}
	}
	return chunks
}

// TestSingleSmallRead is scenario 1: a 4096-byte file, one Get for the
// whole thing, expect one chunk whose bytes match exactly.
func TestSingleSmallRead(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	want := make([]byte, 4096)
	for i := range want {
		want[i] = byte(i % 256)
	}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	require.NoError(t, e.Submit([]Operation{{ID: 7, GroupID: 0, Path: path, Range: ByteRange{Start: 0, End: 4096}}}))

	chunks := drainN(t, e, 1, 5*time.Second)
	c := chunks[0]
	assert.EqualValues(t, 7, c.ID)
	assert.EqualValues(t, 0, c.GroupID)
	require.NoError(t, c.Err)

	got, err := c.View.AsSlice()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	c.View.Release()
}

// TestThreeRangesFromOneFile is scenario 2: absolute and end-relative
// ranges against the same file.
func TestThreeRangesFromOneFile(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "g")
	content := make([]byte, 10000)
	for i := range content {
		content[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, content, 0o644))

	ops := []Operation{
		{ID: 1, GroupID: 0, Path: path, Range: ByteRange{Start: 0, End: 1000}},
		{ID: 2, GroupID: 0, Path: path, Range: ByteRange{Start: -500, End: -200}},
		{ID: 3, GroupID: 0, Path: path, Range: ByteRange{Start: -100, End: -1}},
	}
	require.NoError(t, e.Submit(ops))

	chunks := drainN(t, e, 3, 5*time.Second)
	byID := map[uint64]Chunk{}
	for _, c := range chunks {
		byID[c.ID] = c
	}

	wantLen := map[uint64]int{1: 1000, 2: 300, 3: 99}
	wantOff := map[uint64]int{1: 0, 2: 9500, 3: 9900}
	for id, want := range wantLen {
		c, ok := byID[id]
		require.True(t, ok, "missing chunk for id %d", id)
		require.NoError(t, c.Err, "id %d", id)

		got, err := c.View.AsSlice()
		require.NoError(t, err)
		assert.Len(t, got, want, "id %d", id)
		off := wantOff[id]
		assert.Equal(t, content[off:off+want], got, "id %d", id)
		c.View.Release()
	}
}

// TestManySmallFiles is scenario 3, scaled down: many tiny files read in
// one batch, expecting exactly one chunk per file with matching bytes.
func TestManySmallFiles(t *testing.T) {
	e := newTestEngine(t)

	const n = 200
	dir := t.TempDir()
	ops := make([]Operation, n)
	want := make([][]byte, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, "file")
		path = path + string(rune('a'+i%26)) + string(rune('0'+i/26))
		buf := make([]byte, 4096)
		for j := range buf {
			buf[j] = byte(i)
		}
		require.NoError(t, os.WriteFile(path, buf, 0o644))
		want[i] = buf
		ops[i] = Operation{ID: uint64(i), GroupID: 0, Path: path, Range: ByteRange{Start: 0, End: 4096}}
	}

	require.NoError(t, e.Submit(ops))

	chunks := drainN(t, e, n, 20*time.Second)
	seen := make(map[uint64]bool, n)
	for _, c := range chunks {
		require.False(t, seen[c.ID], "duplicate chunk for id %d", c.ID)
		seen[c.ID] = true
		require.NoError(t, c.Err, "id %d", c.ID)

		got, err := c.View.AsSlice()
		require.NoError(t, err)
		assert.Equal(t, want[c.ID], got, "id %d", c.ID)
		c.View.Release()
	}
}

// TestGroupBarrierOrdering is scenario 4: every group-0 chunk must be
// observed before any group-1 chunk.
func TestGroupBarrierOrdering(t *testing.T) {
	e := newTestEngine(t)

	dir := t.TempDir()
	const perGroup = 100
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, make([]byte, 16), 0o644))

	ops := make([]Operation, 0, perGroup*2)
	for g := uint64(0); g < 2; g++ {
		for i := 0; i < perGroup; i++ {
			ops = append(ops, Operation{ID: g*uint64(perGroup) + uint64(i), GroupID: g, Path: path, Range: ByteRange{Start: 0, End: 16}})
		}
	}

	require.NoError(t, e.Submit(ops))

	chunks := drainN(t, e, perGroup*2, 20*time.Second)
	sawGroup1 := false
	group0Count := 0
	for _, c := range chunks {
		if c.View != nil {
			defer c.View.Release()
		}
		if c.GroupID == 1 {
			sawGroup1 = true
		} else if c.GroupID == 0 {
			require.False(t, sawGroup1, "observed a group-0 chunk after a group-1 chunk")
			group0Count++
		}
	}
	assert.Equal(t, perGroup, group0Count)
}

// TestMissingFile is scenario 5.
func TestMissingFile(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.Submit([]Operation{{ID: 1, GroupID: 0, Path: "/nonexistent-path-for-zephyr-tests", Range: ByteRange{Start: 0, End: 1}}}))

	chunks := drainN(t, e, 1, 5*time.Second)
	c := chunks[0]
	require.Error(t, c.Err)
	engErr, ok := c.Err.(*Error)
	require.True(t, ok, "expected *Error, got %T", c.Err)
	assert.Equal(t, KindNotFound, engErr.Kind)
}
