//go:build linux

package pkg

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(slog.New(slog.NewTextHandler(io.Discard, nil)), WithWorkers(1))
	if err != nil {
		t.Skipf("io_uring unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestEngineGetRoundTrip(t *testing.T) {
	e := newTestEngine(t)

	path := filepath.Join(t.TempDir(), "f")
	want := []byte("hello from zephyr")
	require.NoError(t, os.WriteFile(path, want, 0o644))

	got, closer, err := e.Get(path, ByteRange{Start: 0, End: int64(len(want))})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, want, got)
}

func TestEngineGetMissingFile(t *testing.T) {
	e := newTestEngine(t)

	_, _, err := e.Get(filepath.Join(t.TempDir(), "nope"), ByteRange{Start: 0, End: 1})
	require.Error(t, err)
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, KindNotFound, engErr.Kind)
}

func TestEngineSubmitAfterCloseErrors(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Close())

	err := e.Submit([]Operation{{ID: 1, Path: "/tmp/x", Range: ByteRange{Start: 0, End: 1}}})
	assert.Error(t, err)
}
