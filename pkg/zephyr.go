package pkg

import (
	"fmt"
	"log/slog"

	"zephyr/internal/engine"
)

var _ Reader = (*Engine)(nil)

// Engine is a completion-queue engine: a fixed pool of driver goroutines,
// each with its own io_uring ring, reading byte ranges out of local
// files at whatever rate the underlying NVMe device can sustain.
type Engine struct {
	eng *engine.Engine
}

// Open starts an Engine. log may be nil, in which case slog.Default is
// used.
func Open(log *slog.Logger, options ...Option) (*Engine, error) {
	cfg := engine.DefaultConfig()
	for _, opt := range options {
		opt.apply(&cfg)
	}
	eng, err := engine.New(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Engine{eng: eng}, nil
}

// Submit enqueues batch for processing. Operations within batch, and
// across successive Submit calls, must carry non-decreasing GroupIDs;
// the engine admits a group only once every chain of every earlier
// group has both submitted and completed.
func (e *Engine) Submit(batch []Operation) error {
	return e.eng.Submit(batch)
}

// Completions returns the channel every Chunk is published on, exactly
// one per submitted Operation.
func (e *Engine) Completions() <-chan Chunk {
	return e.eng.Completions()
}

// Close requests a graceful shutdown and blocks until every worker's
// ring has been drained and released.
func (e *Engine) Close() error {
	return e.eng.Close()
}

// Get is a synchronous convenience wrapper around Submit/Completions for
// a single Operation. It is not meant for throughput: each call pays for
// its own round trip through the engine's worker pool and blocks the
// calling goroutine until that one Operation's Chunk arrives. On success
// the caller must Close the returned io.Closer to release the
// underlying buffer. Get reads directly off the shared Completions
// channel, so it must not be called concurrently with other Submit or
// Get calls on the same Engine.
func (e *Engine) Get(path string, r ByteRange) ([]byte, Close, error) {
	const getID = 0
	if err := e.Submit([]Operation{{ID: getID, GroupID: 0, Kind: OpGet, Path: path, Range: r}}); err != nil {
		return nil, nil, err
	}
	c, ok := <-e.Completions()
	if !ok {
		return nil, nil, fmt.Errorf("pkg: engine closed before Get completed")
	}
	if c.Err != nil {
		return nil, nil, c.Err
	}
	data, err := c.View.AsSlice()
	if err != nil {
		c.View.Release()
		return nil, nil, err
	}
	view := c.View
	return data, Close(func() { view.Release() }), nil
}
