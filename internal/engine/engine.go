package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"

	"zephyr/internal/pool"
)

// Engine is the completion-queue engine: a fixed pool of driver
// goroutines, each with its own io_uring ring, consuming Operations
// submitted via Submit and emitting Chunks on the channel returned by
// Completions.
type Engine struct {
	cfg Config
	log *slog.Logger

	group   *pool.Group[Operation]
	drivers []*driver

	out chan Chunk

	wg        sync.WaitGroup
	closeOnce sync.Once
	closed    chan struct{}
}

var _ io.Closer = (*Engine)(nil)

// New constructs an Engine and starts its worker goroutines. Each worker
// opens its own io_uring instance and registers a fixed-file table sized
// cfg.FDSlotsPerWorker; New fails if any of that setup fails (e.g. the
// kernel does not support io_uring, or the process is out of file
// descriptors).
func New(cfg Config, log *slog.Logger) (*Engine, error) {
	cfg = cfg.normalized()
	if log == nil {
		log = slog.Default()
	}
	tuneRuntime(log)

	out := make(chan Chunk, cfg.OutputCapacity)
	barrier := &groupBarrier{}
	sizes := newSizeCache(cfg.FileSizeCacheCapacity)
	group := pool.NewGroup[Operation](cfg.Workers, cfg.InputCapacity)

	drivers := make([]*driver, 0, cfg.Workers)
	var startErrs *multierror.Error
	for i, ws := range group.Stealers {
		d, err := newDriver(i, cfg, ws, barrier, sizes, out, log)
		if err != nil {
			startErrs = multierror.Append(startErrs, fmt.Errorf("worker %d: %w", i, err))
			continue
		}
		drivers = append(drivers, d)
	}
	if startErrs != nil {
		for _, started := range drivers {
			started.r.Close()
		}
		return nil, fmt.Errorf("engine: starting workers: %w", startErrs.ErrorOrNil())
	}

	e := &Engine{
		cfg:     cfg,
		log:     log,
		group:   group,
		drivers: drivers,
		out:     out,
		closed:  make(chan struct{}),
	}

	e.wg.Add(len(drivers))
	for _, d := range drivers {
		d := d
		go func() {
			defer e.wg.Done()
			d.run()
		}()
	}

	return e, nil
}

// Submit enqueues batch for processing. It does not block on anything
// beyond its own internal buffer: once that buffer (sized by
// Config.InputCapacity) is full, Submit blocks the caller until a driver
// has pulled enough work to make room again. Operations within batch,
// and across successive Submit calls, must carry non-decreasing group
// ids.
func (e *Engine) Submit(batch []Operation) error {
	select {
	case <-e.closed:
		return fmt.Errorf("engine: closed")
	default:
	}
	for _, op := range batch {
		if !e.group.Submit(op) {
			return fmt.Errorf("engine: closed")
		}
	}
	return nil
}

// Completions returns the receive-only channel every Chunk is published
// on, one per submitted Operation.
func (e *Engine) Completions() <-chan Chunk {
	return e.out
}

// Close requests a graceful shutdown: operations still queued are
// cancelled, operations already submitted to a ring are drained to
// completion normally, and then every worker's ring is released. Close
// blocks until all of that has happened, and closes the Completions
// channel.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.group.RequestStop()
		e.wg.Wait()
		e.group.Close()
		close(e.out)
	})
	return nil
}
