package pkg

import "zephyr/internal/engine"

// Option configures an Engine at construction time.
type Option interface {
	apply(*engine.Config)
}

type optionFunc func(*engine.Config)

func (f optionFunc) apply(cfg *engine.Config) { f(cfg) }

// WithWorkers sets the number of driver goroutines, each owning its own
// io_uring ring. Defaults to one per logical CPU.
func WithWorkers(n int) Option {
	return optionFunc(func(cfg *engine.Config) { cfg.Workers = n })
}

// WithRingDepth sets the submission and completion queue depth for every
// worker's ring. Defaults to 256.
func WithRingDepth(submission, completion uint32) Option {
	return optionFunc(func(cfg *engine.Config) {
		cfg.SubmissionDepth = submission
		cfg.CompletionDepth = completion
	})
}

// WithFDSlotsPerWorker bounds how many chains, and therefore open file
// descriptors, a single worker may have in flight at once. Defaults to
// 128.
func WithFDSlotsPerWorker(n int) Option {
	return optionFunc(func(cfg *engine.Config) { cfg.FDSlotsPerWorker = n })
}

// WithDirectIO enables O_DIRECT on every OPEN and enforces alignment on
// every READ's destination buffer, length, and offset. This is an
// engine-wide mode: there is no per-operation override.
func WithDirectIO(alignment uint64) Option {
	return optionFunc(func(cfg *engine.Config) {
		cfg.DirectIO = true
		if alignment > 0 {
			cfg.DirectIOAlignment = alignment
		}
	})
}

// WithFileSizeCacheCapacity bounds the number of distinct paths the
// process-wide file-size cache retains. Defaults to 4096.
func WithFileSizeCacheCapacity(n int) Option {
	return optionFunc(func(cfg *engine.Config) { cfg.FileSizeCacheCapacity = n })
}

// WithChannelCapacity bounds the Engine's internal input buffer and its
// Completions channel. Once the input buffer is full, Submit blocks the
// caller until a worker has pulled enough work to make room. Defaults
// to 1024 each.
func WithChannelCapacity(input, output int) Option {
	return optionFunc(func(cfg *engine.Config) {
		cfg.InputCapacity = input
		cfg.OutputCapacity = output
	})
}
