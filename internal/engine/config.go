package engine

import "runtime"

// Config holds every tunable the engine's constructor accepts. Zero
// values are not valid configuration; use DefaultConfig and override from
// there.
type Config struct {
	// Workers is the number of driver goroutines, each owning its own
	// io_uring ring.
	Workers int

	// SubmissionDepth and CompletionDepth size each worker's ring.
	// CompletionDepth must be at least SubmissionDepth — there can never
	// be more in-flight submissions than the completion ring can hold
	// completions for.
	SubmissionDepth uint32
	CompletionDepth uint32

	// FDSlotsPerWorker bounds how many chains (and therefore open file
	// descriptors) a single worker may have in flight at once.
	FDSlotsPerWorker int

	// DirectIO enables O_DIRECT on every OPEN and enforces the
	// filesystem's alignment contract on every READ's destination
	// buffer, length, and offset. This is an engine-wide mode, not a
	// per-operation choice.
	DirectIO bool

	// DirectIOAlignment is the alignment O_DIRECT requires, in bytes.
	// Used when DirectIO is true; the conventional value for most local
	// filesystems on 4K-sector NVMe devices is 512.
	DirectIOAlignment uint64

	// FileSizeCacheCapacity bounds the number of distinct paths the
	// process-wide file-size cache retains.
	FileSizeCacheCapacity int

	// InputCapacity and OutputCapacity bound the engine's Submit and
	// Completions channels.
	InputCapacity  int
	OutputCapacity int
}

// DefaultConfig returns a Config with reasonable defaults: one worker per
// logical CPU, a 256-deep ring per worker, 128 fd slots per worker, no
// O_DIRECT, and a 4096-entry file-size cache.
func DefaultConfig() Config {
	return Config{
		Workers:               runtime.NumCPU(),
		SubmissionDepth:       256,
		CompletionDepth:       256,
		FDSlotsPerWorker:      128,
		DirectIO:              false,
		DirectIOAlignment:     512,
		FileSizeCacheCapacity: 4096,
		InputCapacity:         1024,
		OutputCapacity:        1024,
	}
}

func (c Config) normalized() Config {
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.SubmissionDepth == 0 {
		c.SubmissionDepth = 256
	}
	if c.CompletionDepth < c.SubmissionDepth {
		c.CompletionDepth = c.SubmissionDepth
	}
	if c.FDSlotsPerWorker < 1 {
		c.FDSlotsPerWorker = 1
	}
	if c.DirectIOAlignment == 0 {
		c.DirectIOAlignment = 512
	}
	if c.FileSizeCacheCapacity < 1 {
		c.FileSizeCacheCapacity = 1
	}
	if c.InputCapacity < 1 {
		c.InputCapacity = 1
	}
	if c.OutputCapacity < 1 {
		c.OutputCapacity = 1
	}
	return c
}
