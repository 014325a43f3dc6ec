package pkg

import "io"

// Reader is the contract an Engine satisfies: submit batches of byte-range
// requests, drain Chunks as they complete, and shut down cleanly.
type Reader interface {
	// Submit enqueues a batch of Operations. Operations within a batch,
	// and across successive Submit calls, must carry non-decreasing
	// GroupIDs.
	Submit(batch []Operation) error

	// Completions returns the channel every Chunk is published on,
	// exactly one per submitted Operation.
	Completions() <-chan Chunk

	io.Closer
}
