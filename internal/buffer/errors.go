package buffer

import "errors"

// These are the substrate-level errors named in the error design: they are
// surfaced only to the submission layer (internal/engine) and must never
// reach a Chunk outcome. A substrate error observed by the driver indicates
// a bug in the driver's own bookkeeping, not a bad request from a caller,
// and the engine aborts rather than mapping it onto a Chunk.
var (
	// ErrInvalidAlignment is returned by Allocate when align is zero or not
	// a power of two.
	ErrInvalidAlignment = errors.New("buffer: alignment must be a power of two")

	// ErrInvalidLength is returned by Allocate when length is zero.
	ErrInvalidLength = errors.New("buffer: length must be greater than zero")

	// ErrOutOfRange is returned by Split and Narrow when the requested
	// bound falls outside the view being operated on.
	ErrOutOfRange = errors.New("buffer: range out of bounds")

	// ErrNotUnique is returned by Freeze when another view over the same
	// allocation is still alive.
	ErrNotUnique = errors.New("buffer: view is not the sole owner of its allocation")

	// ErrViewConsumed is returned by any operation on a MutView that has
	// already been split, frozen, or released.
	ErrViewConsumed = errors.New("buffer: view has already been split or frozen")

	// ErrViewReleased is returned by any operation on an ImmView that has
	// already been released.
	ErrViewReleased = errors.New("buffer: view has already been released")
)
