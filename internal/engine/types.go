// Package engine is the completion-queue I/O engine: it consumes batches of
// byte-range read requests and drives them through per-worker io_uring
// rings (internal/ring), chaining open→read→close for each request and
// surfacing results as Chunks on a shared output channel. internal/pool
// supplies the work-stealing primitives each driver loop is built on;
// internal/buffer supplies the aligned destination views reads land in.
package engine

import "zephyr/internal/buffer"

// ByteRange is a half-open interval into a file. Start and End are
// interpreted as offsets from the beginning of the file when
// non-negative, and as offsets from the end of the file (i.e. file size +
// the value) when negative — so End: -1 means "up to, but excluding, the
// last byte" and Start: -500 means "500 bytes before EOF".
type ByteRange struct {
	Start int64
	End   int64
}

// resolve converts r into an absolute, non-negative [start, end) pair
// given the file's size, validating that the result is well-formed and
// within bounds.
func (r ByteRange) resolve(size int64) (start, end uint64, err error) {
	s, e := r.Start, r.End
	if s < 0 {
		s += size
	}
	if e < 0 {
		e += size
	}
	if s < 0 || e < 0 || s > e || e > size {
		return 0, 0, &Error{Kind: KindRangeOutOfBounds}
	}
	return uint64(s), uint64(e), nil
}

// OpKind identifies what an Operation asks the engine to do. Get is
// presently the only kind; the type exists so the wire-level Operation
// struct has somewhere to grow without changing its shape.
type OpKind uint8

const (
	OpGet OpKind = iota
)

// Operation is a single byte-range read request. ID is an opaque value
// the producer attaches and gets back unchanged on the resulting Chunk;
// GroupID must be non-decreasing across the sequence of Operations a
// producer submits — the engine enforces that completions of group g are
// all emitted before any completion of group g+1.
type Operation struct {
	ID      uint64
	GroupID uint64
	Kind    OpKind
	Path    string
	Range   ByteRange
}

// Chunk is the engine's sole output currency: exactly one is emitted per
// submitted Operation, carrying either a populated View or a non-nil Err
// (never both).
type Chunk struct {
	ID      uint64
	GroupID uint64
	View    *buffer.ImmView
	Err     error
}
