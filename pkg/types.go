// Package pkg is zephyr's public surface: a completion-queue engine for
// fetching byte ranges out of local files at the rate an NVMe device can
// sustain. Submit batches of Operations, read Chunks off Completions,
// and Close when done.
package pkg

import "zephyr/internal/engine"

// ByteRange is a half-open interval into a file. Non-negative values are
// offsets from the start of the file; negative values are offsets from
// the end of the file, so ByteRange{Start: -500, End: -1} means "the 499
// bytes ending one byte before EOF".
type ByteRange = engine.ByteRange

// OpKind identifies what an Operation asks the engine to do.
type OpKind = engine.OpKind

// OpGet is presently the only supported Operation kind.
const OpGet = engine.OpGet

// Operation is a single byte-range read request. ID is caller-assigned
// and returned unchanged on the resulting Chunk. GroupID must be
// non-decreasing across every Operation a caller submits — see the
// package doc on Engine.Submit for the ordering guarantee this buys.
type Operation = engine.Operation

// Chunk is the engine's sole output currency: exactly one is emitted per
// submitted Operation, carrying either a populated View or a non-nil
// Err, never both.
type Chunk = engine.Chunk
