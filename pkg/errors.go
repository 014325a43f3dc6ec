package pkg

import "zephyr/internal/engine"

// Kind is the closed set of error categories a Chunk's Err can carry.
// Consumers are expected to switch on Kind rather than match error
// strings.
type Kind = engine.Kind

const (
	KindNotFound           = engine.KindNotFound
	KindPermissionDenied   = engine.KindPermissionDenied
	KindRangeOutOfBounds   = engine.KindRangeOutOfBounds
	KindAlignmentViolation = engine.KindAlignmentViolation
	KindShortRead          = engine.KindShortRead
	KindIoFailure          = engine.KindIoFailure
	KindCancelled          = engine.KindCancelled
)

// Error is the type every Chunk.Err is, when non-nil. Code carries the
// raw errno whenever the error came from a failed OPEN or READ completion,
// whatever its Kind; it is zero for errors the engine detects itself (a
// failed stat, an out-of-bounds range, a short read, a cancellation).
type Error = engine.Error
