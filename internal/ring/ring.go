// Package ring is a minimal io_uring submission/completion wrapper: enough
// of the kernel ABI to prepare OPENAT, READ, and CLOSE submission queue
// entries, link them into a chain, push them into the kernel, and reap
// completions by user-data. It follows the same raw-syscall approach as
// other_examples/Meesho-BharatMLStack's iouring.go — no cgo, no external
// io_uring library, just golang.org/x/sys/unix for Mmap/Munmap and
// syscall.Syscall6 for the three io_uring(2) syscalls.
//
// internal/engine owns the policy (fd slot tables, group barriers);
// this package only owns the mechanism of talking to one ring.
package ring

import "errors"

// ErrSQFull is returned by the Ring.Prep* methods when the submission
// queue has no free slot. Callers should stop preparing new chains and call Submit to
// drain what is already queued before asking for more.
var ErrSQFull = errors.New("ring: submission queue full")

// ErrUnsupported is returned by New on platforms without io_uring support.
var ErrUnsupported = errors.New("ring: io_uring is only supported on linux")

// Opcode identifies which io_uring operation a submission queue entry
// performs. Values match the kernel's IORING_OP_* enum exactly; besides
// OpNop, only the three this engine chains are named here.
type Opcode uint8

const (
	OpNop    Opcode = 0
	OpClose  Opcode = 19
	OpRead   Opcode = 22
	OpOpenAt Opcode = 18
)

// SQEFlags are the per-entry IOSQE_* bits.
type SQEFlags uint8

const (
	// FlagIOLink chains this entry to the next: the kernel will not start
	// the next entry until this one completes, and will fail the next
	// entry with ECANCELED if this one failed.
	FlagIOLink SQEFlags = 1 << 2

	// FlagFixedFile marks Fd as an index into the ring's registered
	// fixed-file table rather than a process-wide file descriptor.
	FlagFixedFile SQEFlags = 1 << 0
)

// CQE is a decoded completion: the user-data this engine attached to the
// matching submission, the syscall result (negative errno on failure,
// non-negative byte count / fd / 0 on success), and kernel completion
// flags (unused by this engine beyond passthrough).
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}
