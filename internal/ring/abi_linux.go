//go:build linux

package ring

import "unsafe"

// io_uring(2) syscall numbers; stable across every architecture Go
// supports for amd64/arm64, the two this engine targets.
const (
	sysIOUringSetup    = 425
	sysIOUringEnter    = 426
	sysIOUringRegister = 427
)

const (
	setupFeatSingleMmap = 1 << 0

	// setupCQSize is IORING_SETUP_CQSIZE: honor ringParams.CqEntries as an
	// explicit completion-queue depth instead of letting the kernel size
	// it off the submission depth.
	setupCQSize = 1 << 3

	enterGetEvents = 1 << 0
	enterSQWakeup  = 1 << 1

	sqNeedWakeup = 1 << 0

	offSQRing = 0x00000000
	offCQRing = 0x08000000
	offSQEs   = 0x10000000

	// registerFilesOp is IORING_REGISTER_FILES: install a fixed-file table
	// of the given size on the ring, usable by OPENAT's FileIndex and by
	// FlagFixedFile-tagged READ/CLOSE entries.
	registerFilesOp = 2
)

// sqe is the 64-byte submission queue entry, laid out exactly as the
// kernel expects. Several fields are unions in the C header; Go has no
// unions, so each is named for the one use this package makes of it.
type sqe struct {
	Opcode   uint8
	Flags    uint8
	IoPrio   uint16
	Fd       int32
	Off      uint64 // off (READ) / nothing (OPENAT, CLOSE)
	Addr     uint64 // addr: path pointer (OPENAT) / buffer pointer (READ)
	Len      uint32 // len: byte count (READ) / mode (OPENAT)
	OpFlags  uint32 // rw_flags (READ) / open_flags (OPENAT)
	UserData uint64
	BufIndex uint16
	_        uint16
	// FileIndex is the union slot the kernel calls splice_fd_in / file_index.
	// Set on an OPENAT entry (with FlagFixedFile) to have the kernel install
	// the resulting descriptor directly into the fixed-file table at
	// FileIndex-1, instead of returning a process-wide fd. Unused otherwise.
	FileIndex int32
	_         uint64
	_         uint64
}

// cqe is the 16-byte completion queue entry.
type cqe struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

type sqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

type cqRingOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

type ringParams struct {
	SqEntries    uint32
	CqEntries    uint32
	Flags        uint32
	SqThreadCPU  uint32
	SqThreadIdle uint32
	Features     uint32
	WqFd         uint32
	Resv         [3]uint32
	SqOff        sqRingOffsets
	CqOff        cqRingOffsets
}

var sqeSize = unsafe.Sizeof(sqe{})
var cqeSize = unsafe.Sizeof(cqe{})
