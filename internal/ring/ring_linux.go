//go:build linux

package ring

import (
	"fmt"
	"sync/atomic"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Ring wraps one io_uring instance: its shared submission and completion
// rings, and the mmap'd SQE array. A Ring is owned by exactly one driver
// goroutine (internal/engine.driver) — it is not safe for concurrent use,
// the same constraint the original places on its per-worker io_uring
// handle.
type Ring struct {
	fd int

	sqMmap   []byte
	cqMmap   []byte
	sqesMmap []byte
	single   bool

	sqHead  *uint32
	sqTail  *uint32
	sqFlags *uint32
	sqMask  uint32
	sqSize  uint32
	sqArray unsafe.Pointer

	cqHead  *uint32
	cqTail  *uint32
	cqMask  uint32
	cqSize  uint32
	cqesPtr unsafe.Pointer

	sqesBase unsafe.Pointer

	sqeTail uint32 // next local slot to fill
	sqeHead uint32 // next local slot already flushed to the kernel array

	sqPollSet bool
}

// New creates a Ring with the given submission queue depth. The
// completion queue is sized to the same depth by the kernel default.
func New(depth uint32) (*Ring, error) {
	return NewWithCompletionDepth(depth, 0)
}

// NewWithCompletionDepth creates a Ring whose completion queue is sized
// independently of its submission queue via IORING_SETUP_CQSIZE.
// completionDepth of 0 falls back to the kernel's default (equal to
// depth).
func NewWithCompletionDepth(depth, completionDepth uint32) (*Ring, error) {
	var params ringParams
	if completionDepth > 0 {
		params.Flags |= setupCQSize
		params.CqEntries = completionDepth
	}
	fd, _, errno := syscall.Syscall(sysIOUringSetup, uintptr(depth), uintptr(unsafe.Pointer(&params)), 0)
	if errno != 0 {
		return nil, fmt.Errorf("ring: io_uring_setup: %w", errno)
	}

	r := &Ring{fd: int(fd)}
	if err := r.mapRings(&params); err != nil {
		unix.Close(r.fd)
		return nil, err
	}
	return r, nil
}

func (r *Ring) mapRings(p *ringParams) error {
	sqSz := int(p.SqOff.Array + p.SqEntries*4)
	cqSz := int(p.CqOff.Cqes + p.CqEntries*uint32(cqeSize))

	r.single = p.Features&setupFeatSingleMmap != 0
	if r.single && cqSz > sqSz {
		sqSz = cqSz
	}

	var err error
	r.sqMmap, err = unix.Mmap(r.fd, offSQRing, sqSz, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return fmt.Errorf("ring: mmap sq ring: %w", err)
	}

	if r.single {
		r.cqMmap = r.sqMmap
	} else {
		r.cqMmap, err = unix.Mmap(r.fd, offCQRing, cqSz, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
		if err != nil {
			unix.Munmap(r.sqMmap)
			return fmt.Errorf("ring: mmap cq ring: %w", err)
		}
	}

	sqesSz := int(p.SqEntries) * int(sqeSize)
	r.sqesMmap, err = unix.Mmap(r.fd, offSQEs, sqesSz, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		unix.Munmap(r.sqMmap)
		if !r.single {
			unix.Munmap(r.cqMmap)
		}
		return fmt.Errorf("ring: mmap sqes: %w", err)
	}
	r.sqesBase = unsafe.Pointer(&r.sqesMmap[0])

	sqBase := unsafe.Pointer(&r.sqMmap[0])
	r.sqHead = (*uint32)(unsafe.Add(sqBase, p.SqOff.Head))
	r.sqTail = (*uint32)(unsafe.Add(sqBase, p.SqOff.Tail))
	r.sqFlags = (*uint32)(unsafe.Add(sqBase, p.SqOff.Flags))
	r.sqMask = *(*uint32)(unsafe.Add(sqBase, p.SqOff.RingMask))
	r.sqSize = *(*uint32)(unsafe.Add(sqBase, p.SqOff.RingEntries))
	r.sqArray = unsafe.Add(sqBase, p.SqOff.Array)

	cqBase := unsafe.Pointer(&r.cqMmap[0])
	r.cqHead = (*uint32)(unsafe.Add(cqBase, p.CqOff.Head))
	r.cqTail = (*uint32)(unsafe.Add(cqBase, p.CqOff.Tail))
	r.cqMask = *(*uint32)(unsafe.Add(cqBase, p.CqOff.RingMask))
	r.cqSize = *(*uint32)(unsafe.Add(cqBase, p.CqOff.RingEntries))
	r.cqesPtr = unsafe.Add(cqBase, p.CqOff.Cqes)

	return nil
}

// Close tears down the ring's mappings and file descriptor. The caller
// must ensure every chain submitted on this ring has already completed.
func (r *Ring) Close() error {
	var err error
	if e := unix.Munmap(r.sqesMmap); e != nil {
		err = e
	}
	if e := unix.Munmap(r.sqMmap); e != nil && err == nil {
		err = e
	}
	if !r.single {
		if e := unix.Munmap(r.cqMmap); e != nil && err == nil {
			err = e
		}
	}
	if e := unix.Close(r.fd); e != nil && err == nil {
		err = e
	}
	return err
}

func (r *Ring) sqeAt(idx uint32) *sqe {
	return (*sqe)(unsafe.Add(r.sqesBase, uintptr(idx)*sqeSize))
}

func (r *Ring) cqeAt(idx uint32) *cqe {
	return (*cqe)(unsafe.Add(r.cqesPtr, uintptr(idx)*cqeSize))
}

func (r *Ring) sqArrayAt(idx uint32) *uint32 {
	return (*uint32)(unsafe.Add(r.sqArray, uintptr(idx)*4))
}

// nextSQE claims the next free SQE slot, or returns ErrSQFull if the ring
// is at its submission depth.
func (r *Ring) nextSQE() (*sqe, error) {
	head := atomic.LoadUint32(r.sqHead)
	if r.sqeTail+1-head > r.sqSize {
		return nil, ErrSQFull
	}
	s := r.sqeAt(r.sqeTail & r.sqMask)
	*s = sqe{}
	r.sqeTail++
	return s, nil
}

// Capacity reports the ring's submission queue depth.
func (r *Ring) Capacity() int {
	return int(r.sqSize)
}

// Pending reports how many SQEs have been prepared (via Prep*) since the
// last Submit but not yet handed to the kernel.
func (r *Ring) Pending() int {
	return int(r.sqeTail - r.sqeHead)
}

// PrepOpenAt queues an OPENAT against dirfd (use unix.AT_FDCWD for a plain
// path), tagging the entry with userData so the matching CQE can be
// routed back to the caller's bookkeeping. When fileIndex is non-zero,
// the entry also carries FlagFixedFile and the kernel installs the
// resulting descriptor directly into the ring's fixed-file table at
// fileIndex-1 instead of returning a process fd. flags controls whether
// this entry is chained to the one prepared immediately after it.
func (r *Ring) PrepOpenAt(dirfd int32, path *byte, openFlags, mode uint32, fileIndex int32, userData uint64, flags SQEFlags) error {
	s, err := r.nextSQE()
	if err != nil {
		return err
	}
	s.Opcode = uint8(OpOpenAt)
	if fileIndex != 0 {
		flags |= FlagFixedFile
	}
	s.Flags = uint8(flags)
	s.Fd = dirfd
	s.Addr = uint64(uintptr(unsafe.Pointer(path)))
	s.Len = mode
	s.OpFlags = openFlags
	s.FileIndex = fileIndex
	s.UserData = userData
	return nil
}

// RegisterFixedFiles installs a sparse fixed-file table of the given size
// on the ring via IORING_REGISTER_FILES, every slot initially empty (-1).
// OPENAT entries may then target a slot directly via their fileIndex
// argument, and subsequent READ/CLOSE entries reference that slot with
// FlagFixedFile instead of a real fd.
func (r *Ring) RegisterFixedFiles(n int) error {
	fds := make([]int32, n)
	for i := range fds {
		fds[i] = -1
	}
	_, _, errno := syscall.Syscall6(sysIOUringRegister, uintptr(r.fd), uintptr(registerFilesOp),
		uintptr(unsafe.Pointer(&fds[0])), uintptr(n), 0, 0)
	if errno != 0 {
		return fmt.Errorf("ring: io_uring_register(FILES): %w", errno)
	}
	return nil
}

// PrepRead queues a READ of len(buf) bytes from fd at offset into buf.
// fd is interpreted as a fixed-file table index (see RegisterFixedFiles)
// rather than a process fd when flags carries FlagFixedFile.
func (r *Ring) PrepRead(fd int32, buf []byte, offset uint64, userData uint64, flags SQEFlags) error {
	s, err := r.nextSQE()
	if err != nil {
		return err
	}
	s.Opcode = uint8(OpRead)
	s.Flags = uint8(flags)
	s.Fd = fd
	if len(buf) > 0 {
		s.Addr = uint64(uintptr(unsafe.Pointer(&buf[0])))
	}
	s.Len = uint32(len(buf))
	s.Off = offset
	s.UserData = userData
	return nil
}

// PrepClose queues a CLOSE of fd.
func (r *Ring) PrepClose(fd int32, userData uint64, flags SQEFlags) error {
	s, err := r.nextSQE()
	if err != nil {
		return err
	}
	s.Opcode = uint8(OpClose)
	s.Flags = uint8(flags)
	s.Fd = fd
	s.UserData = userData
	return nil
}

// flushSQ copies every prepared-but-unflushed SQE index into the
// kernel-visible SQ array and advances the shared tail.
func (r *Ring) flushSQ() uint32 {
	tail := *r.sqTail
	n := r.sqeTail - r.sqeHead
	for ; n > 0; n-- {
		*r.sqArrayAt(tail & r.sqMask) = r.sqeHead & r.sqMask
		tail++
		r.sqeHead++
	}
	atomic.StoreUint32(r.sqTail, tail)
	return tail - atomic.LoadUint32(r.sqHead)
}

// Submit flushes every prepared SQE to the kernel and blocks until at
// least waitNr completions are available (0 to submit without waiting).
// It returns the number of entries the kernel accepted.
func (r *Ring) Submit(waitNr uint32) (int, error) {
	submitted := r.flushSQ()
	if submitted == 0 && waitNr == 0 {
		return 0, nil
	}
	var flags uint32
	if waitNr > 0 {
		flags |= enterGetEvents
	}
	for {
		ret, _, errno := syscall.Syscall6(sysIOUringEnter, uintptr(r.fd), uintptr(submitted), uintptr(waitNr), uintptr(flags), 0, 0)
		if errno == syscall.EINTR {
			continue
		}
		if errno != 0 {
			return int(ret), fmt.Errorf("ring: io_uring_enter: %w", errno)
		}
		return int(ret), nil
	}
}

// PeekCQE returns the oldest unreaped completion without consuming it, or
// ok=false if none is available.
func (r *Ring) PeekCQE() (c CQE, ok bool) {
	head := atomic.LoadUint32(r.cqHead)
	tail := atomic.LoadUint32(r.cqTail)
	if head == tail {
		return CQE{}, false
	}
	raw := r.cqeAt(head & r.cqMask)
	return CQE{UserData: raw.UserData, Res: raw.Res, Flags: raw.Flags}, true
}

// AdvanceCQ marks the oldest n completions as consumed, freeing their
// slots in the completion ring.
func (r *Ring) AdvanceCQ(n uint32) {
	atomic.StoreUint32(r.cqHead, atomic.LoadUint32(r.cqHead)+n)
}

// Wait blocks until at least one completion is available, entering the
// kernel as many times as needed to ride out EINTR.
func (r *Ring) Wait() error {
	for {
		head := atomic.LoadUint32(r.cqHead)
		tail := atomic.LoadUint32(r.cqTail)
		if head != tail {
			return nil
		}
		_, _, errno := syscall.Syscall6(sysIOUringEnter, uintptr(r.fd), 0, 1, uintptr(enterGetEvents), 0, 0)
		if errno == syscall.EINTR {
			continue
		}
		if errno != 0 {
			return fmt.Errorf("ring: io_uring_enter (wait): %w", errno)
		}
	}
}
