//go:build linux

package ring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRing builds a Ring around a plain heap-allocated SQE array
// instead of a real io_uring mmap, so Prep*/flushSQ/nextSQE field-packing
// logic can be exercised without the io_uring_setup syscall (which this
// test environment may not have permission, or a new enough kernel, to
// make).
func newTestRing(t *testing.T, depth uint32) *Ring {
	t.Helper()
	sqes := make([]byte, int(depth)*int(sqeSize))
	sqArray := make([]byte, int(depth)*4)

	var head, tail, flags uint32
	r := &Ring{
		sqesMmap: sqes,
		sqesBase: unsafe.Pointer(&sqes[0]),
		sqArray:  unsafe.Pointer(&sqArray[0]),
		sqHead:   &head,
		sqTail:   &tail,
		sqFlags:  &flags,
		sqMask:   depth - 1,
		sqSize:   depth,
	}
	return r
}

// prepReadBuf is a package-level variable so its address stays fixed: a
// buffer local to the test could live on the goroutine stack, which moves
// when the stack grows, leaving the address PrepRead recorded stale.
var prepReadBuf = make([]byte, 128)

func TestPrepReadPacksFields(t *testing.T) {
	r := newTestRing(t, 8)
	buf := prepReadBuf

	require.NoError(t, r.PrepRead(3, buf, 4096, 0xABCD, 0))

	s := r.sqeAt(0)
	assert.Equal(t, uint8(OpRead), s.Opcode)
	assert.EqualValues(t, 3, s.Fd)
	assert.EqualValues(t, 128, s.Len)
	assert.EqualValues(t, 4096, s.Off)
	assert.EqualValues(t, 0xABCD, s.UserData)
	assert.Equal(t, uintptr(unsafe.Pointer(&buf[0])), uintptr(s.Addr))
}

func TestPrepOpenAtAndCloseChaining(t *testing.T) {
	r := newTestRing(t, 8)
	path := []byte("/tmp/example\x00")

	require.NoError(t, r.PrepOpenAt(-100, &path[0], 0, 0644, 1, 1, FlagIOLink))
	require.NoError(t, r.PrepRead(0, make([]byte, 16), 0, 2, FlagIOLink|FlagFixedFile))
	require.NoError(t, r.PrepClose(0, 3, 0))

	open := r.sqeAt(0)
	assert.Equal(t, uint8(OpOpenAt), open.Opcode)
	assert.Equal(t, uint8(FlagIOLink|FlagFixedFile), open.Flags)
	assert.EqualValues(t, 1, open.FileIndex)

	read := r.sqeAt(1)
	assert.Equal(t, uint8(OpRead), read.Opcode)
	assert.Equal(t, uint8(FlagIOLink|FlagFixedFile), read.Flags)

	cl := r.sqeAt(2)
	assert.Equal(t, uint8(OpClose), cl.Opcode)
	assert.Equal(t, uint8(0), cl.Flags)

	assert.Equal(t, 3, r.Pending())
}

func TestNextSQERejectsWhenFull(t *testing.T) {
	r := newTestRing(t, 2)
	buf := make([]byte, 1)

	require.NoError(t, r.PrepRead(0, buf, 0, 1, 0))
	require.NoError(t, r.PrepRead(0, buf, 0, 2, 0))
	err := r.PrepRead(0, buf, 0, 3, 0)
	assert.ErrorIs(t, err, ErrSQFull)
}

func TestFlushSQWritesArrayInOrder(t *testing.T) {
	r := newTestRing(t, 4)
	buf := make([]byte, 1)

	require.NoError(t, r.PrepRead(0, buf, 0, 10, 0))
	require.NoError(t, r.PrepRead(0, buf, 0, 11, 0))

	inFlight := r.flushSQ()
	assert.EqualValues(t, 2, inFlight)
	assert.EqualValues(t, 0, *r.sqArrayAt(0))
	assert.EqualValues(t, 1, *r.sqArrayAt(1))
	assert.EqualValues(t, 2, *r.sqTail)
}
