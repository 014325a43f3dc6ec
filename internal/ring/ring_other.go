//go:build !linux

package ring

// Ring is the non-Linux stand-in. io_uring is a Linux-only kernel
// interface; this engine's completion-queue model has no portable
// equivalent, so every constructor here fails rather than silently
// falling back to a different I/O strategy.
type Ring struct{}

func New(depth uint32) (*Ring, error) {
	return nil, ErrUnsupported
}

func NewWithCompletionDepth(depth, completionDepth uint32) (*Ring, error) {
	return nil, ErrUnsupported
}

func (r *Ring) Close() error { return nil }

func (r *Ring) Capacity() int { return 0 }

func (r *Ring) Pending() int { return 0 }

func (r *Ring) PrepOpenAt(dirfd int32, path *byte, openFlags, mode uint32, fileIndex int32, userData uint64, flags SQEFlags) error {
	return ErrUnsupported
}

func (r *Ring) RegisterFixedFiles(n int) error {
	return ErrUnsupported
}

func (r *Ring) PrepRead(fd int32, buf []byte, offset uint64, userData uint64, flags SQEFlags) error {
	return ErrUnsupported
}

func (r *Ring) PrepClose(fd int32, userData uint64, flags SQEFlags) error {
	return ErrUnsupported
}

func (r *Ring) Submit(waitNr uint32) (int, error) {
	return 0, ErrUnsupported
}

func (r *Ring) PeekCQE() (CQE, bool) { return CQE{}, false }

func (r *Ring) AdvanceCQ(n uint32) {}

func (r *Ring) Wait() error { return ErrUnsupported }
