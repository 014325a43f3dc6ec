package buffer

import "zephyr/internal/arch"

// MutView is an exclusive, non-overlapping write-capable view over [lo, hi)
// of some allocation. For any two live MutViews over the same allocation,
// their ranges are disjoint — a property this package guarantees
// structurally: the only way to obtain a MutView is Allocate or Split, and
// Split consumes its receiver, so no two live MutViews can ever trace back
// to an overlapping range.
type MutView struct {
	alloc *allocation
	lo, hi uint64

	// consumed is set once this view has been split, frozen, or released.
	// Any further operation on it returns ErrViewConsumed.
	consumed arch.AtomicUint
}

// Len reports the number of bytes this view covers.
func (v *MutView) Len() uint64 {
	return v.hi - v.lo
}

// Split divides v at p, where lo <= p <= hi, into two MutViews covering
// [lo, p) and [p, hi) of the same allocation. v is consumed; using v after
// Split returns ErrViewConsumed. Split does not require p to be aligned —
// alignment is a property of the backing allocation, not of each sub-view.
func (v *MutView) Split(p uint64) (left, right *MutView, err error) {
	if err := v.checkLive(); err != nil {
		return nil, nil, err
	}
	if p < v.lo || p > v.hi {
		return nil, nil, ErrOutOfRange
	}
	v.consumed.Store(1)
	v.alloc.liveViews.Add(arch.UintToArchSize(1))

	left = &MutView{alloc: v.alloc, lo: v.lo, hi: p}
	right = &MutView{alloc: v.alloc, lo: p, hi: v.hi}
	return left, right, nil
}

// Freeze consumes v and returns a read-only ImmView, but only if v is the
// sole live view (mutable or immutable) over its allocation; otherwise it
// returns ErrNotUnique and leaves v usable. The returned ImmView always
// covers the whole allocation ([0, length)), not merely v's own range — a
// MutView that was narrowed by prior splits still yields a full-width
// ImmView once it's the last one standing.
func (v *MutView) Freeze() (*ImmView, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	if v.alloc.liveViews.Load() != 1 {
		return nil, ErrNotUnique
	}
	v.consumed.Store(1)
	return &ImmView{alloc: v.alloc, lo: 0, hi: v.alloc.length}, nil
}

// AsMutPtr exposes the view's range for direct writes, e.g. as the
// destination buffer of a read syscall. The returned slice is exactly
// v.Len() bytes and is safe to write concurrently with any other live
// MutView over the same allocation, because their ranges never overlap.
func (v *MutView) AsMutPtr() ([]byte, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	return v.alloc.data[v.lo:v.hi:v.hi], nil
}

// Release abandons v without freezing or splitting it, e.g. on an error
// path where the view's contents are no longer needed. Using v after
// Release returns ErrViewConsumed.
func (v *MutView) Release() error {
	if err := v.checkLive(); err != nil {
		return err
	}
	v.consumed.Store(1)
	v.alloc.release()
	return nil
}

func (v *MutView) checkLive() error {
	if v.consumed.Load() != 0 {
		return ErrViewConsumed
	}
	return nil
}
