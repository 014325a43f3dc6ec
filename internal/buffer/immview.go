package buffer

import "zephyr/internal/arch"

// ImmView is a read-only, cheap-to-clone view over some subrange of an
// allocation. Clones may overlap; while any ImmView over an allocation
// exists, no MutView over that allocation exists (the allocation reached
// the Imm state by freezing its last MutView, and there is no operation
// that turns an ImmView back into a MutView).
type ImmView struct {
	alloc  *allocation
	lo, hi uint64

	released arch.AtomicUint
}

// Len reports the number of bytes this view covers.
func (v *ImmView) Len() uint64 {
	return v.hi - v.lo
}

// Clone increments the shared reference count and returns a new ImmView
// over the same range. It never touches the allocation's backing bytes.
func (v *ImmView) Clone() (*ImmView, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	v.alloc.liveViews.Add(arch.UintToArchSize(1))
	return &ImmView{alloc: v.alloc, lo: v.lo, hi: v.hi}, nil
}

// Narrow returns a new ImmView restricted to [lo, hi), which must fall
// within v's own current range. Unlike Clone, the range changes; unlike
// Split, v itself remains valid and must still be released independently.
func (v *ImmView) Narrow(lo, hi uint64) (*ImmView, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	if lo > hi || lo < v.lo || hi > v.hi {
		return nil, ErrOutOfRange
	}
	v.alloc.liveViews.Add(arch.UintToArchSize(1))
	return &ImmView{alloc: v.alloc, lo: lo, hi: hi}, nil
}

// AsSlice exposes the view's range for reads. The returned slice is shared:
// other clones or narrowed views of the same allocation may read the same
// bytes concurrently, and that is safe because no MutView can coexist with
// an ImmView.
func (v *ImmView) AsSlice() ([]byte, error) {
	if err := v.checkLive(); err != nil {
		return nil, err
	}
	return v.alloc.data[v.lo:v.hi:v.hi], nil
}

// Release decrements the shared reference count. When the last live view
// (mutable or immutable) over an allocation is released, the allocation's
// backing memory is unmapped.
func (v *ImmView) Release() error {
	if !v.released.CompareAndSwap(0, 1) {
		return ErrViewReleased
	}
	v.alloc.release()
	return nil
}

func (v *ImmView) checkLive() error {
	if v.released.Load() != 0 {
		return ErrViewReleased
	}
	return nil
}
