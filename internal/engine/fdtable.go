package engine

// fdTable is a per-worker freelist of descriptor slot indices. It is
// touched only by the worker's own driver goroutine, so it needs no
// locking — the same "per-worker, no cross-thread contention" property
// the design gives the fd slot table generally.
type fdTable struct {
	free []int32
}

func newFDTable(slots int) *fdTable {
	free := make([]int32, slots)
	for i := range free {
		free[i] = int32(i)
	}
	return &fdTable{free: free}
}

// acquire returns a free slot index, or ok=false if every slot is
// currently in use.
func (t *fdTable) acquire() (slot int32, ok bool) {
	n := len(t.free)
	if n == 0 {
		return 0, false
	}
	slot = t.free[n-1]
	t.free = t.free[:n-1]
	return slot, true
}

// release returns slot to the freelist.
func (t *fdTable) release(slot int32) {
	t.free = append(t.free, slot)
}
