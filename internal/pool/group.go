package pool

import "sync/atomic"

// Group builds the injector/local-deque/stealer wiring for n workers
// without imposing a loop on them — the caller drives each WorkStealer
// itself. internal/engine uses this directly: its driver loop needs to
// interleave FindTask with io_uring submission and completion reaping, not
// just "pop a task, run it".
type Group[T any] struct {
	stop     atomic.Bool
	injector *Injector[T]
	parkMgr  *parkManager
	Stealers []*WorkStealer[T]
}

// NewGroup constructs a Group of n WorkStealers sharing one injector and
// park manager. n must be at least 1. inputCapacity bounds the shared
// injector (0 or less for unbounded); Submit blocks while it is full.
func NewGroup[T any](n, inputCapacity int) *Group[T] {
	if n < 1 {
		n = 1
	}

	g := &Group[T]{
		injector: NewInjector[T](inputCapacity),
		parkMgr:  newParkManager(),
	}

	locals := make([]*localDeque[T], n)
	for i := range locals {
		locals[i] = newLocalDeque[T]()
	}
	allStealers := make([]Stealer[T], n)
	for i, l := range locals {
		allStealers[i] = Stealer[T]{deque: l}
	}

	g.Stealers = make([]*WorkStealer[T], n)
	for i := 0; i < n; i++ {
		peers := make([]Stealer[T], 0, n-1)
		for j, s := range allStealers {
			if j != i {
				peers = append(peers, s)
			}
		}
		g.Stealers[i] = newWorkStealer(&g.stop, g.injector, locals[i], peers, g.parkMgr)
	}

	return g
}

// Submit pushes a task onto the shared injector, for any idle worker to
// pick up, blocking while the injector is at capacity, and wakes one
// parked worker once the task is enqueued. It reports false if the group
// was stopped (via RequestStop) before task could be enqueued.
func (g *Group[T]) Submit(task T) bool {
	if !g.injector.Push(task) {
		return false
	}
	g.parkMgr.wakeAtMostN(1)
	return true
}

// RequestStop flips the shared stop flag every WorkStealer's
// StopRequested() observes, closes the shared injector so any Submit
// blocked on a full queue returns false instead of waiting for room that
// will never come, and wakes every worker that's currently parked so
// each one notices promptly instead of waiting for its next organic
// wake.
func (g *Group[T]) RequestStop() {
	g.stop.Store(true)
	g.injector.Close()
	for _, ws := range g.Stealers {
		ws.Wake()
	}
}

// Close stops the shared park manager goroutine. Callers must ensure every
// worker goroutine built on this Group has already exited (e.g. by waiting
// on their own sync.WaitGroup) before calling Close.
func (g *Group[T]) Close() {
	g.parkMgr.stop()
}
