package pool

import (
	"math/rand/v2"
	"sync/atomic"
)

// WorkStealer is the primitive a worker's own loop is built on. It does not
// implement a loop itself — it is a toolkit that a caller-defined loop (the
// engine's per-ring driver, or Pool's own generic handler loop in pool.go) calls
// into to find the next task and to park when there is none. This mirrors
// original_source/crates/lsio_threadpool/src/worker.rs's WorkStealer, which
// is deliberately the same kind of bare toolkit rather than a loop.
type WorkStealer[T any] struct {
	stop *atomic.Bool

	injector *Injector[T]
	local    *localDeque[T]
	stealers []Stealer[T]

	parkMgr *parkManager
	wakeCh  chan struct{}
}

// newWorkStealer constructs a WorkStealer bound to one worker's local
// deque and given the stealers of its peers. Both callers (NewGroup and
// pool.New) leave the worker's own deque out of stealers, since popFront
// already covers it.
func newWorkStealer[T any](stop *atomic.Bool, injector *Injector[T], local *localDeque[T], stealers []Stealer[T], parkMgr *parkManager) *WorkStealer[T] {
	return &WorkStealer[T]{
		stop:     stop,
		injector: injector,
		local:    local,
		stealers: stealers,
		parkMgr:  parkMgr,
		wakeCh:   make(chan struct{}, 1),
	}
}

// StopRequested reports whether the pool has asked workers to drain and
// exit.
func (ws *WorkStealer[T]) StopRequested() bool {
	return ws.stop.Load()
}

// PushLocal adds a task to this worker's own local deque and, if that
// leaves more than one task locally available, asks the park manager to
// wake a peer to help drain it.
func (ws *WorkStealer[T]) PushLocal(task T) {
	ws.local.pushFront(task)
	if ws.local.len() > 1 {
		ws.AskToWakeOtherThreads()
	}
}

// AskToWakeOtherThreads wakes up to as many parked peers as this worker
// currently has queued locally, mirroring ask_to_wake_other_threads in the
// Rust original.
func (ws *WorkStealer[T]) AskToWakeOtherThreads() {
	n := ws.local.len()
	if n > 1 {
		ws.parkMgr.wakeAtMostN(n)
	}
}

// WakeAllParkedPeers asks the park manager to wake every worker currently
// parked, including this one if it is ever parked concurrently with the
// call. Used when a cross-worker gate other than the injector/local-deque
// pair — e.g. the engine's group barrier reopening for the next group —
// may have just unblocked work a peer is parked on, since that peer has
// no other way to be notified.
func (ws *WorkStealer[T]) WakeAllParkedPeers() {
	ws.parkMgr.wakeAtMostN(len(ws.stealers) + 1)
}

// FindTask looks for the next task to run: first the local deque, then the
// global injector, then a randomized sweep of every peer's deque. It
// returns false if nothing was found anywhere.
func (ws *WorkStealer[T]) FindTask() (task T, ok bool) {
	if task, ok = ws.local.popFront(); ok {
		return task, true
	}
	if task, ok = ws.injector.Pop(); ok {
		return task, true
	}
	if len(ws.stealers) == 0 {
		return task, false
	}
	// A random starting point avoids every idle worker hammering the same
	// peer first.
	start := rand.IntN(len(ws.stealers))
	for i := 0; i < len(ws.stealers); i++ {
		s := ws.stealers[(start+i)%len(ws.stealers)]
		if task, ok = s.Steal(); ok {
			return task, true
		}
	}
	return task, false
}

// Park registers this worker as idle and blocks until woken by a peer's
// AskToWakeOtherThreads, the pool's shutdown path, or the supplied done
// channel closing.
func (ws *WorkStealer[T]) Park(done <-chan struct{}) {
	ws.parkMgr.notifyParked(ws.wakeCh)
	select {
	case <-ws.wakeCh:
	case <-done:
	}
}

// Wake unblocks a single pending Park call, even outside the park
// manager's own bookkeeping — used by the pool's shutdown path to make
// sure every worker observes StopRequested promptly instead of waiting
// for the next organic wake.
func (ws *WorkStealer[T]) Wake() {
	select {
	case ws.wakeCh <- struct{}{}:
	default:
	}
}
