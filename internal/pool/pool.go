// Package pool implements the work-stealing task scheduler: a fixed set of
// workers, each with a local deque, a shared injector for work pushed from
// outside the pool, and random-peer stealing when a worker's own queue runs
// dry. It is modeled on original_source/crates/lsio_threadpool, which
// builds the same structure on crossbeam::deque; Go's standard library and
// the retrieval pack offer no equivalent lock-free deque, so the local
// queues and injector here are mutex-guarded slices (internal/pool/deque.go)
// instead.
//
// Pool is the convenience entry point for simple fire-and-forget work (e.g.
// a downstream compute stage consuming Chunks). The completion-queue engine
// (internal/engine) needs a tighter loop than "run this closure" — it has
// to interleave task-finding with io_uring submission/completion handling —
// so it builds its own driver loop directly on the WorkStealer primitives
// via Group, rather than using Pool.
package pool

import (
	"sync"
	"sync/atomic"
)

// Task is the unit of work a Pool runs.
type Task func()

// Pool is a fixed-size work-stealing pool that runs arbitrary Task values.
type Pool struct {
	stop     atomic.Bool
	injector *Injector[Task]
	parkMgr  *parkManager
	stealers []*WorkStealer[Task]
	wg       sync.WaitGroup
	done     chan struct{}
}

// New starts a Pool with n workers. n must be at least 1.
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}

	p := &Pool{
		injector: NewInjector[Task](0),
		parkMgr:  newParkManager(),
		done:     make(chan struct{}),
	}

	locals := make([]*localDeque[Task], n)
	for i := range locals {
		locals[i] = newLocalDeque[Task]()
	}
	allStealers := make([]Stealer[Task], n)
	for i, l := range locals {
		allStealers[i] = Stealer[Task]{deque: l}
	}

	p.stealers = make([]*WorkStealer[Task], n)
	for i := 0; i < n; i++ {
		peers := make([]Stealer[Task], 0, n-1)
		for j, s := range allStealers {
			if j != i {
				peers = append(peers, s)
			}
		}
		ws := newWorkStealer(&p.stop, p.injector, locals[i], peers, p.parkMgr)
		p.stealers[i] = ws

		p.wg.Add(1)
		go p.runWorker(ws)
	}

	return p
}

func (p *Pool) runWorker(ws *WorkStealer[Task]) {
	defer p.wg.Done()
	for {
		task, ok := ws.FindTask()
		if !ok {
			if ws.StopRequested() {
				return
			}
			ws.Park(p.done)
			continue
		}
		task()
	}
}

// Submit enqueues task on the global injector. Any idle worker may run it.
func (p *Pool) Submit(task Task) {
	p.injector.Push(task)
	p.parkMgr.wakeAtMostN(1)
}

// Close requests a graceful shutdown: every worker finishes the task it is
// currently running (if any), then exits once its own queue, the injector,
// and every peer's queue are drained. Close blocks until all workers have
// exited.
func (p *Pool) Close() {
	p.stop.Store(true)
	close(p.done)
	for _, ws := range p.stealers {
		ws.Wake()
	}
	p.parkMgr.stop()
	p.wg.Wait()
}
