package engine

import (
	"log/slog"

	"golang.org/x/sys/unix"

	"zephyr/internal/buffer"
	"zephyr/internal/pool"
	"zephyr/internal/ring"
)

// driver owns exactly one io_uring ring and drives it from a single
// goroutine: no part of this type is safe for concurrent use except
// through the WorkStealer it pulls Operations from, which is safe by
// construction (internal/pool).
type driver struct {
	id  int
	cfg Config
	log *slog.Logger

	r *ring.Ring

	ws *pool.WorkStealer[Operation]

	chains *chainTable
	fds    *fdTable

	barrier *groupBarrier
	sizes   *sizeCache

	out chan<- Chunk

	done chan struct{}
}

func newDriver(id int, cfg Config, ws *pool.WorkStealer[Operation], barrier *groupBarrier, sizes *sizeCache, out chan<- Chunk, log *slog.Logger) (*driver, error) {
	r, err := ring.NewWithCompletionDepth(cfg.SubmissionDepth, cfg.CompletionDepth)
	if err != nil {
		return nil, err
	}
	if err := r.RegisterFixedFiles(cfg.FDSlotsPerWorker); err != nil {
		r.Close()
		return nil, err
	}
	return &driver{
		id:      id,
		cfg:     cfg,
		log:     log,
		r:       r,
		ws:      ws,
		chains:  newChainTable(int(cfg.SubmissionDepth)),
		fds:     newFDTable(cfg.FDSlotsPerWorker),
		barrier: barrier,
		sizes:   sizes,
		out:     out,
		done:    make(chan struct{}),
	}, nil
}

// run is the driver's main loop: fill the ring while there is room,
// input, and barrier permission; block for at least one completion only
// when there is kernel-side work that will actually produce one; reap
// and advance every chain a completion belongs to. When there is nothing
// submitted to the kernel and nothing currently admittable either — the
// injector and every deque are empty, or everything left is blocked on
// the group barrier — it parks on the pool's wake channel instead of
// entering the kernel, since an io_uring_enter wait with nothing ever
// going to complete blocks forever.
//
// Ring.Pending is not the right gate for this: it counts SQEs prepared
// but not yet flushed since the last Submit, which fillSubmissions
// always flushes before returning, so it is 0 on every iteration
// regardless of how much kernel-side work is still outstanding.
// hasOutstandingChains reflects the true kernel lifecycle instead — a
// chain holds its slot from submission until its CLOSE completes.
func (d *driver) run() {
	defer d.r.Close()
	for {
		d.fillSubmissions()

		if d.ws.StopRequested() && !d.hasOutstandingChains() {
			return
		}

		if d.hasOutstandingChains() {
			if err := d.r.Wait(); err != nil {
				d.log.Warn("ring wait failed", "worker", d.id, "err", err)
				continue
			}
			d.reapCompletions()
			continue
		}

		d.ws.Park(d.done)
	}
}

// fillSubmissions builds and pushes as many new chains as the ring,
// the fd-slot table, and the group barrier currently allow, then
// flushes them to the kernel in one io_uring_enter call.
func (d *driver) fillSubmissions() {
	built := 0
	for d.r.Capacity()-d.r.Pending() >= 3 {
		op, ok := d.ws.FindTask()
		if !ok {
			break
		}
		if !d.tryBuildChain(op) {
			break
		}
		built++
	}
	if built > 0 {
		if _, err := d.r.Submit(0); err != nil {
			d.log.Warn("submit failed", "worker", d.id, "err", err)
		}
	}
}

// tryBuildChain attempts to admit op past the group barrier and acquire
// the resources its chain needs. On any failure that is just "try again
// later" (no fd slot, barrier not open yet), it pushes op back onto this
// worker's local deque and returns false so fillSubmissions stops trying
// to submit more work this round — later operations in the deque could
// be from a different, currently-admittable group, but preserving submit
// order here is simpler and the barrier will open again soon regardless.
func (d *driver) tryBuildChain(op Operation) bool {
	fdSlot, ok := d.fds.acquire()
	if !ok {
		d.ws.PushLocal(op)
		return false
	}
	chain := &inFlight{op: op, phase: phaseOpen, fdSlot: fdSlot}
	slot, ok := d.chains.acquire(chain)
	if !ok {
		d.fds.release(fdSlot)
		d.ws.PushLocal(op)
		return false
	}
	if d.ws.StopRequested() {
		d.chains.release(slot)
		d.fds.release(fdSlot)
		d.out <- Chunk{ID: op.ID, GroupID: op.GroupID, Err: &Error{Kind: KindCancelled, Path: op.Path}}
		return true
	}
	if !d.barrier.admit(op.GroupID) {
		d.chains.release(slot)
		d.fds.release(fdSlot)
		d.ws.PushLocal(op)
		return false
	}

	size, err := d.sizes.sizeOf(op.Path)
	if err != nil {
		d.finishWithStatError(chain, slot, err)
		return true
	}
	start, end, err := op.Range.resolve(size)
	if err != nil {
		d.finishWithError(chain, slot, err)
		return true
	}
	chain.start, chain.end = start, end

	align := uint64(1)
	reqStart, reqEnd := start, end
	if d.cfg.DirectIO {
		align = d.cfg.DirectIOAlignment
		reqStart = start &^ (align - 1)
		reqEnd = roundUpLen(end, align)
	}
	chain.roundedLen = reqEnd - reqStart

	view, err := buffer.Allocate(chain.roundedLen, align)
	if err != nil {
		// A substrate error here is an engine bug, not a bad request;
		// abort per the panic policy rather than fabricate a Chunk.
		panic(err)
	}
	chain.view = view
	chain.pathC = appendNulTerminated(op.Path)

	openFlags := uint32(unix.O_RDONLY)
	if d.cfg.DirectIO {
		openFlags |= unix.O_DIRECT
	}

	if err := d.r.PrepOpenAt(unix.AT_FDCWD, &chain.pathC[0], openFlags, 0, fdSlot+1, userData(slot, phaseOpen), ring.FlagIOLink); err != nil {
		// Space was already verified by the caller's Capacity() check;
		// reaching ErrSQFull here would mean that accounting is wrong.
		panic(err)
	}

	buf, err := view.AsMutPtr()
	if err != nil {
		panic(err)
	}
	if err := d.r.PrepRead(fdSlot, buf, reqStart, userData(slot, phaseRead), ring.FlagIOLink|ring.FlagFixedFile); err != nil {
		panic(err)
	}
	if err := d.r.PrepClose(fdSlot, userData(slot, phaseClose), ring.FlagFixedFile); err != nil {
		panic(err)
	}

	// Remember the request-relative offset of the caller's actual byte
	// range within the rounded, alignment-expanded read, so finalization
	// can narrow back down to exactly what was asked for.
	chain.start, chain.end = start-reqStart, end-reqStart
	return true
}

func (d *driver) hasOutstandingChains() bool {
	for _, c := range d.chains.slots {
		if c != nil {
			return true
		}
	}
	return false
}

// reapCompletions drains every completion currently available without
// blocking further, advancing each chain's state machine.
func (d *driver) reapCompletions() {
	for {
		cqe, ok := d.r.PeekCQE()
		if !ok {
			break
		}
		d.r.AdvanceCQ(1)
		d.handleCompletion(cqe)
	}
}

func (d *driver) handleCompletion(c ring.CQE) {
	slot, p := decodeUserData(c.UserData)
	chain := d.chains.lookup(slot)
	if chain == nil || chain.phase != p {
		d.log.Error("completion for unknown or out-of-phase chain", "worker", d.id, "slot", slot)
		return
	}

	switch p {
	case phaseOpen:
		d.onOpenComplete(chain, slot, c.Res)
	case phaseRead:
		d.onReadComplete(chain, slot, c.Res)
	case phaseClose:
		d.onCloseComplete(chain, slot, c.Res)
	}
}

func (d *driver) onOpenComplete(chain *inFlight, slot int32, res int32) {
	if res < 0 {
		kind, code := errnoToKind(res)
		chain.view.Release()
		chain.view = nil
		chain.errored = true
		d.emit(Chunk{ID: chain.op.ID, GroupID: chain.op.GroupID, Err: &Error{Kind: kind, Code: code, Path: chain.op.Path}})
	}
	// Whether OPEN succeeded or failed, the linked READ and CLOSE
	// entries still each produce a completion — on failure the kernel
	// reports them as cancelled without ever issuing the syscall — so
	// the chain stays alive and simply advances its expected phase.
	chain.phase = phaseRead
}

func (d *driver) onReadComplete(chain *inFlight, slot int32, res int32) {
	if chain.errored {
		// READ was cancelled because OPEN already failed; its CQE
		// exists only so this driver observes one completion per
		// phase, per the opaque user-data discipline.
		chain.phase = phaseClose
		return
	}
	if res < 0 {
		kind, code := errnoToKind(res)
		chain.view.Release()
		chain.view = nil
		chain.errored = true
		d.emit(Chunk{ID: chain.op.ID, GroupID: chain.op.GroupID, Err: &Error{Kind: kind, Code: code, Path: chain.op.Path}})
		chain.phase = phaseClose
		return
	}

	// chain.end is the caller's requested end, expressed relative to the
	// rounded read's own start offset (see tryBuildChain); the READ must
	// have returned at least that many bytes to satisfy the request.
	// The range was validated against the file size from sizeCache (a
	// cached or fresh stat) when the chain was built, and this engine
	// never writes, so a short read is surfaced as KindShortRead and not
	// retried.
	if uint64(res) < chain.end {
		chain.view.Release()
		d.emit(Chunk{ID: chain.op.ID, GroupID: chain.op.GroupID, Err: &Error{Kind: KindShortRead, Path: chain.op.Path}})
		chain.phase = phaseClose
		return
	}

	imm, err := chain.view.Freeze()
	if err != nil {
		panic(err)
	}
	narrowed, err := imm.Narrow(chain.start, chain.end)
	if err != nil {
		panic(err)
	}
	if err := imm.Release(); err != nil {
		panic(err)
	}
	d.emit(Chunk{ID: chain.op.ID, GroupID: chain.op.GroupID, View: narrowed})
	chain.phase = phaseClose
}

func (d *driver) onCloseComplete(chain *inFlight, slot int32, res int32) {
	if res < 0 {
		d.log.Debug("close failed", "worker", d.id, "path", chain.op.Path, "res", res)
	}
	d.completeAndWake(chain.op.GroupID)
	d.fds.release(chain.fdSlot)
	d.chains.release(slot)
}

func (d *driver) emit(c Chunk) {
	d.out <- c
}

func (d *driver) finishWithError(chain *inFlight, slot int32, err error) {
	chain.view = nil
	d.emit(Chunk{ID: chain.op.ID, GroupID: chain.op.GroupID, Err: err})
	d.completeAndWake(chain.op.GroupID)
	d.fds.release(chain.fdSlot)
	d.chains.release(slot)
}

// completeAndWake records a chain's completion against the group barrier
// and, since that may be the completion that reopens the barrier for the
// next group, wakes every parked peer so a worker sitting on
// barrier-blocked work gets a chance to recheck admit rather than
// waiting for an unrelated organic wake.
func (d *driver) completeAndWake(groupID uint64) {
	d.barrier.complete(groupID)
	d.ws.WakeAllParkedPeers()
}

func (d *driver) finishWithStatError(chain *inFlight, slot int32, err error) {
	kind := KindIoFailure
	if isNotExist(err) {
		kind = KindNotFound
	} else if isPermission(err) {
		kind = KindPermissionDenied
	}
	d.finishWithError(chain, slot, &Error{Kind: kind, Path: chain.op.Path})
}

func roundUpLen(n, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

func appendNulTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}
