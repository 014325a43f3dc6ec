package pool

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPoolDrainsAllTasks is adapted from
// original_source/crates/lsio_threadpool/src/worker.rs's test_work_stealer:
// spawn N workers, push N*10 tasks onto the injector, and confirm every
// task runs exactly once, across however many workers happened to run it.
func TestPoolDrainsAllTasks(t *testing.T) {
	const (
		nWorkers = 4
		nTasks   = nWorkers * 10
	)

	p := New(nWorkers)
	defer p.Close()

	var mu sync.Mutex
	var seen []int

	var wg sync.WaitGroup
	wg.Add(nTasks)
	for i := 0; i < nTasks; i++ {
		i := i
		p.Submit(func() {
			mu.Lock()
			seen = append(seen, i)
			mu.Unlock()
			wg.Done()
		})
	}

	waitWithTimeout(t, &wg, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, nTasks)
	sort.Ints(seen)
	for i, v := range seen {
		assert.Equal(t, i, v)
	}
}

func TestPoolRunsBlockingTasks(t *testing.T) {
	// Submits two tasks that each block until released, releases them
	// after a short pause, and checks that both complete. Pool.Submit only
	// pushes onto the injector, so this does not exercise stealing from a
	// peer's local deque.
	const nWorkers = 2
	p := New(nWorkers)
	defer p.Close()

	release := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		p.Submit(func() {
			<-release
			wg.Done()
		})
	}
	// Give both workers a chance to pick up a task before releasing them;
	// this is inherently a bit timing-sensitive but generous enough not to
	// flake on a loaded CI box.
	time.Sleep(20 * time.Millisecond)
	close(release)
	waitWithTimeout(t, &wg, 5*time.Second)
}

func TestPoolCloseDrainsBeforeExit(t *testing.T) {
	p := New(2)

	var n int32
	var mu sync.Mutex
	const total = 50
	var wg sync.WaitGroup
	wg.Add(total)
	for i := 0; i < total; i++ {
		p.Submit(func() {
			mu.Lock()
			n++
			mu.Unlock()
			wg.Done()
		})
	}
	p.Close()
	waitWithTimeout(t, &wg, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, total, n)
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup, timeout time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for tasks to complete")
	}
}
