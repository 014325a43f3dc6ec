package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"go.uber.org/automaxprocs/maxprocs"
)

// tuneRuntime aligns GOMAXPROCS and GOMEMLIMIT with the cgroup the
// process is actually confined to, the same adjustment a containerised
// NVMe-bound worker pool needs regardless of domain: over-counting CPUs
// lets the Go scheduler run more goroutines in parallel than the
// container's CPU quota allows (the driver count itself comes from
// Config.Workers and is not changed here), and an unset memory limit lets the
// buffer substrate's mmap'd allocations get OOM-killed instead of
// backing off. Both are best-effort: a failure to detect cgroup limits
// (e.g. running outside a container) just leaves Go's defaults in place.
var tuneRuntimeOnce sync.Once

func tuneRuntime(log *slog.Logger) {
	tuneRuntimeOnce.Do(func() {
		if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			log.Debug("maxprocs", "msg", fmt.Sprintf(format, args...))
		})); err != nil {
			log.Debug("maxprocs: could not set GOMAXPROCS", "err", err)
		}
		if _, err := memlimit.SetGoMemLimitWithOpts(
			memlimit.WithRatio(0.9),
			memlimit.WithProvider(memlimit.FromCgroup),
		); err != nil {
			log.Debug("automemlimit: could not set GOMEMLIMIT", "err", err)
		}
	})
}
