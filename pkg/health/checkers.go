package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
)

// MaxGoroutines returns a Check that fails once the goroutine count exceeds
// the limit. Useful as a liveness probe against goroutine leaks.
func MaxGoroutines(limit int) Check {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines running, limit %d", n, limit)
		}
		return nil
	}
}

// MaxGCPause returns a Check that fails when any recorded stop-the-world GC
// pause exceeds the limit, a sign of memory pressure.
func MaxGCPause(limit time.Duration) Check {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, pause := range stats.Pause {
			if pause > limit {
				return errors.Errorf("GC pause %s over limit %s", pause, limit)
			}
		}
		return nil
	}
}
