package solver

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// defaultWatchdog is used when Config.Watchdog is left zero.
const defaultWatchdog = 8 * time.Hour

// ArmWatchdog returns a context that's cancelled when dur elapses, and
// a disarm func the caller must invoke once Run returns normally. On
// expiry the watchdog logs, cancels ctx, and calls os.Exit(1) directly
// rather than returning control to the caller: per spec §5 a per-task
// hard-timeout is a hard-exit that skips ordinary defer-based cleanup,
// since a wedged task must not be allowed to hold its worker process
// open indefinitely. This is the one place in the module that
// deliberately bypasses defer cleanup.
func ArmWatchdog(ctx context.Context, taskID string, dur time.Duration) (context.Context, func()) {
	if dur <= 0 {
		dur = defaultWatchdog
	}
	cctx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(dur, func() {
		slog.Error("per-task watchdog expired, hard-exiting worker process", "task_id", taskID, "timeout", dur)
		cancel()
		os.Exit(1)
	})
	return cctx, func() {
		timer.Stop()
		cancel()
	}
}
