package host

import "time"

// Clock supplies the monotonic "now" every timer comparison is made
// against, expressed as milliseconds since an arbitrary process epoch.
// Callers must never interpret it as wall-clock/calendar time.
type Clock interface {
	NowMillis() int64
}

// Kicker wakes a single thread that may be blocked waiting for the next
// timer deadline. Implementations must be safe to call from any
// goroutine, including from within a timer callback.
type Kicker interface {
	Kick()
}

// Handle identifies a callback scheduled via WorkerPool.RunAfter, for a
// later Cancel call. It carries no meaning outside the WorkerPool that
// issued it.
type Handle any

// WorkerPool runs short callbacks, either immediately (Run) or after a
// delay (RunAfter). Implementations decide their own concurrency model;
// callers of this module never assume callbacks run on any particular
// goroutine.
type WorkerPool interface {
	// Run schedules fn to execute, returning without waiting for it.
	Run(fn func())

	// RunAfter schedules fn to execute no earlier than delay from now,
	// returning a Handle that can later be passed to Cancel.
	RunAfter(delay time.Duration, fn func()) Handle

	// Cancel attempts to prevent a RunAfter callback from running. It
	// returns false if the callback has already started or already ran.
	Cancel(h Handle) bool
}

// Host bundles the three capabilities the scheduling core needs from its
// embedder.
type Host interface {
	Clock
	Kicker
	WorkerPool
}
