package host

import (
	"sync"
	"time"
)

// RealHost is the reference Host implementation: a monotonic clock
// anchored at construction time, a buffered single-slot wake channel
// (the same shape as eventloop's fastWakeupCh), and a goroutine-per-task
// worker pool backed by time.AfterFunc for delayed work.
type RealHost struct {
	start time.Time
	wake  chan struct{}
}

// NewRealHost constructs a Host suitable for tests, examples, and small
// standalone programs.
func NewRealHost() *RealHost {
	return &RealHost{
		start: time.Now(),
		wake:  make(chan struct{}, 1),
	}
}

// NowMillis returns milliseconds elapsed since NewRealHost was called,
// derived from time.Since so the reading stays monotonic even across
// wall-clock adjustments.
func (h *RealHost) NowMillis() int64 {
	return time.Since(h.start).Milliseconds()
}

// Kick performs a non-blocking send on the internal wake channel,
// mirroring eventloop's buffered-channel wakeup: a pending, un-consumed
// kick is sufficient to wake the next waiter, so redundant kicks are
// dropped rather than queued.
func (h *RealHost) Kick() {
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Awake returns the channel a caller may select on to observe a Kick.
func (h *RealHost) Awake() <-chan struct{} {
	return h.wake
}

func (h *RealHost) Run(fn func()) {
	go fn()
}

func (h *RealHost) RunAfter(delay time.Duration, fn func()) Handle {
	return time.AfterFunc(delay, fn)
}

func (h *RealHost) Cancel(hn Handle) bool {
	t, ok := hn.(*time.Timer)
	if !ok || t == nil {
		return false
	}
	return t.Stop()
}

// ManualClock is a Clock+Kicker pair a test can drive by hand, letting it
// reproduce spec scenarios (e.g. "Check(start+500ms) fires exactly the
// first ten") without depending on wall-clock timing.
type ManualClock struct {
	mu    sync.Mutex
	now   int64
	kicks int
}

// NewManualClock starts the clock at startMillis.
func NewManualClock(startMillis int64) *ManualClock {
	return &ManualClock{now: startMillis}
}

func (m *ManualClock) NowMillis() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set pins the clock to ms.
func (m *ManualClock) Set(ms int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = ms
}

// Advance moves the clock forward by delta milliseconds.
func (m *ManualClock) Advance(delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += delta
}

func (m *ManualClock) Kick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kicks++
}

// Kicks returns the number of Kick calls observed so far, for tests that
// assert a wheel woke its checker on a deadline decrease.
func (m *ManualClock) Kicks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kicks
}
