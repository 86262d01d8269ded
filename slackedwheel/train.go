package slackedwheel

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-rpcsched/host"
)

// Handle identifies a closure scheduled via Train.RunAfter. It encodes
// the owning shard plus an ABA-generation token: once a slot is
// consumed (fired or cancelled) its token is retired, so a Cancel call
// holding a stale Handle can never affect a slot that has since been
// reused for a different closure.
type Handle struct {
	shardIndex int
	abaToken   uint64
}

type closureData struct {
	abaToken   uint64
	deadlineMs int64
	callback   func()
	timer      *Timer
}

type trainShard struct {
	mu    sync.Mutex
	known map[uint64]*closureData
}

// Train is a periodic driver built on top of a slacked Wheel: every
// period it asks the wheel for expired timers and dispatches them to
// the host's worker pool, then reschedules its own next tick.
type Train struct {
	wheel  *Wheel
	h      host.Host
	period time.Duration

	shards  []*trainShard
	abaNext atomic.Uint64
	shardRR atomic.Uint64

	shutdownMu sync.Mutex
	shutdown   bool
	tickHandle host.Handle
}

// NewTrain constructs a Train with the given host, shard count, and
// resolution/period. The underlying slacked wheel buckets at the same
// granularity as the self-scheduled tick, since firing more often than
// that resolution cannot surface finer-grained deadlines anyway.
func NewTrain(h host.Host, shardCount int, period time.Duration) *Train {
	if period <= 0 {
		period = time.Millisecond
	}
	wheel := New(period.Milliseconds(), shardCount)
	t := &Train{
		wheel:  wheel,
		h:      h,
		period: period,
		shards: make([]*trainShard, len(wheel.shards)),
	}
	for i := range t.shards {
		t.shards[i] = &trainShard{known: make(map[uint64]*closureData)}
	}
	return t
}

// Start schedules the train's first self-driven tick.
func (t *Train) Start() {
	t.shutdownMu.Lock()
	defer t.shutdownMu.Unlock()
	if t.shutdown {
		return
	}
	t.tickHandle = t.h.RunAfter(t.period, t.tick)
}

// tick runs one pass of the driver: check the wheel for expired
// timers, dispatch them, then reschedule unless shutdown has been
// observed. This is the "weak self-scheduling" pattern: a tick already
// in flight when Stop is called will still run once, but will not
// reschedule a further tick.
func (t *Train) tick() {
	t.shutdownMu.Lock()
	down := t.shutdown
	t.shutdownMu.Unlock()
	if down {
		return
	}

	// Check dispatches each due timer's callback itself (set up in
	// RunAfter to hand off to the host's worker pool), so there's
	// nothing further to do with the returned slice here.
	t.wheel.Check(t.h.NowMillis())

	t.shutdownMu.Lock()
	if !t.shutdown {
		t.tickHandle = t.h.RunAfter(t.period, t.tick)
	}
	t.shutdownMu.Unlock()
}

// Stop cancels the self-scheduled tick and frees every closure still
// pending in the wheel. A tick that was already dispatched before Stop
// runs will still execute once, but it will observe shutdown and will
// not reschedule itself again.
func (t *Train) Stop() {
	t.shutdownMu.Lock()
	t.shutdown = true
	if t.tickHandle != nil {
		t.h.Cancel(t.tickHandle)
	}
	t.shutdownMu.Unlock()

	for _, ts := range t.shards {
		ts.mu.Lock()
		pending := ts.known
		ts.known = make(map[uint64]*closureData)
		ts.mu.Unlock()

		for _, cd := range pending {
			t.wheel.Cancel(cd.timer)
		}
	}
}

// RunAfter schedules callback to run no earlier than delay from now.
func (t *Train) RunAfter(delay time.Duration, callback func()) Handle {
	now := t.h.NowMillis()
	deadline := now + delay.Milliseconds()

	shardIdx := int(t.shardRR.Add(1) % uint64(len(t.shards)))
	token := t.abaNext.Add(1)
	ts := t.shards[shardIdx]

	cd := &closureData{abaToken: token, deadlineMs: deadline, callback: callback}

	ts.mu.Lock()
	ts.known[token] = cd
	ts.mu.Unlock()

	cd.timer = t.wheel.Init(deadline, func() {
		ts.mu.Lock()
		_, stillKnown := ts.known[token]
		if stillKnown {
			delete(ts.known, token)
		}
		ts.mu.Unlock()
		if stillKnown {
			t.h.Run(cd.callback)
		}
	})

	return Handle{shardIndex: shardIdx, abaToken: token}
}

// Cancel looks the handle's token up in its shard. It returns true if
// the closure was still pending, in which case it will not run. It
// returns false if the token is no longer known: the closure has
// already been dispatched to the worker pool, or the handle was already
// cancelled. Tokens are never reissued, so a stale handle never
// affects a later closure.
func (t *Train) Cancel(h Handle) bool {
	if h.shardIndex < 0 || h.shardIndex >= len(t.shards) {
		return false
	}
	ts := t.shards[h.shardIndex]

	ts.mu.Lock()
	cd, ok := ts.known[h.abaToken]
	if ok {
		delete(ts.known, h.abaToken)
	}
	ts.mu.Unlock()

	if !ok {
		return false
	}
	// With the token gone from known, the wheel callback dispatches
	// nothing even if the wheel has already fired it.
	t.wheel.Cancel(cd.timer)
	return true
}

// Extend moves a still-pending closure's deadline later by delta. It
// returns false for a stale or already-fired handle.
func (t *Train) Extend(h Handle, delta time.Duration) bool {
	if h.shardIndex < 0 || h.shardIndex >= len(t.shards) {
		return false
	}
	ts := t.shards[h.shardIndex]

	ts.mu.Lock()
	cd, ok := ts.known[h.abaToken]
	ts.mu.Unlock()
	if !ok {
		return false
	}

	if !t.wheel.Cancel(cd.timer) {
		return false
	}
	cd.deadlineMs += delta.Milliseconds()
	cd.timer = t.wheel.Init(cd.deadlineMs, func() {
		ts.mu.Lock()
		_, stillKnown := ts.known[h.abaToken]
		if stillKnown {
			delete(ts.known, h.abaToken)
		}
		ts.mu.Unlock()
		if stillKnown {
			t.h.Run(cd.callback)
		}
	})
	return true
}
