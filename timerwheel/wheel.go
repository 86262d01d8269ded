package timerwheel

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-rpcsched/host"
)

// Wheel is a sharded, deadline-ordered timer service. Timers are spread
// across a fixed number of shards to keep Init/Cancel/Extend contention
// off a single lock; an outer, much-less-contended queue keeps the
// shards themselves ordered by their own minimum deadline, so Check can
// find the next firing timer without scanning every shard.
type Wheel struct {
	shards   []*shard
	next     atomic.Uint64 // round-robin shard picker for Init
	kicker   host.Kicker
	checking atomic.Bool // non-reentrant Check try-lock

	queueMu sync.Mutex
	queue   []*shard // ordered ascending by minDeadlineMs
}

// New constructs a Wheel. kicker (may be nil) is notified whenever a new
// timer's deadline becomes the wheel's new global minimum, so a host
// blocked waiting for the previous minimum can recheck sooner.
func New(kicker host.Kicker, opts ...Option) *Wheel {
	o := resolveOptions(opts)
	w := &Wheel{
		kicker: kicker,
		queue:  make([]*shard, o.shardCount),
	}
	w.shards = make([]*shard, o.shardCount)
	for i := range w.shards {
		s := newShard(i)
		s.queueIndex = i
		w.shards[i] = s
		w.queue[i] = s
	}
	return w
}

// pickShard assigns a new Timer to a shard. Real deployments have far
// more timers than shards, so plain round robin spreads load evenly
// without needing to hash anything.
func (w *Wheel) pickShard() *shard {
	n := w.next.Add(1)
	return w.shards[int(n%uint64(len(w.shards)))]
}

// Init creates and inserts a new pending Timer with the given absolute
// deadline (milliseconds on the Wheel's clock), invoking callback when
// the timer fires via Check. Check runs callbacks after releasing every
// shard and queue lock, but while its non-reentrant flag is still held,
// so a Check call made from inside callback returns nil at once.
// callback must not block; scheduling heavier work is the caller's
// responsibility (a callback that needs to do I/O should hand off to a
// worker pool).
func (w *Wheel) Init(nowMs, deadlineMs int64, callback func()) *Timer {
	if deadlineMs < nowMs {
		deadlineMs = nowMs
	}
	s := w.pickShard()
	t := &Timer{
		shard:      s,
		callback:   callback,
		deadlineMs: deadlineMs,
		pending:    true,
		heapIndex:  invalidHeapIndex,
	}

	s.mu.Lock()
	prevMin := s.minDeadlineMs.Load()
	s.insertLocked(t, nowMs)
	newMin := s.minDeadlineMs.Load()
	s.mu.Unlock()

	if newMin < prevMin {
		w.noteDeadlineChange(s)
	}
	return t
}

// Cancel removes t from the wheel if it is still pending. It returns
// true if the timer was pending and is now cancelled, false if it had
// already fired or been cancelled.
func (w *Wheel) Cancel(t *Timer) bool {
	s := t.shard
	s.mu.Lock()
	if !t.pending {
		s.mu.Unlock()
		return false
	}
	t.pending = false
	s.removeLocked(t)
	s.mu.Unlock()

	w.noteDeadlineChange(s)
	return true
}

// Extend changes a pending timer's deadline in place, preserving its
// identity (no Cancel+Init pair, so no handle churn). It returns false
// if the timer was not pending.
func (w *Wheel) Extend(nowMs int64, t *Timer, newDeadlineMs int64) bool {
	if newDeadlineMs < nowMs {
		newDeadlineMs = nowMs
	}
	s := t.shard
	s.mu.Lock()
	if !t.pending {
		s.mu.Unlock()
		return false
	}
	if t.heapIndex != invalidHeapIndex {
		t.deadlineMs = newDeadlineMs
		if newDeadlineMs < s.queueDeadlineCapMs {
			s.heap.fix(t)
		} else {
			s.heap.remove(t)
			t.heapIndex = invalidHeapIndex
			s.overflow[t] = struct{}{}
		}
	} else {
		t.deadlineMs = newDeadlineMs
		if newDeadlineMs < s.queueDeadlineCapMs {
			delete(s.overflow, t)
			s.heap.insert(t)
		}
	}
	s.recomputeMinLocked()
	s.mu.Unlock()

	w.noteDeadlineChange(s)
	return true
}

// Check advances the wheel's notion of time to nowMs and returns every
// timer whose deadline has passed, firing their callbacks as it goes.
// It is safe to call concurrently from multiple goroutines: only one
// caller actually performs the scan at a time (mirroring timer.cc's
// non-reentrant TimerCheck), and callers that lose the race simply
// return immediately, trusting the winner to process their deadline
// too since Check always drains every shard whose minimum has passed,
// not just the one that triggered the call.
func (w *Wheel) Check(nowMs int64) []*Timer {
	if !w.checking.CompareAndSwap(false, true) {
		return nil
	}
	defer w.checking.Store(false)

	var fired []*Timer
	for {
		w.queueMu.Lock()
		if len(w.queue) == 0 || w.queue[0].minDeadlineMs.Load() > nowMs {
			w.queueMu.Unlock()
			break
		}
		s := w.queue[0]
		w.queueMu.Unlock()

		s.mu.Lock()
		ready := s.popReadyLocked(nowMs)
		s.mu.Unlock()

		if len(ready) == 0 {
			// The shard's minimum moved (e.g. a concurrent Cancel) between
			// our peek and our lock; resync its queue position and retry.
			w.noteDeadlineChange(s)
			continue
		}
		fired = append(fired, ready...)
		w.noteDeadlineChange(s)
	}

	for _, t := range fired {
		if t.callback != nil {
			t.callback()
		}
	}
	return fired
}

// NextDeadlineMs returns the wheel's current global minimum deadline
// across all shards, or (0, false) if no timer is pending.
func (w *Wheel) NextDeadlineMs() (int64, bool) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	if len(w.queue) == 0 {
		return 0, false
	}
	min := w.queue[0].minDeadlineMs.Load()
	if min >= maxDeadlineMs {
		return 0, false
	}
	return min, true
}

// noteDeadlineChange re-sorts s's position in the shard queue after its
// minDeadlineMs changed. Real deployments run with a small, fixed shard
// count, so adjacent-swap bubbling (rather than a full heap) keeps the
// queue ordered cheaply: a shard's position rarely needs to move more
// than a step or two per call.
func (w *Wheel) noteDeadlineChange(s *shard) {
	w.queueMu.Lock()
	i := s.queueIndex
	for i > 0 && w.queue[i-1].minDeadlineMs.Load() > w.queue[i].minDeadlineMs.Load() {
		w.queue[i-1], w.queue[i] = w.queue[i], w.queue[i-1]
		w.queue[i-1].queueIndex = i - 1
		w.queue[i].queueIndex = i
		i--
	}
	for i < len(w.queue)-1 && w.queue[i+1].minDeadlineMs.Load() < w.queue[i].minDeadlineMs.Load() {
		w.queue[i+1], w.queue[i] = w.queue[i], w.queue[i+1]
		w.queue[i+1].queueIndex = i + 1
		w.queue[i].queueIndex = i
		i++
	}
	becameMin := i == 0
	w.queueMu.Unlock()

	if becameMin && w.kicker != nil {
		w.kicker.Kick()
	}
}
