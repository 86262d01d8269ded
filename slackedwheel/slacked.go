package slackedwheel

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Timer is a single entry in a Wheel. The zero value is not usable;
// obtain one from Wheel.Init.
type Timer struct {
	shard    *shard
	tick     int64
	elem     *list.Element // position within its bucket's list, for O(1) cancel
	callback func()
	pending  bool
}

// Pending reports whether the timer is still held by the wheel.
func (t *Timer) Pending() bool {
	t.shard.mu.Lock()
	defer t.shard.mu.Unlock()
	return t.pending
}

type bucket struct {
	timers *list.List
}

// shard owns a portion of the wheel's timers, bucketed by tick index.
type shard struct {
	mu      sync.Mutex
	buckets map[int64]*bucket
	ticks   *tickHeap
}

func newShard() *shard {
	return &shard{
		buckets: make(map[int64]*bucket),
		ticks:   newTickHeap(),
	}
}

// Wheel buckets timers by ⌈deadline/resolution⌉, firing every timer in
// a tick together once now has reached that tick's boundary.
type Wheel struct {
	resolutionMs int64
	shards       []*shard
	next         atomic.Uint64
}

// New constructs a Wheel with the given resolution (milliseconds) and
// shard count, mirroring timerwheel's sharding-by-round-robin to spread
// insertion contention.
func New(resolutionMs int64, shardCount int) *Wheel {
	if resolutionMs <= 0 {
		resolutionMs = 1
	}
	if shardCount <= 0 {
		shardCount = 16
	}
	w := &Wheel{
		resolutionMs: resolutionMs,
		shards:       make([]*shard, shardCount),
	}
	for i := range w.shards {
		w.shards[i] = newShard()
	}
	return w
}

func (w *Wheel) pickShard() *shard {
	n := w.next.Add(1)
	return w.shards[int(n%uint64(len(w.shards)))]
}

// tickIndexFor rounds deadlineMs up to the next tick boundary.
func (w *Wheel) tickIndexFor(deadlineMs int64) int64 {
	if deadlineMs <= 0 {
		return 0
	}
	return (deadlineMs + w.resolutionMs - 1) / w.resolutionMs
}

// Init schedules callback to run the first time Check observes
// now >= tick*resolution for the deadline's rounded-up tick.
func (w *Wheel) Init(deadlineMs int64, callback func()) *Timer {
	tick := w.tickIndexFor(deadlineMs)
	s := w.pickShard()
	t := &Timer{shard: s, tick: tick, callback: callback, pending: true}

	s.mu.Lock()
	b, ok := s.buckets[tick]
	if !ok {
		b = &bucket{timers: list.New()}
		s.buckets[tick] = b
		s.ticks.insert(tick)
	}
	t.elem = b.timers.PushBack(t)
	s.mu.Unlock()

	return t
}

// Cancel removes t from the wheel if it is still pending. It returns
// true if cancellation succeeded, false if the timer had already fired
// or been cancelled.
func (w *Wheel) Cancel(t *Timer) bool {
	s := t.shard
	s.mu.Lock()
	defer s.mu.Unlock()

	if !t.pending {
		return false
	}
	t.pending = false

	b := s.buckets[t.tick]
	b.timers.Remove(t.elem)
	if b.timers.Len() == 0 {
		delete(s.buckets, t.tick)
		s.ticks.remove(t.tick)
	}
	return true
}

// Check fires every timer whose tick boundary (tick*resolution) has
// been reached by nowMs, returning their callbacks already invoked and
// also returned for observability/testing. Buckets fire as a whole: a
// single due tick can return many timers in one call.
func (w *Wheel) Check(nowMs int64) []*Timer {
	var fired []*Timer
	for _, s := range w.shards {
		fired = append(fired, s.checkLocked(nowMs, w.resolutionMs)...)
	}
	for _, t := range fired {
		if t.callback != nil {
			t.callback()
		}
	}
	return fired
}

func (s *shard) checkLocked(nowMs, resolutionMs int64) []*Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fired []*Timer
	for {
		tick, ok := s.ticks.peek()
		if !ok || tick*resolutionMs > nowMs {
			break
		}
		s.ticks.popMin()
		b := s.buckets[tick]
		delete(s.buckets, tick)

		for e := b.timers.Front(); e != nil; e = e.Next() {
			t := e.Value.(*Timer)
			t.pending = false
			fired = append(fired, t)
		}
	}
	return fired
}
