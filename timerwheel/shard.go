package timerwheel

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-rpcsched/internal/grpclog"
	"github.com/joeycumines/go-rpcsched/internal/numeric"
)

// ewmaStat tracks the average distance (in seconds) between a shard's
// queue_deadline_cap and the deadlines being inserted into it, using a
// bounded-gain exponentially-weighted moving average: early samples move
// the average quickly (high gain while count is small), later samples
// move it slowly, clamped to [minGain, maxGain] so a single outlier
// insert can never swing the cap by more than maxGain of the delta.
//
// original_source's timer.cc drives the same shape of adaptive refill
// delta from a running average, but its statistics class isn't part of
// the retrieved source tree; the seed values here (initial 3.03 seconds,
// gain bounds 0.1/0.5) are a reconstruction chosen to match the timer
// batching behaviour described in the spec, not a transliteration.
type ewmaStat struct {
	count   int64
	average float64
}

const (
	ewmaInitial = 3.03
	ewmaMinGain = 0.1
	ewmaMaxGain = 0.5
)

func newEwmaStat() ewmaStat {
	return ewmaStat{average: ewmaInitial}
}

// addSample folds a new observation (seconds) into the running average.
func (s *ewmaStat) addSample(sample float64) {
	s.count++
	gain := numeric.Clamp(1.0/float64(s.count), ewmaMinGain, ewmaMaxGain)
	s.average += (sample - s.average) * gain
}

// value returns the current average.
func (s *ewmaStat) value() float64 {
	return s.average
}

// shard owns one slice of the wheel's timers: a bounded min-heap of
// "imminent" timers plus an unordered overflow set for everything
// further out than queueDeadlineCapMs. All fields are guarded by mu.
type shard struct {
	mu sync.Mutex

	// id is stable for the lifetime of the shard, unlike queueIndex
	// (which moves as the wheel's shard-queue reorders); it only exists
	// so log entries can name a shard.
	id int

	heap     timerHeap
	overflow map[*Timer]struct{}

	queueDeadlineCapMs int64
	stat               ewmaStat

	// queueIndex is this shard's current position in the wheel's
	// shard-queue (shards ordered by minDeadlineMs). Guarded by the
	// wheel's queueMu, not shard.mu.
	queueIndex int

	// minDeadlineMs caches the shard's current minimum deadline so the
	// wheel's shard-queue can reorder without re-acquiring shard.mu on
	// every comparison. It is written only by recomputeMinLocked (under
	// shard.mu) but read by the wheel under queueMu, a different lock
	// guarding a different piece of state (shard-queue order); atomic is
	// what actually synchronizes the two sides, not either mutex.
	minDeadlineMs atomic.Int64
}

func newShard(id int) *shard {
	s := &shard{
		id:       id,
		overflow: make(map[*Timer]struct{}),
		stat:     newEwmaStat(),
	}
	s.minDeadlineMs.Store(maxDeadlineMs)
	return s
}

const maxDeadlineMs = int64(1) << 62

// minDeadlineEpsilonMs mirrors original_source's
// Duration::Epsilon() added to queue_deadline_cap when a shard's heap is
// empty: a shard with nothing in its heap yet still has overflow timers
// at or past the cap, so its reported minimum must track the cap rather
// than saturate to "nothing pending," or the wheel's shard-queue would
// never revisit it for a refill.
const minDeadlineEpsilonMs = 1

// refillDeltaMs computes how far past the later of (now, the current
// cap) the next queueDeadlineCapMs should be set, in milliseconds,
// derived from the shard's insert-distance statistic. The 0.33 factor
// and [0.01, 1.0] second clamp mirror timer.cc's RefillHeap sizing,
// which keeps the heap holding "a few dozen" timers regardless of
// insertion rate.
func (s *shard) refillDeltaMs() int64 {
	deltaSeconds := numeric.Clamp(s.stat.value()*0.33, 0.01, 1.0)
	return int64(deltaSeconds * 1000)
}

// refillLocked moves every overflow timer whose deadline now falls
// within the (possibly advanced) queueDeadlineCapMs into the heap. The
// caller must hold s.mu.
func (s *shard) refillLocked(nowMs int64) {
	cap := s.queueDeadlineCapMs
	if cap < nowMs {
		cap = nowMs
	}
	cap += s.refillDeltaMs()
	s.queueDeadlineCapMs = cap

	moved := 0
	for t := range s.overflow {
		if t.deadlineMs < cap {
			delete(s.overflow, t)
			s.heap.insert(t)
			moved++
		}
	}
	if moved == 0 && len(s.overflow) > 0 {
		// The cap advanced but nothing in overflow fell under it: the
		// insert-distance average is lagging behind a burst of
		// far-future deadlines. Not harmful (the next refill tries
		// again with a larger cap), just worth knowing about.
		grpclog.Debug("timerwheel", "refill advanced cap without draining overflow",
			grpclog.Field{Key: "shard", Value: s.id},
			grpclog.Field{Key: "cap_ms", Value: cap},
			grpclog.Field{Key: "overflow_len", Value: len(s.overflow)},
		)
	}
	s.recomputeMinLocked()
}

// recomputeMinLocked refreshes minDeadlineMs from the heap root, or from
// queueDeadlineCapMs when the heap is empty but overflow isn't (mirrors
// original_source's ComputeMinDeadline): an empty heap with pending
// overflow timers is not the same as an idle shard, and must still
// report a near-term minimum so the wheel's Check keeps visiting it
// until a refill drains that overflow.
func (s *shard) recomputeMinLocked() {
	if t := s.heap.peek(); t != nil {
		s.minDeadlineMs.Store(t.deadlineMs)
		return
	}
	if len(s.overflow) > 0 {
		s.minDeadlineMs.Store(s.queueDeadlineCapMs + minDeadlineEpsilonMs)
		return
	}
	s.minDeadlineMs.Store(maxDeadlineMs)
}

// insertLocked adds t to the shard, choosing the heap or overflow based
// on the current queueDeadlineCapMs, and folds the insert distance into
// the shard's statistic when it lands in a heap that already holds at
// least one timer. Caller must hold s.mu.
func (s *shard) insertLocked(t *Timer, nowMs int64) {
	if s.heap.Len() == 0 && len(s.overflow) == 0 {
		// First timer on a fresh (or drained) shard: seed the cap so the
		// very first insert doesn't get charged a full refill distance.
		s.queueDeadlineCapMs = nowMs
	}
	if t.deadlineMs < s.queueDeadlineCapMs {
		if s.heap.Len() > 0 {
			distanceSeconds := float64(s.queueDeadlineCapMs-t.deadlineMs) / 1000.0
			if distanceSeconds < 0 {
				distanceSeconds = 0
			}
			s.stat.addSample(distanceSeconds)
		}
		t.heapIndex = invalidHeapIndex
		s.heap.insert(t)
	} else {
		t.heapIndex = invalidHeapIndex
		s.overflow[t] = struct{}{}
	}
	s.recomputeMinLocked()
}

// removeLocked takes t out of whichever of heap/overflow currently
// holds it. Caller must hold s.mu.
func (s *shard) removeLocked(t *Timer) {
	if t.heapIndex != invalidHeapIndex {
		s.heap.remove(t)
	} else {
		delete(s.overflow, t)
	}
	s.recomputeMinLocked()
}

// popReadyLocked pops and returns every heap timer whose deadline is
// <= nowMs, marking each as no longer pending. Caller must hold s.mu.
func (s *shard) popReadyLocked(nowMs int64) []*Timer {
	var ready []*Timer
	for s.heap.Len() > 0 && s.heap.peek().deadlineMs <= nowMs {
		t := s.heap.pop()
		t.pending = false
		ready = append(ready, t)
	}
	if s.heap.Len() == 0 && len(s.overflow) > 0 && nowMs >= s.queueDeadlineCapMs {
		s.refillLocked(nowMs)
		for s.heap.Len() > 0 && s.heap.peek().deadlineMs <= nowMs {
			t := s.heap.pop()
			t.pending = false
			ready = append(ready, t)
		}
	}
	s.recomputeMinLocked()
	return ready
}
