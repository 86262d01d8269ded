package timerwheel

// invalidHeapIndex marks a Timer that is currently in a shard's overflow
// set rather than its heap.
const invalidHeapIndex = -1

// Timer is a single scheduled deadline. The zero value is not usable;
// obtain one from Wheel.Init.
//
// A Timer must not be used concurrently with itself: Cancel and Extend
// both take the owning shard's mutex, so concurrent calls are safe with
// respect to each other, but a caller must not, for example, free the
// Timer's memory while a call involving it is in flight.
type Timer struct {
	shard      *shard
	callback   func()
	deadlineMs int64
	pending    bool
	heapIndex  int // position in shard.heap, or invalidHeapIndex if in shard.overflow
}

// Deadline returns the timer's current deadline in milliseconds since
// the Wheel's clock epoch. The value is only meaningful while the timer
// is pending; it is not updated on firing.
func (t *Timer) Deadline() int64 {
	t.shard.mu.Lock()
	defer t.shard.mu.Unlock()
	return t.deadlineMs
}

// Pending reports whether the timer is currently held by the wheel (not
// yet fired or cancelled).
func (t *Timer) Pending() bool {
	t.shard.mu.Lock()
	defer t.shard.mu.Unlock()
	return t.pending
}
