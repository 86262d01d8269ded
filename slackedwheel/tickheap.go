package slackedwheel

import "container/heap"

// tickHeap is a binary min-heap over the set of non-empty tick indices
// in a shard, with a side index for O(log n) removal of an arbitrary
// tick (needed when a bucket drains to empty via cancellation, not just
// via firing).
type tickHeap struct {
	ticks []int64
	index map[int64]int
}

func newTickHeap() *tickHeap {
	return &tickHeap{index: make(map[int64]int)}
}

func (h tickHeap) Len() int { return len(h.ticks) }

func (h tickHeap) Less(i, j int) bool { return h.ticks[i] < h.ticks[j] }

func (h tickHeap) Swap(i, j int) {
	h.ticks[i], h.ticks[j] = h.ticks[j], h.ticks[i]
	h.index[h.ticks[i]] = i
	h.index[h.ticks[j]] = j
}

func (h *tickHeap) Push(x any) {
	tick := x.(int64)
	h.index[tick] = len(h.ticks)
	h.ticks = append(h.ticks, tick)
}

func (h *tickHeap) Pop() any {
	old := h.ticks
	n := len(old)
	tick := old[n-1]
	old[n-1] = 0
	h.ticks = old[:n-1]
	delete(h.index, tick)
	return tick
}

func (h *tickHeap) insert(tick int64) {
	heap.Push(h, tick)
}

// remove deletes tick from the heap, if present. It is a no-op if tick
// is not currently tracked.
func (h *tickHeap) remove(tick int64) {
	i, ok := h.index[tick]
	if !ok {
		return
	}
	heap.Remove(h, i)
}

func (h *tickHeap) peek() (int64, bool) {
	if len(h.ticks) == 0 {
		return 0, false
	}
	return h.ticks[0], true
}

func (h *tickHeap) popMin() int64 {
	return heap.Pop(h).(int64)
}
