package timerwheel

import "container/heap"

// timerHeap is a binary min-heap of pending Timers ordered by deadlineMs,
// the same shape as eventloop's internal timerHeap: a plain slice plus
// heap.Interface, with Swap keeping each Timer's back-pointer index in
// sync so arbitrary elements (not just the root) can be removed in
// O(log n) via heap.Fix / heap.Remove.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool { return h[i].deadlineMs < h[j].deadlineMs }

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = invalidHeapIndex
	*h = old[:n-1]
	return t
}

// peek returns the soonest-firing timer without removing it, or nil if
// the heap is empty.
func (h timerHeap) peek() *Timer {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// insert pushes t onto the heap and restores the heap invariant.
func (h *timerHeap) insert(t *Timer) {
	heap.Push(h, t)
}

// remove deletes t from the heap given its current heapIndex.
func (h *timerHeap) remove(t *Timer) {
	heap.Remove(h, t.heapIndex)
}

// fix restores the heap invariant after t's deadline changed in place.
func (h *timerHeap) fix(t *Timer) {
	heap.Fix(h, t.heapIndex)
}

// pop removes and returns the soonest-firing timer.
func (h *timerHeap) pop() *Timer {
	return heap.Pop(h).(*Timer)
}
