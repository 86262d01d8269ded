package timerwheel

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerHeap_PopReturnsAscendingOrder(t *testing.T) {
	var h timerHeap
	deadlines := []int64{50, 10, 70, 20, 5, 90, 30}
	timers := make([]*Timer, len(deadlines))
	for i, d := range deadlines {
		timers[i] = &Timer{deadlineMs: d}
		h.insert(timers[i])
	}

	var got []int64
	for h.Len() > 0 {
		got = append(got, h.pop().deadlineMs)
	}

	want := append([]int64(nil), deadlines...)
	for i := range want {
		for j := i + 1; j < len(want); j++ {
			if want[j] < want[i] {
				want[i], want[j] = want[j], want[i]
			}
		}
	}
	assert.Equal(t, want, got)
}

func TestTimerHeap_RemoveArbitraryElementPreservesInvariant(t *testing.T) {
	var h timerHeap
	timers := make([]*Timer, 0, 100)
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		tm := &Timer{deadlineMs: int64(r.Intn(1000))}
		timers = append(timers, tm)
		h.insert(tm)
	}

	// remove a handful of arbitrary (non-root) timers by their tracked
	// heapIndex, confirming the back-pointer bookkeeping in Swap/Pop
	// keeps every remaining element's index accurate.
	for i := 0; i < 20; i++ {
		victim := timers[r.Intn(len(timers))]
		if victim.heapIndex == invalidHeapIndex {
			continue
		}
		h.remove(victim)
	}

	last := int64(-1)
	for h.Len() > 0 {
		tm := h.pop()
		require.GreaterOrEqual(t, tm.deadlineMs, last)
		last = tm.deadlineMs
	}
}

func TestTimerHeap_FixAfterDeadlineDecrease(t *testing.T) {
	var h timerHeap
	a := &Timer{deadlineMs: 100}
	b := &Timer{deadlineMs: 200}
	c := &Timer{deadlineMs: 300}
	h.insert(a)
	h.insert(b)
	h.insert(c)

	c.deadlineMs = 1
	h.fix(c)

	assert.Same(t, c, h.peek())
}

func TestTimerHeap_PeekDoesNotMutate(t *testing.T) {
	var h timerHeap
	a := &Timer{deadlineMs: 5}
	h.insert(a)
	before := h.Len()
	assert.Same(t, a, h.peek())
	assert.Equal(t, before, h.Len())
}
