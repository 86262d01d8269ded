package slackedwheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWheel_CoalescingScenario(t *testing.T) {
	// Mirrors the spec's slacked coalescing scenario: resolution 60s,
	// timers at +10ms, +60010ms, +90000ms land in two buckets (ticks 1
	// and 2) and fire as whole groups once now reaches tick*resolution.
	w := New(60_000, 1)

	var fired []int64
	mk := func(d int64) { w.Init(d, func() { fired = append(fired, d) }) }
	mk(10)
	mk(60_010)
	mk(90_000)

	assert.Empty(t, w.Check(500))

	got := w.Check(60_010)
	require.Len(t, got, 1)
	assert.Equal(t, []int64{10}, fired)

	fired = nil
	got = w.Check(120_000)
	assert.Len(t, got, 2)
	assert.ElementsMatch(t, []int64{60_010, 90_000}, fired, "same-bucket timers fire together")
}

func TestWheel_EmptyCheckReturnsEmpty(t *testing.T) {
	w := New(1000, 4)
	got := w.Check(100_000)
	assert.Empty(t, got)
}

func TestWheel_CancelIsIdempotentAndO1(t *testing.T) {
	w := New(1000, 1)
	fired := false
	timer := w.Init(500, func() { fired = true })

	assert.True(t, w.Cancel(timer))
	assert.False(t, w.Cancel(timer), "a second cancel of the same timer must return false")

	w.Check(10_000)
	assert.False(t, fired)
}

func TestWheel_CancelLeavesOtherBucketMembersIntact(t *testing.T) {
	w := New(1000, 1)
	var fired []string
	a := w.Init(500, func() { fired = append(fired, "a") })
	w.Init(500, func() { fired = append(fired, "b") })

	w.Cancel(a)
	w.Check(1000)
	assert.Equal(t, []string{"b"}, fired)
}

func TestWheel_DeadlineAtExactTickBoundaryFires(t *testing.T) {
	w := New(1000, 1)
	fired := false
	w.Init(1000, func() { fired = true })

	assert.Empty(t, w.Check(999))
	assert.NotEmpty(t, w.Check(1000))
	assert.True(t, fired)
}
