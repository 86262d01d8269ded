package slackedwheel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeycumines/go-rpcsched/host"
)

func TestTrain_RunAfterFiresOnTick(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 10*time.Millisecond)

	done := make(chan struct{})
	tr.RunAfter(0, func() { close(done) })
	tr.Start()
	defer tr.Stop()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("callback never ran")
	}
}

func TestTrain_CancelPreventsFiring(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 10*time.Millisecond)

	ran := false
	h := tr.RunAfter(time.Hour, func() { ran = true })

	assert.True(t, tr.Cancel(h))
	assert.False(t, ran)
}

func TestTrain_CancelIsABASafe(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 10*time.Millisecond)

	h1 := tr.RunAfter(time.Hour, func() {})
	require.True(t, tr.Cancel(h1))

	// A fresh RunAfter may reuse the same shard; if it happens to also
	// reuse token bookkeeping incorrectly, the stale h1 would wrongly
	// cancel it. Since tokens are monotonically issued and never
	// reused, cancelling the stale handle again must still fail.
	tr.RunAfter(time.Hour, func() {})
	assert.False(t, tr.Cancel(h1), "a stale handle must never affect a later closure")
}

func TestTrain_CancelTwiceReturnsFalse(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 10*time.Millisecond)

	h := tr.RunAfter(time.Hour, func() {})
	assert.True(t, tr.Cancel(h))
	assert.False(t, tr.Cancel(h))
}

func TestTrain_ExtendDelaysFiring(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 10*time.Millisecond)

	fired := make(chan struct{}, 1)
	start := time.Now()
	h := tr.RunAfter(20*time.Millisecond, func() { fired <- struct{}{} })
	require.True(t, tr.Extend(h, 200*time.Millisecond))
	tr.Start()
	defer tr.Stop()

	select {
	case <-fired:
		assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	case <-time.After(1 * time.Second):
		t.Fatal("extended callback never ran")
	}
}

func TestTrain_StopPreventsFurtherTicks(t *testing.T) {
	rh := host.NewRealHost()
	tr := NewTrain(rh, 1, 5*time.Millisecond)
	tr.Start()
	tr.Stop()

	var fired bool
	tr.RunAfter(0, func() { fired = true })
	time.Sleep(50 * time.Millisecond)
	assert.False(t, fired, "no tick should run after Stop")
}
