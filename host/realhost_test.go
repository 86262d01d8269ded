package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealHost_NowMillisIsMonotonicNonNegative(t *testing.T) {
	h := NewRealHost()
	a := h.NowMillis()
	time.Sleep(5 * time.Millisecond)
	b := h.NowMillis()
	assert.GreaterOrEqual(t, a, int64(0))
	assert.GreaterOrEqual(t, b, a)
}

func TestRealHost_RunExecutesAsynchronously(t *testing.T) {
	h := NewRealHost()
	done := make(chan struct{})
	h.Run(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run callback never executed")
	}
}

func TestRealHost_RunAfterRespectsDelay(t *testing.T) {
	h := NewRealHost()
	start := time.Now()
	done := make(chan struct{})
	h.RunAfter(30*time.Millisecond, func() { close(done) })
	select {
	case <-done:
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("RunAfter callback never executed")
	}
}

func TestRealHost_CancelPreventsExecution(t *testing.T) {
	h := NewRealHost()
	fired := make(chan struct{})
	handle := h.RunAfter(30*time.Millisecond, func() { close(fired) })
	ok := h.Cancel(handle)
	require.True(t, ok)

	select {
	case <-fired:
		t.Fatal("callback fired despite successful cancel")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestRealHost_CancelAfterFireReturnsFalse(t *testing.T) {
	h := NewRealHost()
	fired := make(chan struct{})
	handle := h.RunAfter(5*time.Millisecond, func() { close(fired) })
	<-fired
	assert.False(t, h.Cancel(handle))
}

func TestRealHost_KickIsNonBlockingAndCoalesces(t *testing.T) {
	h := NewRealHost()
	h.Kick()
	h.Kick() // second kick must not block even though the channel is full

	select {
	case <-h.Awake():
	default:
		t.Fatal("expected a pending kick")
	}
	select {
	case <-h.Awake():
		t.Fatal("redundant kicks must coalesce into a single pending wakeup")
	default:
	}
}

func TestManualClock_SetAndAdvance(t *testing.T) {
	c := NewManualClock(100)
	assert.Equal(t, int64(100), c.NowMillis())
	c.Advance(50)
	assert.Equal(t, int64(150), c.NowMillis())
	c.Set(0)
	assert.Equal(t, int64(0), c.NowMillis())
}

func TestManualClock_CountsKicks(t *testing.T) {
	c := NewManualClock(0)
	assert.Equal(t, 0, c.Kicks())
	c.Kick()
	c.Kick()
	assert.Equal(t, 2, c.Kicks())
}
