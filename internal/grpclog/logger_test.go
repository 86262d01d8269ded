package grpclog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	entries []Entry
}

func (r *recordingLogger) Log(e Entry)        { r.entries = append(r.entries, e) }
func (r *recordingLogger) Enabled(Level) bool { return true }

func TestLog_RoutesToCurrentGlobalLogger(t *testing.T) {
	prev := current()
	defer SetLogger(prev)

	rec := &recordingLogger{}
	SetLogger(rec)

	Warn("timerwheel", "something happened", Field{Key: "n", Value: 3})

	require.Len(t, rec.entries, 1)
	assert.Equal(t, LevelWarn, rec.entries[0].Level)
	assert.Equal(t, "timerwheel", rec.entries[0].Component)
	assert.Equal(t, "something happened", rec.entries[0].Message)
	assert.Equal(t, []Field{{Key: "n", Value: 3}}, rec.entries[0].Fields)
}

func TestLog_NoopWhenLevelDisabled(t *testing.T) {
	prev := current()
	defer SetLogger(prev)

	rec := &recordingLogger{}
	SetLogger(disabledLogger{rec})

	Error("wsched", "ignored", errors.New("boom"))
	assert.Empty(t, rec.entries)
}

type disabledLogger struct{ *recordingLogger }

func (disabledLogger) Enabled(Level) bool { return false }

func TestNoopLogger_DiscardsEverything(t *testing.T) {
	prev := current()
	defer SetLogger(prev)

	SetLogger(NoopLogger{})
	assert.NotPanics(t, func() {
		Debug("ztrace", "noop")
		Warn("ztrace", "noop")
		Error("ztrace", "noop", errors.New("x"))
	})
}
