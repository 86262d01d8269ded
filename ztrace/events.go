package ztrace

import (
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"

	"github.com/joeycumines/go-rpcsched/wsched"
)

// TimerEvent records one timer firing, for collectors wired into the
// timer wheels' Check paths.
type TimerEvent struct {
	ShardIndex int
	DeadlineMs int64
	FiredAtMs  int64
}

func (e TimerEvent) AppendJSONFields(dst []byte) []byte {
	dst = append(dst, `"shard":`...)
	dst = strconv.AppendInt(dst, int64(e.ShardIndex), 10)
	dst = append(dst, `,"deadline_ms":`...)
	dst = jsonenc.AppendFloat64(dst, float64(e.DeadlineMs))
	dst = append(dst, `,"fired_at_ms":`...)
	dst = jsonenc.AppendFloat64(dst, float64(e.FiredAtMs))
	return dst
}

// ScheduleEvent records one write scheduler quantum's plan.
type ScheduleEvent struct {
	Trace wsched.WriteScheduleTrace
}

func (e ScheduleEvent) AppendJSONFields(dst []byte) []byte {
	dst = append(dst, `"num_ready":`...)
	dst = strconv.AppendInt(dst, int64(e.Trace.NumReady), 10)
	dst = append(dst, `,"outstanding_bytes":`...)
	dst = jsonenc.AppendFloat64(dst, e.Trace.OutstandingBytes)
	dst = append(dst, `,"end_time_requested":`...)
	dst = jsonenc.AppendFloat64(dst, e.Trace.EndTimeRequested)
	dst = append(dst, `,"end_time_adjusted":`...)
	dst = jsonenc.AppendFloat64(dst, e.Trace.EndTimeAdjusted)
	dst = append(dst, `,"min_tokens":`...)
	dst = jsonenc.AppendFloat64(dst, e.Trace.MinTokens)
	return dst
}

// ScheduleTraceSink adapts a Collector into a wsched.TraceSink, so
// MakePlan's lazily-produced trace feeds straight into the fabric
// without wsched importing ztrace.
func ScheduleTraceSink(c *Collector) wsched.TraceSink {
	return func(producer func() wsched.WriteScheduleTrace) {
		Append(c, func() ScheduleEvent { return ScheduleEvent{Trace: producer()} })
	}
}
