package wsched

// Channel is one endpoint's state for a quantum: its stable id,
// readiness, and either its raw input (before MakePlan) or its derived
// credit (after MakePlan, in AllowedBytes).
type Channel struct {
	ID             uint32
	Ready          bool
	StartTime      float64 // seconds
	BytesPerSecond float64
	AllowedBytes   float64
}

// ScheduledChannel is the Z-Trace-facing snapshot of a Channel after
// MakePlan, independent of whichever scheduler variant produced it.
type ScheduledChannel struct {
	ID             uint32
	Ready          bool
	StartTime      float64
	BytesPerSecond float64
	AllowedBytes   float64
}

// WriteScheduleTrace is the payload SpanRR hands to its trace sink from
// MakePlan when at least one channel is ready. RandomChoice.MakePlan
// does not call its sink.
type WriteScheduleTrace struct {
	Channels         []ScheduledChannel
	OutstandingBytes float64
	EndTimeRequested float64
	EndTimeAdjusted  float64
	MinTokens        float64
	NumReady         int
}

// TraceSink receives a lazily-evaluated trace producer; it is invoked
// only when there's something to trace, mirroring ztrace's Append
// contract of not paying producer cost with no live instances.
type TraceSink func(producer func() WriteScheduleTrace)

// phase tracks where a Scheduler's quantum is in its strict
// Collect -> Plan -> Allocate order. MakePlan is the Plan step itself,
// so two values suffice: phaseCollect before it, phasePlanned (the
// Allocate phase) after it.
type phase int

const (
	phaseCollect phase = iota
	phasePlanned
)

// phaseGuard embeds into both scheduler variants to enforce the
// two-phase contract described in §4.5.1: AddChannel only valid before
// MakePlan, AllocateMessage only valid after.
type phaseGuard struct {
	p phase
}

func (g *phaseGuard) resetForCollect() {
	g.p = phaseCollect
}

func (g *phaseGuard) requireCollect(op string) {
	if g.p != phaseCollect {
		panicContract("%s called outside the Collect phase (call NewStep first)", op)
	}
}

func (g *phaseGuard) requirePlanned(op string) {
	if g.p != phasePlanned {
		panicContract("%s called before MakePlan", op)
	}
}

func (g *phaseGuard) markPlanned() {
	g.p = phasePlanned
}
