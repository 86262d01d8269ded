package wsched

// Scheduler maps an outstanding byte count across N channels each
// quantum. See the package doc for the three-phase contract.
type Scheduler interface {
	// SetConfig applies one key=value configuration option. Unknown keys
	// or values are logged and ignored, never treated as fatal.
	SetConfig(name, value string)

	// NewStep resets per-quantum state; Collect phase begins.
	NewStep(outstandingBytes, minTokens float64)

	// AddChannel registers one channel's current state for this
	// quantum. Valid only during the Collect phase.
	AddChannel(id uint32, ready bool, startTime, bytesPerSecond float64)

	// MakePlan materializes per-channel credits and transitions to the
	// Allocate phase. trace may be nil.
	MakePlan(trace TraceSink)

	// AllocateMessage returns the id of a ready channel that can absorb
	// bytes, or (0, false) if none qualifies. Valid only during the
	// Allocate phase.
	AllocateMessage(bytes uint64) (id uint32, ok bool)

	// Config renders the scheduler's current configuration back into
	// its wire form, round-tripping through Parse.
	Config() string
}
