package wsched

import (
	"math"
	"sort"
	"strconv"

	"github.com/joeycumines/go-rpcsched/internal/grpclog"
)

// EndOfBurst names SpanRR's tail-of-burst tie-breaking policy. It is
// parsed, stored and rendered by Config, but it does not change which
// channel AllocateMessage picks: see chooseChannel.
type EndOfBurst int

const (
	EndOfBurstRandomDeliveryTime EndOfBurst = iota
	EndOfBurstRandomAllowedBytes
	EndOfBurstRandomReady
	EndOfBurstRandomChannel
)

func (e EndOfBurst) String() string {
	switch e {
	case EndOfBurstRandomDeliveryTime:
		return "random_delivery_time"
	case EndOfBurstRandomAllowedBytes:
		return "random_allowed_bytes"
	case EndOfBurstRandomReady:
		return "random_ready"
	case EndOfBurstRandomChannel:
		return "random_channel"
	default:
		return "random_delivery_time"
	}
}

// SpanRR is the "spanrr" scheduler variant: it builds a plan each
// quantum that tries to have every channel finish delivering its
// allotted bytes near the same target end time, then allocates
// messages round robin across ready channels with spare credit.
type SpanRR struct {
	phaseGuard

	channels  []Channel
	numReady  int
	nextReady int

	stepRequested float64 // configured quantum length, seconds
	endOfBurst    EndOfBurst

	initialOutstandingBytes float64
	outstandingBytes        float64
	minTokens               float64
	endTimeAdjusted         float64

	rand randSource
}

// SpanRROption configures a SpanRR scheduler.
type SpanRROption func(*SpanRR)

// WithStep sets the default quantum length in seconds.
func WithStep(seconds float64) SpanRROption {
	return func(s *SpanRR) { s.stepRequested = seconds }
}

// WithEndOfBurst sets the tail-of-burst tie-breaking policy.
func WithEndOfBurst(e EndOfBurst) SpanRROption {
	return func(s *SpanRR) { s.endOfBurst = e }
}

// WithSpanRRRandSource overrides the shared bit generator, for
// deterministic tests.
func WithSpanRRRandSource(src randSource) SpanRROption {
	return func(s *SpanRR) {
		if src != nil {
			s.rand = src
		}
	}
}

// NewSpanRR constructs a SpanRR scheduler with the source's defaults:
// a one-second step and the random_delivery_time end-of-burst policy.
func NewSpanRR(opts ...SpanRROption) *SpanRR {
	s := &SpanRR{stepRequested: 1.0, endOfBurst: EndOfBurstRandomDeliveryTime, rand: globalRand{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SpanRR) SetConfig(name, value string) {
	switch name {
	case "step":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			grpclog.Warn("wsched", "unparseable spanrr step value, ignored", grpclog.Field{Key: "value", Value: value})
			return
		}
		s.stepRequested = v
	case "end_of_burst":
		switch value {
		case "random_delivery_time":
			s.endOfBurst = EndOfBurstRandomDeliveryTime
		case "random_allowed_bytes":
			s.endOfBurst = EndOfBurstRandomAllowedBytes
		case "random_ready":
			s.endOfBurst = EndOfBurstRandomReady
		case "random_channel":
			s.endOfBurst = EndOfBurstRandomChannel
		default:
			grpclog.Warn("wsched", "unknown spanrr end_of_burst value, ignored", grpclog.Field{Key: "value", Value: value})
		}
	default:
		grpclog.Warn("wsched", "unknown spanrr config key, ignored", grpclog.Field{Key: "key", Value: name})
	}
}

func (s *SpanRR) Config() string {
	return "spanrr:end_of_burst=" + s.endOfBurst.String() + ":step=" + strconv.FormatFloat(s.stepRequested, 'g', -1, 64)
}

func (s *SpanRR) NewStep(outstandingBytes, minTokens float64) {
	s.initialOutstandingBytes = outstandingBytes
	s.outstandingBytes = outstandingBytes
	s.minTokens = minTokens
	s.channels = s.channels[:0]
	s.nextReady = 0
	s.resetForCollect()
}

func (s *SpanRR) AddChannel(id uint32, ready bool, startTime, bytesPerSecond float64) {
	s.requireCollect("AddChannel")
	s.channels = append(s.channels, Channel{ID: id, Ready: ready, StartTime: startTime, BytesPerSecond: bytesPerSecond})
}

func (s *SpanRR) MakePlan(trace TraceSink) {
	s.requireCollect("MakePlan")

	s.adjustEndTimeForMinTokens()
	sort.Slice(s.channels, func(i, j int) bool { return s.channels[i].StartTime < s.channels[j].StartTime })

	for i := range s.channels {
		if !s.distributeBytesToCollective(i) {
			break
		}
	}

	s.numReady = stablePartitionReady(s.channels)
	if s.numReady > 1 {
		shuffle(s.rand, s.channels[:s.numReady])
	}

	if s.numReady != 0 && trace != nil {
		trace(s.buildTrace)
	}

	s.markPlanned()
}

// adjustEndTimeForMinTokens pushes the plan's end time out far enough
// that the channel which would reach min_tokens soonest can deliver at
// least min_tokens bytes before it, preventing a short quantum from
// starving a token floor. Slower channels may still fall short of it.
func (s *SpanRR) adjustEndTimeForMinTokens() {
	earliest := math.Inf(1)
	for _, c := range s.channels {
		if c.BytesPerSecond <= 0 {
			continue
		}
		end := c.StartTime + s.minTokens/c.BytesPerSecond
		if end < earliest {
			earliest = end
		}
	}
	if math.IsInf(earliest, 1) {
		// No channel reports a usable rate, so there is nothing to push
		// the end time out for; fall back to the requested step so the
		// distribution window below stays finite.
		earliest = s.stepRequested
	}
	s.endTimeAdjusted = math.Max(s.stepRequested, earliest)
}

// distributeBytesToCollective folds outstanding bytes into the window
// between channels[maxIdx] and the next channel's start time (or the
// plan's end time at the tail), split pro-rata by rate across every
// channel from 0 to maxIdx inclusive ("the collective"). Returns false
// once outstanding bytes are exhausted or the next channel starts
// after the plan's end time, signalling MakePlan to stop admitting
// further channels.
func (s *SpanRR) distributeBytesToCollective(maxIdx int) bool {
	if s.outstandingBytes < 1.0 {
		return false
	}
	startTime := s.channels[maxIdx].StartTime
	if startTime > s.endTimeAdjusted {
		return false
	}

	endTime := s.endTimeAdjusted
	if maxIdx != len(s.channels)-1 {
		endTime = math.Min(endTime, s.channels[maxIdx+1].StartTime)
	}

	totalRate := 0.0
	for i := 0; i <= maxIdx; i++ {
		totalRate += s.channels[i].BytesPerSecond
	}

	bytesDeliverable := totalRate * (endTime - startTime)
	var bytesToDeliver float64
	if bytesDeliverable >= s.outstandingBytes {
		bytesToDeliver = s.outstandingBytes
		s.outstandingBytes = 0
	} else {
		bytesToDeliver = bytesDeliverable
		s.outstandingBytes -= bytesDeliverable
	}

	if totalRate > 0 {
		for i := 0; i <= maxIdx; i++ {
			s.channels[i].AllowedBytes += bytesToDeliver * s.channels[i].BytesPerSecond / totalRate
		}
	}
	return true
}

func (s *SpanRR) buildTrace() WriteScheduleTrace {
	channels := make([]ScheduledChannel, len(s.channels))
	for i, c := range s.channels {
		channels[i] = ScheduledChannel{ID: c.ID, Ready: c.Ready, StartTime: c.StartTime, BytesPerSecond: c.BytesPerSecond, AllowedBytes: c.AllowedBytes}
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ID < channels[j].ID })
	return WriteScheduleTrace{
		Channels:         channels,
		OutstandingBytes: s.initialOutstandingBytes,
		EndTimeRequested: s.stepRequested,
		EndTimeAdjusted:  s.endTimeAdjusted,
		MinTokens:        s.minTokens,
		NumReady:         s.numReady,
	}
}

func (s *SpanRR) AllocateMessage(bytes uint64) (uint32, bool) {
	s.requirePlanned("AllocateMessage")
	if s.numReady == 0 {
		return 0, false
	}

	idx, ok := s.chooseChannel(bytes)
	if !ok || idx >= s.numReady {
		return 0, false
	}

	c := &s.channels[idx]
	c.AllowedBytes -= float64(bytes)
	if c.BytesPerSecond > 0 {
		c.StartTime += float64(bytes) / c.BytesPerSecond
	}
	return c.ID, true
}

// chooseChannel finds a channel with enough allowed_bytes to absorb
// bytes: first a round-robin sweep of the ready prefix, then a check
// of the non-ready tail (a positive hit there means "don't schedule
// yet"). Those two sweeps cover every channel, so when both come up
// empty no channel has room, the capacity gate below fails, and
// chooseChannel reports none; the randomized end-of-burst policies
// after the gate are never reached.
func (s *SpanRR) chooseChannel(bytes uint64) (int, bool) {
	firstChecked := s.nextReady
	for {
		idx := s.nextReady
		s.nextReady = (s.nextReady + 1) % s.numReady
		if s.channels[idx].AllowedBytes >= float64(bytes) {
			return idx, true
		}
		if s.nextReady == firstChecked {
			break
		}
	}

	for i := s.numReady; i < len(s.channels); i++ {
		if s.channels[i].AllowedBytes >= float64(bytes) {
			return i, true
		}
	}

	// Every qualifying path above requires spare allowed_bytes, and the
	// end-of-burst biases below only consider channels that have it, so
	// if nothing anywhere has room for this message there is no channel
	// to hand it to. The sweeps above already checked every channel,
	// so this gate always returns here.
	hasCapacity := false
	for i := range s.channels {
		if s.channels[i].AllowedBytes >= float64(bytes) {
			hasCapacity = true
			break
		}
	}
	if !hasCapacity {
		return 0, false
	}

	switch s.endOfBurst {
	case EndOfBurstRandomDeliveryTime:
		return randomIndex(s.rand, len(s.channels), func(i int) float64 {
			c := s.channels[i]
			if c.AllowedBytes < float64(bytes) || c.BytesPerSecond <= 0 {
				return 0
			}
			return 1.0 / (c.StartTime + float64(bytes)/c.BytesPerSecond)
		})
	case EndOfBurstRandomAllowedBytes:
		return randomIndex(s.rand, len(s.channels), func(i int) float64 {
			if s.channels[i].AllowedBytes < float64(bytes) {
				return 0
			}
			return s.channels[i].AllowedBytes
		})
	case EndOfBurstRandomReady:
		return randomIndex(s.rand, s.numReady, func(i int) float64 {
			if s.channels[i].AllowedBytes < float64(bytes) {
				return 0
			}
			return 1.0
		})
	case EndOfBurstRandomChannel:
		return randomIndex(s.rand, len(s.channels), func(i int) float64 {
			if s.channels[i].AllowedBytes < float64(bytes) {
				return 0
			}
			return 1.0
		})
	}
	return 0, false
}

// shuffle performs an in-place Fisher-Yates shuffle using src, biasing
// selection away from the stable insertion order MakePlan otherwise
// leaves ready channels in.
func shuffle[T any](src randSource, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := int(src.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		items[i], items[j] = items[j], items[i]
	}
}
