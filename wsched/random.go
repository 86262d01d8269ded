package wsched

import "github.com/joeycumines/go-rpcsched/internal/grpclog"

// WeightMode selects how RandomChoice weighs its candidates.
type WeightMode int

const (
	WeightAnyReady WeightMode = iota
	WeightInverseReceiveTime
	WeightReadyInverseReceiveTime
)

func (m WeightMode) String() string {
	switch m {
	case WeightAnyReady:
		return "any_ready"
	case WeightInverseReceiveTime:
		return "inverse_receive_time"
	case WeightReadyInverseReceiveTime:
		return "ready_inverse_receive_time"
	default:
		return "any_ready"
	}
}

// RandomChoice implements the "rand" scheduler variant: it never builds
// a plan, just partitions ready channels to the front and samples one
// at allocation time with a weighted die roll.
type RandomChoice struct {
	phaseGuard

	channels []Channel
	numReady int

	weight WeightMode
	rand   randSource
}

// RandomChoiceOption configures a RandomChoice scheduler.
type RandomChoiceOption func(*RandomChoice)

// WithWeightMode sets the candidate-weighting strategy.
func WithWeightMode(m WeightMode) RandomChoiceOption {
	return func(r *RandomChoice) { r.weight = m }
}

// WithRandSource overrides the shared bit generator, for deterministic
// tests.
func WithRandSource(src randSource) RandomChoiceOption {
	return func(r *RandomChoice) {
		if src != nil {
			r.rand = src
		}
	}
}

// NewRandomChoice constructs a RandomChoice scheduler with WeightAnyReady
// as the default weighting, matching the source default.
func NewRandomChoice(opts ...RandomChoiceOption) *RandomChoice {
	r := &RandomChoice{weight: WeightAnyReady, rand: globalRand{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RandomChoice) SetConfig(name, value string) {
	if name != "weight" {
		grpclog.Warn("wsched", "unknown rand config key, ignored", grpclog.Field{Key: "key", Value: name})
		return
	}
	switch value {
	case "any_ready":
		r.weight = WeightAnyReady
	case "inverse_receive_time":
		r.weight = WeightInverseReceiveTime
	case "ready_inverse_receive_time":
		r.weight = WeightReadyInverseReceiveTime
	default:
		grpclog.Warn("wsched", "unknown rand weight value, ignored", grpclog.Field{Key: "value", Value: value})
	}
}

func (r *RandomChoice) NewStep(float64, float64) {
	r.channels = r.channels[:0]
	r.resetForCollect()
}

func (r *RandomChoice) AddChannel(id uint32, ready bool, startTime, bytesPerSecond float64) {
	r.requireCollect("AddChannel")
	r.channels = append(r.channels, Channel{ID: id, Ready: ready, StartTime: startTime, BytesPerSecond: bytesPerSecond})
}

func (r *RandomChoice) MakePlan(TraceSink) {
	r.requireCollect("MakePlan")
	r.numReady = stablePartitionReady(r.channels)
	r.markPlanned()
}

func (r *RandomChoice) AllocateMessage(bytes uint64) (uint32, bool) {
	r.requirePlanned("AllocateMessage")

	var c Channel
	var ok bool
	switch r.weight {
	case WeightAnyReady:
		c, ok = randomChannel(r.rand, r.channels[:r.numReady], bytes, func(Channel, uint64) float64 { return 1.0 })
	case WeightInverseReceiveTime:
		c, ok = randomChannel(r.rand, r.channels, bytes, inverseReceiveTimeWeight)
	case WeightReadyInverseReceiveTime:
		c, ok = randomChannel(r.rand, r.channels[:r.numReady], bytes, inverseReceiveTimeWeight)
	}
	if !ok || !c.Ready {
		return 0, false
	}
	return c.ID, true
}

func (r *RandomChoice) Config() string {
	return "rand:weight=" + r.weight.String()
}

func inverseReceiveTimeWeight(c Channel, bytes uint64) float64 {
	deliveryTime := c.StartTime + float64(bytes)/c.BytesPerSecond
	return 1.0 / deliveryTime
}

// stablePartitionReady moves ready channels to the front, preserving
// relative order within each group, and returns the count of ready
// channels.
func stablePartitionReady(channels []Channel) int {
	ready := make([]Channel, 0, len(channels))
	notReady := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c.Ready {
			ready = append(ready, c)
		} else {
			notReady = append(notReady, c)
		}
	}
	copy(channels, ready)
	copy(channels[len(ready):], notReady)
	return len(ready)
}
