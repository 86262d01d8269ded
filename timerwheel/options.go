package timerwheel

// Option configures a Wheel at construction time, following the same
// functional-options shape eventloop uses for LoopOption.
type Option func(*options)

type options struct {
	shardCount int
}

func defaultOptions() options {
	return options{shardCount: 16}
}

// WithShardCount sets the number of independent shards the wheel
// spreads timers across. It must be a positive number; non-positive
// values are ignored, leaving the default of 16 in place.
func WithShardCount(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.shardCount = n
		}
	}
}

func resolveOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
