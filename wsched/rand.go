package wsched

import "math/rand/v2"

// randSource is the shared bit generator both scheduler variants draw
// from when breaking ties randomly. math/rand/v2's package-level
// functions are already safe for concurrent use, so the default
// implementation just forwards to them; tests that need determinism
// inject their own via WithRandSource.
type randSource interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// randomChannel picks one channel from candidates, weighted by
// weightFn, mirroring scheduler.cc's RandomChannel<Channel, WeightFn>:
// walk once to sum positive weights, roll a die over that sum, walk
// again to find where the die landed. Channels with weight <= 0 are
// excluded. Returns false if no channel has positive weight.
func randomChannel[T any](src randSource, candidates []T, bytes uint64, weightFn func(T, uint64) float64) (T, bool) {
	var zero T
	if len(candidates) == 0 {
		return zero, false
	}
	if len(candidates) == 1 {
		if weightFn(candidates[0], bytes) > 0 {
			return candidates[0], true
		}
		return zero, false
	}

	totalWeight := 0.0
	for _, c := range candidates {
		if w := weightFn(c, bytes); w > 0 {
			totalWeight += w
		}
	}
	if totalWeight <= 0 {
		return zero, false
	}

	diceRoll := src.Float64() * totalWeight
	for _, c := range candidates {
		w := weightFn(c, bytes)
		if w <= 0 {
			continue
		}
		if w >= diceRoll {
			return c, true
		}
		diceRoll -= w
	}
	return zero, false
}

// randomIndex is the same weighted-sampling walk as randomChannel, but
// over a contiguous range of indices [0, n) rather than a slice of
// values — used where the caller needs to recover the winning
// candidate's original position (e.g. to check whether it fell within
// the ready prefix).
func randomIndex(src randSource, n int, weightFn func(i int) float64) (int, bool) {
	if n == 0 {
		return 0, false
	}
	if n == 1 {
		return 0, weightFn(0) > 0
	}

	totalWeight := 0.0
	for i := 0; i < n; i++ {
		if w := weightFn(i); w > 0 {
			totalWeight += w
		}
	}
	if totalWeight <= 0 {
		return 0, false
	}

	diceRoll := src.Float64() * totalWeight
	for i := 0; i < n; i++ {
		w := weightFn(i)
		if w <= 0 {
			continue
		}
		if w >= diceRoll {
			return i, true
		}
		diceRoll -= w
	}
	return 0, false
}
