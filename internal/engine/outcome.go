package engine

import (
	"math/rand/v2"
	"sync"
)

// DefaultSuccessRate is the probability that a simulated external
// operation (payment capture, notification delivery) succeeds.
const DefaultSuccessRate = 0.9

// OutcomeSource decides the result of a simulated external operation.
// Implemented by RandomOutcome (production), FixedOutcome and
// testutil.Outcomes (tests).
type OutcomeSource interface {
	Succeed() bool
}

// RandomOutcome succeeds with probability Rate.
// The decision is synchronous and never delays the caller.
//
// Thread-safety: safe for concurrent use.
type RandomOutcome struct {
	Rate float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomOutcome creates a source with the given success rate.
// A nil rng uses a randomly seeded PCG generator.
func NewRandomOutcome(rate float64, rng *rand.Rand) *RandomOutcome {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &RandomOutcome{Rate: rate, rng: rng}
}

// Succeed draws one outcome.
func (o *RandomOutcome) Succeed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rng == nil {
		return rand.Float64() < o.Rate
	}
	return o.rng.Float64() < o.Rate
}

// FixedOutcome always returns the same result.
type FixedOutcome bool

// Succeed returns the fixed result.
func (o FixedOutcome) Succeed() bool {
	return bool(o)
}
