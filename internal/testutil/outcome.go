package testutil

import "sync"

// Outcomes is a scripted outcome source for simulated external operations.
//
// It replays the given results in order; once they are used up every
// further draw succeeds. Implements engine.OutcomeSource.
//
// Thread-safety: safe for concurrent use via internal mutex.
type Outcomes struct {
	mu      sync.Mutex
	results []bool
	drawn   int
}

// NewOutcomes creates a source replaying results.
//
//	o := NewOutcomes(true, false)
//	o.Succeed() // true
//	o.Succeed() // false
//	o.Succeed() // true (script exhausted)
func NewOutcomes(results ...bool) *Outcomes {
	return &Outcomes{results: results}
}

// Succeed returns the next scripted result.
func (o *Outcomes) Succeed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	i := o.drawn
	o.drawn++
	if i < len(o.results) {
		return o.results[i]
	}
	return true
}

// Drawn returns how many outcomes have been drawn.
func (o *Outcomes) Drawn() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.drawn
}
