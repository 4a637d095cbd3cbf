package store

import "sync/atomic"

// Sequence is the monotonic id source of a store.
//
// Every inserted record takes the next value, so ids are unique and
// increase in insertion order.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations),
// though the single-writer engine design means only one goroutine calls Next.
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence whose first id is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence that resumes after start.
// Used when a store is reopened over existing rows.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next id and advances the sequence.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last id handed out without advancing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
