package testutil

import (
	"fmt"
	"sync"
)

// CountingTokens generates predictable unique tokens: "<prefix>0001",
// "<prefix>0002", ...
//
// Implements engine.TokenGenerator. It never runs out, which suits scenarios
// of unknown length.
//
// Thread-safety: safe for concurrent use via internal mutex.
type CountingTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewCountingTokens creates a generator. An empty prefix defaults to "tok".
func NewCountingTokens(prefix string) *CountingTokens {
	if prefix == "" {
		prefix = "tok"
	}
	return &CountingTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *CountingTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%04d", g.prefix, g.n)
}
