package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns a predetermined sequence of IDs.
//
// This enables deterministic session IDs in store tests and golden
// comparisons. Once the list is exhausted it falls back to
// "test-session-<n>".
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	n   int
}

// NewFixedIDGenerator creates a generator yielding ids in order.
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next ID.
//
// Implements store.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("test-session-%d", g.n)
}
