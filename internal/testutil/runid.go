package testutil

import (
	"fmt"
	"sync"
)

// SequentialRunIDs hands out run ids "<prefix>-1", "<prefix>-2", ... in
// call order.
//
// Unlike engine.FixedGenerator, SequentialRunIDs never runs out and can be
// reset for test reuse, so the same scenario run twice gets identical ids.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Concurrent batch runs still receive unique ids, but which session gets
// which id depends on scheduling.
type SequentialRunIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialRunIDs creates a generator. An empty prefix means "run".
func NewSequentialRunIDs(prefix string) *SequentialRunIDs {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialRunIDs{prefix: prefix}
}

// Generate returns the next id.
//
// Implements engine.RunIDGenerator interface.
func (g *SequentialRunIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Issued returns how many ids have been generated since the last Reset.
func (g *SequentialRunIDs) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts numbering. After Reset(), the next id ends in -1.
func (g *SequentialRunIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
