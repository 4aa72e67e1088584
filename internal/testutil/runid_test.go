package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/combatlens/internal/engine"
)

var _ engine.RunIDGenerator = (*SequentialRunIDs)(nil)

func TestSequentialRunIDs(t *testing.T) {
	gen := NewSequentialRunIDs("cli")

	assert.Equal(t, "cli-1", gen.Generate())
	assert.Equal(t, "cli-2", gen.Generate())
	assert.Equal(t, 2, gen.Issued())

	gen.Reset()
	assert.Equal(t, 0, gen.Issued())
	assert.Equal(t, "cli-1", gen.Generate(), "numbering restarts after reset")
}

func TestSequentialRunIDsDefaultPrefix(t *testing.T) {
	assert.Equal(t, "run-1", NewSequentialRunIDs("").Generate())
}

func TestSequentialRunIDsConcurrent(t *testing.T) {
	gen := NewSequentialRunIDs("")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every id is unique")
	assert.Equal(t, 1000, gen.Issued())
}
