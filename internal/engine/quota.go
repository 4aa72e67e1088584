package engine

import "fmt"

// DefaultMaxFabrications bounds the fabricated events of one run. A module
// that fabricates in reaction to its own fabricated events would otherwise
// never let the pass end.
const DefaultMaxFabrications = 1_000_000

// QuotaEnforcer counts fabrications for one run and enforces the limit.
type QuotaEnforcer struct {
	max     int
	current int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(limit int) *QuotaEnforcer {
	return &QuotaEnforcer{max: limit}
}

// Check increments the counter and validates it against the limit.
func (q *QuotaEnforcer) Check(runID string) error {
	q.current++
	if q.current > q.max {
		return &FabricationsExceededError{RunID: runID, Count: q.current, Limit: q.max}
	}
	return nil
}

// Current returns the number of fabrications so far.
func (q *QuotaEnforcer) Current() int { return q.current }

// Max returns the limit.
func (q *QuotaEnforcer) Max() int { return q.max }

// FabricationsExceededError is returned when a run exceeds its quota.
type FabricationsExceededError struct {
	RunID string
	Count int
	Limit int
}

func (e *FabricationsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded fabrication quota: %d > %d", e.RunID, e.Count, e.Limit)
}
