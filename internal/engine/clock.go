package engine

// subClock numbers fabricated events in creation order. Native events keep
// Sub 0, so the first value handed out is 1. A run owns exactly one
// subClock and only touches it from the dispatch goroutine.
type subClock struct {
	last int64
}

func (c *subClock) next() int64 {
	c.last++
	return c.last
}
