package engine

import (
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/module"
)

// Diagnostic records one event skipped as malformed.
type Diagnostic struct {
	Index     int     `json:"index"`
	Kind      ir.Kind `json:"kind"`
	Timestamp int64   `json:"ts"`
	AbilityID int64   `json:"ability_id"`
	Ability   string  `json:"ability"`
	Reason    string  `json:"reason"`
}

// Stats counts what a run did.
type Stats struct {
	InputEvents  int `json:"input_events"`
	Malformed    int `json:"malformed"`
	Spliced      int `json:"spliced"`
	Edges        int `json:"edges"`
	Fabricated   int `json:"fabricated"`
	Dispatched   int `json:"dispatched"`
	HandlerCalls int `json:"handler_calls"`
}

// Result is the outcome of a completed run.
type Result struct {
	RunID       string
	SessionID   string
	Registry    *module.Registry
	Diagnostics []Diagnostic
	Reports     []linker.Report
	Stats       Stats
}

// Snapshot returns the final state of every module that exposes one.
func (r *Result) Snapshot() ir.IRObject {
	return r.Registry.Snapshot()
}

// Digest hashes Snapshot. Two runs over the same input and module specs
// produce the same digest.
func (r *Result) Digest() (string, error) {
	return ir.SnapshotDigest(r.Snapshot())
}
