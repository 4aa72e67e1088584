package harness

import (
	"strconv"

	"github.com/roach88/combatlens/internal/ir"
)

// TraceEvent is one dispatched event as observed by the harness.
type TraceEvent struct {
	Label      string `json:"label"` // kind@ts, * prefix when fabricated
	Event      string `json:"event"` // full ir.Event.String form
	Kind       string `json:"kind"`
	Timestamp  int64  `json:"ts"`
	AbilityID  int64  `json:"ability_id"`
	Fabricated bool   `json:"fabricated,omitempty"`

	ev *ir.Event
}

// Relations returns the relation edges of the traced event. Links are
// only complete once the run has finished.
func (t TraceEvent) Relations() []ir.RelationEdge {
	if t.ev == nil {
		return nil
	}
	return t.ev.Relations()
}

// Label formats the short trace label of ev.
func Label(ev *ir.Event) string {
	prefix := ""
	if ev.Fabricated {
		prefix = "*"
	}
	return prefix + string(ev.Kind) + "@" + strconv.FormatInt(ev.Timestamp, 10)
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// RunID is the id the engine ran under.
	RunID string `json:"run_id"`

	// Trace contains every dispatched event in order.
	Trace []TraceEvent `json:"trace"`

	// Snapshot is the registry snapshot of a completed run; empty when
	// the run failed.
	Snapshot ir.IRObject `json:"snapshot"`

	// Digest is the snapshot digest of a completed run.
	Digest string `json:"digest,omitempty"`

	// RunError and ErrorCode describe a failed run.
	RunError  string `json:"run_error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Snapshot: ir.IRObject{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addTrace records a dispatched event.
func (r *Result) addTrace(ev *ir.Event) {
	r.Trace = append(r.Trace, TraceEvent{
		Label:      Label(ev),
		Event:      ev.String(),
		Kind:       string(ev.Kind),
		Timestamp:  ev.Timestamp,
		AbilityID:  ev.AbilityID,
		Fabricated: ev.Fabricated,
		ev:         ev,
	})
}
