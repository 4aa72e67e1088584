package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/roach88/combatlens/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, event.Event)
		}
	}

	return buf.String()
}

// assertSnapshotEquals compares the value at a dotted snapshot path with
// the expected YAML value. Values are compared in canonical JSON form.
func assertSnapshotEquals(snapshot ir.IRObject, assertion Assertion) error {
	actual, ok := lookupPath(snapshot, assertion.Path)
	if !ok {
		return &AssertionError{
			Type:     AssertSnapshotEquals,
			Expected: fmt.Sprintf("value at %s", assertion.Path),
			Actual:   "path not found in snapshot",
		}
	}

	expected, err := ir.FromAny(assertion.Expect)
	if err != nil {
		return fmt.Errorf("snapshot_equals %s: invalid expect: %w", assertion.Path, err)
	}

	want, err := ir.MarshalCanonical(expected)
	if err != nil {
		return fmt.Errorf("snapshot_equals %s: %w", assertion.Path, err)
	}
	got, err := ir.MarshalCanonical(actual)
	if err != nil {
		return fmt.Errorf("snapshot_equals %s: %w", assertion.Path, err)
	}
	if !bytes.Equal(want, got) {
		return &AssertionError{
			Type:     AssertSnapshotEquals,
			Expected: fmt.Sprintf("%s = %s", assertion.Path, want),
			Actual:   string(got),
		}
	}
	return nil
}

// lookupPath walks a dotted path through nested objects. Array elements
// are addressed by decimal index.
func lookupPath(obj ir.IRObject, path string) (ir.IRValue, bool) {
	var cur ir.IRValue = obj
	for _, part := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case ir.IRObject:
			next, ok := v[part]
			if !ok {
				return nil, false
			}
			cur = next
		case ir.IRArray:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// matches reports whether a traced event passes the assertion's kind,
// ability and timestamp narrowing.
func (a Assertion) matches(ev TraceEvent) bool {
	if a.Kind != "" && ev.Kind != a.Kind {
		return false
	}
	if a.Ability != 0 && ev.AbilityID != a.Ability {
		return false
	}
	if a.Timestamp != nil && ev.Timestamp != *a.Timestamp {
		return false
	}
	return true
}

// assertRelatedCount counts edges named Relation on matching events.
func assertRelatedCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, ev := range trace {
		if !assertion.matches(ev) {
			continue
		}
		for _, edge := range ev.Relations() {
			if edge.Name == assertion.Relation {
				count++
			}
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertRelatedCount,
			Expected: fmt.Sprintf("%d %s edges%s", *assertion.Count, assertion.Relation, assertion.narrowing()),
			Actual:   fmt.Sprintf("%d edges", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFabricatedCount counts fabricated events on matching events.
func assertFabricatedCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Fabricated && assertion.matches(ev) {
			count++
		}
	}

	if count != *assertion.Count {
		return &AssertionError{
			Type:     AssertFabricatedCount,
			Expected: fmt.Sprintf("%d fabricated events%s", *assertion.Count, assertion.narrowing()),
			Actual:   fmt.Sprintf("%d fabricated events", count),
			Trace:    trace,
		}
	}
	return nil
}

func (a Assertion) narrowing() string {
	var parts []string
	if a.Kind != "" {
		parts = append(parts, "kind="+a.Kind)
	}
	if a.Ability != 0 {
		parts = append(parts, fmt.Sprintf("ability=%d", a.Ability))
	}
	if a.Timestamp != nil {
		parts = append(parts, fmt.Sprintf("ts=%d", *a.Timestamp))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// assertDispatchOrder checks that the labels appear in the trace in the
// specified order. Labels don't need to be consecutive (intervening
// events are allowed), and each label consumes one trace entry.
func assertDispatchOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(assertion.Events) && ev.Label == assertion.Events[next] {
			next++
		}
	}

	if next < len(assertion.Events) {
		labels := make([]string, len(trace))
		for i, ev := range trace {
			labels[i] = ev.Label
		}
		return &AssertionError{
			Type:     AssertDispatchOrder,
			Expected: fmt.Sprintf("events in order: %v", assertion.Events),
			Actual:   fmt.Sprintf("%s not found after %v in %v", assertion.Events[next], assertion.Events[:next], labels),
		}
	}
	return nil
}

// assertErrorCode checks that the run failed with the given code.
func assertErrorCode(result *Result, assertion Assertion) error {
	if result.RunError == "" {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: fmt.Sprintf("run failure with code %s", assertion.Code),
			Actual:   "run completed",
		}
	}
	if result.ErrorCode != assertion.Code {
		return &AssertionError{
			Type:     AssertErrorCode,
			Expected: assertion.Code,
			Actual:   fmt.Sprintf("%s (%s)", result.ErrorCode, result.RunError),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSnapshotEquals:
			err = assertSnapshotEquals(result.Snapshot, assertion)
		case AssertRelatedCount:
			err = assertRelatedCount(result.Trace, assertion)
		case AssertFabricatedCount:
			err = assertFabricatedCount(result.Trace, assertion)
		case AssertDispatchOrder:
			err = assertDispatchOrder(result.Trace, assertion)
		case AssertErrorCode:
			err = assertErrorCode(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
