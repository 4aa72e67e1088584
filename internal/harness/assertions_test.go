package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/ir"
)

func intPtr(n int) *int    { return &n }
func tsPtr(n int64) *int64 { return &n }

// linkedResult traces a cast linked to two buff applications plus one
// fabricated buff.
func linkedResult() *Result {
	cast := &ir.Event{Kind: ir.KindCast, Timestamp: 100, AbilityID: 48438, SourceID: 1, TargetID: 5}
	a := &ir.Event{Kind: ir.KindApplyBuff, Timestamp: 120, AbilityID: 48438, SourceID: 1, TargetID: 5, Position: 1}
	b := &ir.Event{Kind: ir.KindApplyBuff, Timestamp: 130, AbilityID: 48438, SourceID: 1, TargetID: 6, Position: 2}
	pre := &ir.Event{Kind: ir.KindApplyBuff, Timestamp: 100, AbilityID: 774, SourceID: 1, TargetID: 1, Fabricated: true}

	cast.AddRelation("appliedHot", a)
	cast.AddRelation("appliedHot", b)
	a.AddRelation("fromHardcast", cast)
	b.AddRelation("fromHardcast", cast)

	r := NewResult()
	for _, ev := range []*ir.Event{pre, cast, a, b} {
		r.addTrace(ev)
	}
	r.Snapshot = ir.IRObject{
		"wildGrowth": ir.IRObject{
			"casts": ir.IRInt(1),
			"log":   ir.IRArray{ir.IRObject{"ts": ir.IRInt(100), "hits": ir.IRInt(2)}},
		},
	}
	return r
}

func TestTraceLabels(t *testing.T) {
	r := linkedResult()
	require.Len(t, r.Trace, 4)
	assert.Equal(t, "*applybuff@100", r.Trace[0].Label)
	assert.Equal(t, "cast@100", r.Trace[1].Label)
	assert.Equal(t, "applybuff@120#1.0 ability=48438 1->5", r.Trace[2].Event)
	assert.True(t, r.Trace[0].Fabricated)
	assert.Len(t, r.Trace[1].Relations(), 2)
	assert.Nil(t, TraceEvent{}.Relations())
}

func TestAssertSnapshotEquals(t *testing.T) {
	r := linkedResult()

	tests := []struct {
		name   string
		path   string
		expect any
		fails  bool
	}{
		{"scalar", "wildGrowth.casts", 1, false},
		{"array index", "wildGrowth.log.0.hits", 2, false},
		{"object", "wildGrowth.log.0", map[string]any{"hits": 2, "ts": 100}, false},
		{"wrong value", "wildGrowth.casts", 2, true},
		{"wrong type", "wildGrowth.casts", "1", true},
		{"missing key", "wildGrowth.nope", 1, true},
		{"index out of range", "wildGrowth.log.3", 1, true},
		{"through scalar", "wildGrowth.casts.x", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(r, []Assertion{{Type: AssertSnapshotEquals, Path: tt.path, Expect: tt.expect}})
			if tt.fails {
				assert.Len(t, errs, 1)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestAssertSnapshotEqualsRejectsFloat(t *testing.T) {
	errs := EvaluateAssertions(linkedResult(), []Assertion{{Type: AssertSnapshotEquals, Path: "wildGrowth.casts", Expect: 1.5}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "invalid expect")
}

func TestAssertRelatedCount(t *testing.T) {
	r := linkedResult()

	tests := []struct {
		name string
		a    Assertion
		ok   bool
	}{
		{"all edges", Assertion{Relation: "appliedHot", Count: intPtr(2)}, true},
		{"by kind", Assertion{Relation: "fromHardcast", Kind: "applybuff", Count: intPtr(2)}, true},
		{"by ts", Assertion{Relation: "fromHardcast", Timestamp: tsPtr(130), Count: intPtr(1)}, true},
		{"by ability", Assertion{Relation: "appliedHot", Ability: 774, Count: intPtr(0)}, true},
		{"mismatch", Assertion{Relation: "appliedHot", Count: intPtr(3)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.a.Type = AssertRelatedCount
			errs := EvaluateAssertions(r, []Assertion{tt.a})
			if tt.ok {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], "Expected: 3 appliedHot edges")
			assert.Contains(t, errs[0], "Actual: 2 edges")
			assert.Contains(t, errs[0], "Full trace:")
		})
	}
}

func TestAssertFabricatedCount(t *testing.T) {
	r := linkedResult()

	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertFabricatedCount, Count: intPtr(1)}}))
	assert.Empty(t, EvaluateAssertions(r, []Assertion{{Type: AssertFabricatedCount, Kind: "cast", Count: intPtr(0)}}))

	errs := EvaluateAssertions(r, []Assertion{{Type: AssertFabricatedCount, Kind: "applybuff", Count: intPtr(2)}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "(kind=applybuff)")
}

func TestAssertDispatchOrder(t *testing.T) {
	r := linkedResult()

	tests := []struct {
		name   string
		events []string
		ok     bool
	}{
		{"full", []string{"*applybuff@100", "cast@100", "applybuff@120", "applybuff@130"}, true},
		{"gaps allowed", []string{"*applybuff@100", "applybuff@130"}, true},
		{"wrong order", []string{"cast@100", "*applybuff@100"}, false},
		{"fabrication marker matters", []string{"applybuff@100"}, false},
		{"each label used once", []string{"cast@100", "cast@100"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(r, []Assertion{{Type: AssertDispatchOrder, Events: tt.events}})
			if tt.ok {
				assert.Empty(t, errs)
			} else {
				assert.Len(t, errs, 1)
			}
		})
	}
}

func TestAssertErrorCode(t *testing.T) {
	ok := linkedResult()
	errs := EvaluateAssertions(ok, []Assertion{{Type: AssertErrorCode, Code: "HANDLER_FAILED"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "run completed")

	failed := NewResult()
	failed.RunError = "HANDLER_FAILED: boom"
	failed.ErrorCode = "HANDLER_FAILED"
	assert.Empty(t, EvaluateAssertions(failed, []Assertion{{Type: AssertErrorCode, Code: "HANDLER_FAILED"}}))

	errs = EvaluateAssertions(failed, []Assertion{{Type: AssertErrorCode, Code: "LATE_SUBSCRIPTION"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Actual: HANDLER_FAILED (HANDLER_FAILED: boom)")
}

func TestEvaluateAssertionsUnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "nope"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "nope"`)
}
