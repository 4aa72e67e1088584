package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/combatlens/internal/ir"
)

// GoldenDocument renders the parts of a result a golden file pins: the
// run id, the dispatch trace and the final snapshot.
func GoldenDocument(name string, result *Result) ir.IRObject {
	trace := make(ir.IRArray, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ir.IRString(ev.Event)
	}
	doc := ir.IRObject{
		"scenario_name": ir.IRString(name),
		"run_id":        ir.IRString(result.RunID),
		"trace":         trace,
		"snapshot":      result.Snapshot,
	}
	if result.ErrorCode != "" {
		doc["error_code"] = ir.IRString(result.ErrorCode)
	}
	return doc
}

// RunWithGolden executes a scenario and compares its golden document
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := ir.MarshalCanonical(GoldenDocument(name, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
