// Package harness provides scenario testing for combatlens analyses.
//
// The harness loads a session fixture and an analysis profile, runs the
// real engine over them and evaluates assertions against the dispatch
// trace, the relation tables and the final snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session: sessions/pull.yaml      # relative to the scenario file
//	profile: profiles/healer.cue     # optional, default profile if empty
//	modules: [wildGrowth]            # optional, overrides profile modules
//	run_id: fixed-run                # optional
//	assertions:
//	  - type: snapshot_equals
//	    path: wildGrowth.casts
//	    expect: 2
//	  - type: related_count
//	    relation: appliedHot
//	    kind: cast
//	    count: 3
//	  - type: fabricated_count
//	    kind: changehaste
//	    count: 2
//	  - type: dispatch_order
//	    events: ["cast@100", "*changehaste@100", "heal@100"]
//	  - type: error_code
//	    code: OUT_OF_ORDER_FABRICATION
//
// # Assertion Types
//
//   - snapshot_equals: the value at a dotted snapshot path equals expect
//   - related_count: number of relation edges on matching dispatched events
//   - fabricated_count: number of fabricated events dispatched, optionally by kind
//   - dispatch_order: labels appear in the trace in this order (gaps allowed)
//   - error_code: the run failed with this error code
//
// Trace labels are kind@ts, prefixed with * for fabricated events.
//
// # Deterministic Testing
//
// Every scenario runs with a fixed run id and a discarding logger, so
// two executions produce identical results and golden files compare
// byte for byte.
package harness
