// Package engine runs one analysis over one session.
//
// ARCHITECTURE:
//
// A run has four stages, all on the calling goroutine:
//  1. Validation: events missing attributes for their kind are dropped
//     and recorded as diagnostics.
//  2. Normalization: normalizers (the linker, prepull fabrication) build
//     the relation table and may splice events into the sequence.
//  3. Construction: module.Build constructs every module in dependency
//     order; modules subscribe with filters and may fabricate initial
//     events.
//  4. Dispatch: one linear pass merges the sequence with a min-heap of
//     pending fabricated events and invokes matching subscriptions.
//
// ORDERING:
//
// Every dispatched event has a key (timestamp, position, sub). Native
// events use their sequence position and sub 0. An event fabricated while
// event E is being dispatched takes E's position and a fresh sub from the
// run clock, so it is dispatched after E and after anything fabricated
// earlier at the same anchor, but before every native event with a larger
// key. Subscriptions fire in module construction order, then registration
// order.
//
// FAILURE:
//
// A handler error, an out-of-order fabrication or an exhausted fabrication
// quota aborts the run. The caller gets no registry, so no partial module
// state is observable. Independent runs share nothing and may execute
// concurrently (see AnalyzeAll).
package engine
