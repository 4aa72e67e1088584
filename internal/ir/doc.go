// Package ir provides the event model shared by every combatlens package.
//
// It holds the Event record, the run-owned Sequence, the append-only relation
// table attached to each event, and the constrained value types used for
// derived payloads and module snapshots. ir imports nothing internal.
//
// Key constraints:
//   - NO float types in payloads or snapshots; fixed-point int64 only
//   - Timestamps are integer milliseconds from the log
//   - Relation edges are append-only once placed
//   - Canonical JSON (RFC 8785) is the only encoding used for digests
package ir
