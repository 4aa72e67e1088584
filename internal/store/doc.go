// Package store provides SQLite-backed storage for imported sessions and
// the final snapshots of analysis runs.
//
// The store holds inputs and outputs only:
//   - Sessions: fight window and combatant of one recording
//   - Events: the native events of a session, one row per event
//   - Runs: digest and canonical snapshot of a completed run
//
// Nothing about an in-progress dispatch pass is ever persisted.
//
// # Critical Patterns
//
// Deterministic ordering:
//   - Event reads use ORDER BY timestamp ASC, position ASC
//   - Run reads use ORDER BY seq ASC, id ASC COLLATE BINARY
//   - Positions are assigned after a stable sort by timestamp, so a
//     session read back dispatches exactly like the imported one
//
// Idempotent import:
//   - WriteSession runs in a single transaction
//   - Re-importing identical content is a no-op; different content under
//     an existing id is rejected with ErrSessionConflict
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Payloads and snapshots are stored as RFC 8785 canonical JSON produced by
// internal/ir.
package store
