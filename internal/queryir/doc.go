// Package queryir provides the abstract query representation used to
// select stored combat events.
//
// A query names one session and an optional predicate tree over the
// native event columns. Backends compile it; the only backend today is
// internal/querysql, which targets SQLite.
//
//	[CLI flags] → [Query IR] → [SQL Backend]
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, so backends can switch over every
// variant exhaustively.
//
// ORDERING:
//
// Event queries carry no ordering options. Every backend returns rows in
// sequence order (timestamp, then position), the same order the engine
// dispatches native events in.
//
// VALUES:
//
// Literal values are ir.IRValue. Floats cannot be expressed, so
// comparisons are exact.
package queryir
