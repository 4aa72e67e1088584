package queryir

import "github.com/roach88/combatlens/internal/ir"

// Predicate represents a filter condition over event columns.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - In: field is one of a list of literals
//   - Between: lo <= field <= hi for integer columns
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// EventQuery selects the stored events of one session.
//
// Semantics:
//
//	SELECT <event columns> FROM events
//	WHERE session_id = <SessionID> AND <Filter>
//	ORDER BY timestamp, position
//	LIMIT <Limit>
//
// A nil Filter matches every event of the session. Limit zero means no
// limit.
type EventQuery struct {
	SessionID string
	Filter    Predicate
	Limit     int
}

// Equals represents a field-equals-literal predicate.
//
// Example:
//
//	Equals{Field: "kind", Value: ir.IRString("heal")}
type Equals struct {
	Field string     // Event column name
	Value ir.IRValue // Literal value (constrained to IRValue types)
}

func (Equals) predicateNode() {}

// In matches when the column equals any of Values. An empty list matches
// nothing.
//
// Example:
//
//	In{Field: "ability_id", Values: []ir.IRValue{ir.IRInt(774), ir.IRInt(48438)}}
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// Between matches integer columns in the closed range [Min, Max].
type Between struct {
	Field string
	Min   int64
	Max   int64
}

func (Between) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Column types of the queryable event fields.
const (
	ColumnString = "string"
	ColumnInt    = "int"
)

// Columns maps every queryable event column to its type.
var Columns = map[string]string{
	"kind":       ColumnString,
	"timestamp":  ColumnInt,
	"position":   ColumnInt,
	"source_id":  ColumnInt,
	"target_id":  ColumnInt,
	"ability_id": ColumnInt,
	"amount":     ColumnInt,
	"absorbed":   ColumnInt,
	"overheal":   ColumnInt,
	"old_stacks": ColumnInt,
	"new_stacks": ColumnInt,
}
