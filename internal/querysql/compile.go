// Package querysql compiles event queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/queryir"
)

// EventColumns is the column list every compiled event query selects, in
// scan order.
const EventColumns = "position, timestamp, kind, source_id, target_id, ability_id, " +
	"amount, absorbed, overheal, old_stacks, new_stacks, payload"

// SQLCompiler compiles event queries to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY timestamp, position so stored
// events come back in sequence order.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	// Table is the events table name. Empty means "events".
	Table string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "events"}
}

// Compile converts an event query to parameterized SQL.
// Returns (sql, params, error) tuple. The query is validated first, so
// only known column names ever reach the SQL text.
func (c *SQLCompiler) Compile(q queryir.EventQuery) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	table := c.Table
	if table == "" {
		table = "events"
	}

	where := "session_id = ?"
	params := []any{q.SessionID}
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + filterSQL
		params = append(params, filterParams...)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		EventColumns, table, where, stableOrderKey())
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// stableOrderKey returns the ORDER BY clause for event queries.
// Position is unique per session, so the order is total.
func stableOrderKey() string {
	return "timestamp ASC, position ASC"
}

// compilePredicate compiles a queryir.Predicate to SQL WHERE clause fragment.
// Returns (sql, params, error).
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil // Always true
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", pred.Field), []any{pred.Min, pred.Max}, nil
	case *queryir.Between:
		return fmt.Sprintf("%s BETWEEN ? AND ?", pred.Field), []any{pred.Min, pred.Max}, nil
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field = ?".
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return fmt.Sprintf("%s = ?", eq.Field), []any{param}, nil
}

// compileIn compiles an In predicate to "field IN (?, ...)". An empty
// list compiles to a predicate that is always false.
func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	placeholders := make([]string, len(in.Values))
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		param, err := irValueToParam(v)
		if err != nil {
			return "", nil, fmt.Errorf("convert value: %w", err)
		}
		placeholders[i] = "?"
		params[i] = param
	}
	return fmt.Sprintf("%s IN (%s)", in.Field, strings.Join(placeholders, ", ")), params, nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return "(" + strings.Join(sqlParts, " AND ") + ")", allParams, nil
}

// irValueToParam converts an ir.IRValue to a Go native type for SQL parameter.
// Supports string, int, bool. Arrays and objects are not directly supported
// as SQL parameters.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
