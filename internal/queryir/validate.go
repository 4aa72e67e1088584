package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/combatlens/internal/ir"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid event query: " + strings.Join(e.Problems, "; ")
}

// Validate checks that a query only references known columns with values
// of the column's type. It returns nil for a valid query and a
// *ValidationError listing all problems otherwise.
//
// Validate is a pure function with no side effects.
func Validate(q EventQuery) error {
	v := &validator{}
	if q.SessionID == "" {
		v.addProblem("session id is required")
	}
	if q.Limit < 0 {
		v.addProblem("limit must be non-negative, got %d", q.Limit)
	}
	v.validatePredicate(q.Filter)

	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.validateValue(pred.Field, pred.Value)
	case *Equals:
		v.validateValue(pred.Field, pred.Value)
	case In:
		v.validateIn(pred)
	case *In:
		v.validateIn(*pred)
	case Between:
		v.validateBetween(pred)
	case *Between:
		v.validateBetween(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unsupported predicate type %T", p)
	}
}

func (v *validator) validateIn(in In) {
	if _, ok := v.column(in.Field); !ok {
		return
	}
	for _, val := range in.Values {
		v.validateValue(in.Field, val)
	}
}

func (v *validator) validateBetween(b Between) {
	typ, ok := v.column(b.Field)
	if !ok {
		return
	}
	if typ != ColumnInt {
		v.addProblem("field %q is not an integer column", b.Field)
	}
	if b.Min > b.Max {
		v.addProblem("field %q: range [%d, %d] is empty", b.Field, b.Min, b.Max)
	}
}

func (v *validator) validateValue(field string, val ir.IRValue) {
	typ, ok := v.column(field)
	if !ok {
		return
	}
	switch val.(type) {
	case ir.IRString:
		if typ != ColumnString {
			v.addProblem("field %q expects %s, got string", field, typ)
		}
	case ir.IRInt:
		if typ != ColumnInt {
			v.addProblem("field %q expects %s, got int", field, typ)
		}
	default:
		v.addProblem("field %q: unsupported value type %T", field, val)
	}
}

func (v *validator) column(field string) (string, bool) {
	typ, ok := Columns[field]
	if !ok {
		v.addProblem("unknown field %q", field)
	}
	return typ, ok
}
