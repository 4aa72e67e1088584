package linker

import (
	"fmt"

	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// LinkSpec declares one relation between trigger events and the events
// they are matched against.
type LinkSpec struct {
	// Relation names the edge added on the trigger. ReverseRelation names
	// the edge added on the match; empty means Relation.
	Relation        string
	ReverseRelation string

	Trigger    filter.Filter
	Referenced filter.Filter

	// The search window around a trigger at T is
	// [T-BackwardBufferMs, T+ForwardBufferMs]. Zero buffers mean the same
	// instant only.
	ForwardBufferMs  int64
	BackwardBufferMs int64

	// MaximumLinks caps the matches per trigger and the triggers per
	// referenced event within this spec. Zero is unbounded.
	MaximumLinks int

	// AnyTarget drops the same-target requirement.
	AnyTarget bool

	// Shared allows the relation names to be reused by other specs that
	// also set Shared.
	Shared bool

	// IsActive disables the whole spec for combatants it rejects.
	IsActive func(c *session.Combatant) bool

	// Condition is an optional extra pairwise predicate.
	Condition func(trigger, referenced *ir.Event) bool
}

// Reverse returns the relation name placed on matched events.
func (s LinkSpec) Reverse() string {
	if s.ReverseRelation != "" {
		return s.ReverseRelation
	}
	return s.Relation
}

func (s LinkSpec) active(c *session.Combatant) bool {
	return s.IsActive == nil || s.IsActive(c)
}

func (s LinkSpec) names() []string {
	if r := s.Reverse(); r != s.Relation {
		return []string{s.Relation, r}
	}
	return []string{s.Relation}
}

func validateSpecs(specs []LinkSpec) error {
	type owner struct {
		index  int
		shared bool
	}
	owners := make(map[string][]owner)

	for i, s := range specs {
		bad := func(format string, args ...any) error {
			return &LinkSpecError{Code: ErrCodeInvalidLinkSpec, Index: i, Relation: s.Relation, Message: fmt.Sprintf(format, args...)}
		}
		switch {
		case s.Relation == "":
			return bad("relation name is required")
		case s.ForwardBufferMs < 0 || s.BackwardBufferMs < 0:
			return bad("buffers must be non-negative (forward=%d, backward=%d)", s.ForwardBufferMs, s.BackwardBufferMs)
		case s.MaximumLinks < 0:
			return bad("maximum links must be non-negative, got %d", s.MaximumLinks)
		case s.Trigger.IsZero():
			return bad("trigger filter accepts no event kinds")
		case s.Referenced.IsZero():
			return bad("referenced filter accepts no event kinds")
		}
		for _, name := range s.names() {
			owners[name] = append(owners[name], owner{index: i, shared: s.Shared})
		}
	}

	for i, s := range specs {
		for _, name := range s.names() {
			list := owners[name]
			if len(list) < 2 {
				continue
			}
			for _, o := range list {
				if !o.shared {
					return &LinkSpecError{
						Code:     ErrCodeInvalidLinkSpec,
						Index:    i,
						Relation: s.Relation,
						Message:  fmt.Sprintf("relation name %q is used by %d specs and not all of them are shared", name, len(list)),
					}
				}
			}
		}
	}
	return nil
}
