// Package filter provides the declarative event predicates modules and link
// specs select events with.
//
// A Filter is a conjunction: the event kind must be in the accepted set,
// and each present predicate (source actor, target actor, ability set) must
// hold. Filters are values; the chaining methods return modified copies.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

type actorKind uint8

const (
	actorID actorKind = iota + 1
	actorPlayer
	actorPet
	actorPlayerOrPet
)

// Actor is a source or target predicate, resolved against the run's
// combatant at match time.
type Actor struct {
	kind actorKind
	id   int64
}

var (
	// SelectedPlayer matches the analysed player.
	SelectedPlayer = Actor{kind: actorPlayer}
	// SelectedPlayerPet matches any pet of the analysed player.
	SelectedPlayerPet = Actor{kind: actorPet}
	// SelectedPlayerOrPet matches the player or one of its pets.
	SelectedPlayerOrPet = Actor{kind: actorPlayerOrPet}
)

// ActorID matches one fixed actor id.
func ActorID(id int64) Actor {
	return Actor{kind: actorID, id: id}
}

func (a Actor) matches(id int64, c *session.Combatant) bool {
	switch a.kind {
	case actorID:
		return id == a.id
	case actorPlayer:
		return c.IsPlayer(id)
	case actorPet:
		return c.IsPet(id)
	case actorPlayerOrPet:
		return c.IsPlayer(id) || c.IsPet(id)
	}
	return false
}

func (a Actor) String() string {
	switch a.kind {
	case actorID:
		return fmt.Sprintf("actor(%d)", a.id)
	case actorPlayer:
		return "player"
	case actorPet:
		return "pet"
	case actorPlayerOrPet:
		return "player|pet"
	}
	return "invalid"
}

// Filter selects events. The zero Filter accepts no kinds and so matches
// nothing.
type Filter struct {
	kinds     []ir.Kind
	source    *Actor
	target    *Actor
	abilities []int64
}

// New returns a filter accepting the given kinds.
func New(kinds ...ir.Kind) Filter {
	ks := slices.Clone(kinds)
	slices.Sort(ks)
	return Filter{kinds: slices.Compact(ks)}
}

// AnyKind returns a filter accepting every known kind.
func AnyKind() Filter {
	return New(ir.Kinds()...)
}

// By restricts the source actor.
func (f Filter) By(a Actor) Filter {
	out := f.clone()
	out.source = &a
	return out
}

// To restricts the target actor.
func (f Filter) To(a Actor) Filter {
	out := f.clone()
	out.target = &a
	return out
}

// Spell restricts the ability id to the union of ids and any ids already
// on the filter.
func (f Filter) Spell(ids ...int64) Filter {
	out := f.clone()
	out.abilities = append(out.abilities, ids...)
	slices.Sort(out.abilities)
	out.abilities = slices.Compact(out.abilities)
	return out
}

func (f Filter) clone() Filter {
	return Filter{
		kinds:     slices.Clone(f.kinds),
		source:    f.source,
		target:    f.target,
		abilities: slices.Clone(f.abilities),
	}
}

// Kinds returns the accepted kinds in sorted order.
func (f Filter) Kinds() []ir.Kind {
	return slices.Clone(f.kinds)
}

// Abilities returns the ability set, nil when unrestricted.
func (f Filter) Abilities() []int64 {
	return slices.Clone(f.abilities)
}

// IsZero reports whether f accepts no kinds.
func (f Filter) IsZero() bool {
	return len(f.kinds) == 0
}

// Matches reports whether ev satisfies every predicate of f.
func (f Filter) Matches(ev *ir.Event, c *session.Combatant) bool {
	if _, ok := slices.BinarySearch(f.kinds, ev.Kind); !ok {
		return false
	}
	if f.source != nil && !f.source.matches(ev.SourceID, c) {
		return false
	}
	if f.target != nil && !f.target.matches(ev.TargetID, c) {
		return false
	}
	if f.abilities != nil {
		if _, ok := slices.BinarySearch(f.abilities, ev.AbilityID); !ok {
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	var b strings.Builder
	kinds := make([]string, len(f.kinds))
	for i, k := range f.kinds {
		kinds[i] = string(k)
	}
	b.WriteString(strings.Join(kinds, "|"))
	if f.source != nil {
		fmt.Fprintf(&b, " by=%s", f.source)
	}
	if f.target != nil {
		fmt.Fprintf(&b, " to=%s", f.target)
	}
	if f.abilities != nil {
		fmt.Fprintf(&b, " spell=%v", f.abilities)
	}
	return b.String()
}
