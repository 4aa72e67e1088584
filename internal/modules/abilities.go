package modules

import (
	"slices"
	"strconv"

	"github.com/roach88/combatlens/internal/catalog"
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
)

// AbilityStats are the totals for one ability.
type AbilityStats struct {
	Casts    int64
	Hits     int64
	Damage   int64
	Healing  int64
	Overheal int64
	Absorbed int64
}

// AbilityTracker totals casts, hits and amounts per ability for the player
// and its pets.
type AbilityTracker struct {
	catalog   *catalog.Catalog
	abilities map[int64]*AbilityStats
}

// AbilityTrackerSpec declares the abilityTracker module.
func AbilityTrackerSpec() module.Spec {
	return module.Spec{Name: NameAbilityTracker, New: newAbilityTracker}
}

func newAbilityTracker(ctx module.Context, _ *module.Deps) (any, error) {
	t := &AbilityTracker{catalog: ctx.Catalog(), abilities: make(map[int64]*AbilityStats)}
	ctx.Subscribe(filter.New(ir.KindCast).By(filter.SelectedPlayerOrPet), t.onCast)
	ctx.Subscribe(filter.New(ir.KindDamage).By(filter.SelectedPlayerOrPet), t.onDamage)
	ctx.Subscribe(filter.New(ir.KindHeal).By(filter.SelectedPlayerOrPet), t.onHeal)
	return t, nil
}

func (t *AbilityTracker) stats(id int64) *AbilityStats {
	s, ok := t.abilities[id]
	if !ok {
		s = &AbilityStats{}
		t.abilities[id] = s
	}
	return s
}

func (t *AbilityTracker) onCast(ev *ir.Event) error {
	t.stats(ev.AbilityID).Casts++
	return nil
}

func (t *AbilityTracker) onDamage(ev *ir.Event) error {
	s := t.stats(ev.AbilityID)
	s.Hits++
	s.Damage += ev.Amount
	s.Absorbed += ev.Absorbed
	return nil
}

func (t *AbilityTracker) onHeal(ev *ir.Event) error {
	s := t.stats(ev.AbilityID)
	s.Hits++
	s.Healing += ev.Amount
	s.Overheal += ev.Overheal
	s.Absorbed += ev.Absorbed
	return nil
}

// Ability returns the totals for id; the zero value when never seen.
func (t *AbilityTracker) Ability(id int64) AbilityStats {
	if s, ok := t.abilities[id]; ok {
		return *s
	}
	return AbilityStats{}
}

// IDs returns every tracked ability id in ascending order.
func (t *AbilityTracker) IDs() []int64 {
	ids := make([]int64, 0, len(t.abilities))
	for id := range t.abilities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (t *AbilityTracker) Snapshot() ir.IRObject {
	out := ir.IRObject{}
	for id, s := range t.abilities {
		out[strconv.FormatInt(id, 10)] = ir.IRObject{
			"name":     ir.IRString(t.catalog.Name(id)),
			"casts":    ir.IRInt(s.Casts),
			"hits":     ir.IRInt(s.Hits),
			"damage":   ir.IRInt(s.Damage),
			"healing":  ir.IRInt(s.Healing),
			"overheal": ir.IRInt(s.Overheal),
			"absorbed": ir.IRInt(s.Absorbed),
		}
	}
	return out
}
