package modules

import (
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
)

// LeapingFlames counts Living Flame casts empowered by Leaping Flames, the
// extra hits they produced and where Essence Burst procs came from.
type LeapingFlames struct {
	talented bool

	casts          int64
	empowered      int64
	damageHits     int64
	healHits       int64
	burstFromHits  int64
	burstFromCasts int64
	burstTotal     int64
}

// LeapingFlamesSpec declares the leapingFlames module.
func LeapingFlamesSpec() module.Spec {
	return module.Spec{Name: NameLeapingFlames, New: newLeapingFlames}
}

func newLeapingFlames(ctx module.Context, _ *module.Deps) (any, error) {
	lf := &LeapingFlames{talented: ctx.Combatant().HasTalent(SpellLeapingFlamesTalent)}
	player := filter.SelectedPlayer
	ctx.Subscribe(filter.New(ir.KindCast).By(player).Spell(SpellLivingFlameCast), lf.onCast)
	ctx.Subscribe(filter.New(ir.KindDamage, ir.KindHeal).By(player).Spell(SpellLivingFlameDamage, SpellLivingFlameHeal), lf.onHit)
	ctx.Subscribe(filter.New(ir.KindApplyBuff, ir.KindApplyBuffStack).To(player).Spell(SpellEssenceBurst, SpellEssenceBurstPreservation), lf.onBurst)
	return lf, nil
}

func (lf *LeapingFlames) onCast(ev *ir.Event) error {
	lf.casts++
	if !ir.HasRelated(ev, RelLeapingFlamesConsume) {
		return nil
	}
	lf.empowered++
	for _, hit := range ir.RelatedEvents(ev, RelLeapingFlamesHits) {
		switch hit.Kind {
		case ir.KindDamage:
			lf.damageHits++
		case ir.KindHeal:
			lf.healHits++
		}
	}
	return nil
}

func (lf *LeapingFlames) onHit(ev *ir.Event) error {
	if ir.HasRelated(ev, RelEssenceBurstGenerated) {
		lf.burstFromHits++
	}
	return nil
}

func (lf *LeapingFlames) onBurst(ev *ir.Event) error {
	lf.burstTotal++
	if ir.HasRelated(ev, RelEssenceBurstCastGenerated) {
		lf.burstFromCasts++
	}
	return nil
}

// EmpoweredCasts returns the number of casts that consumed Leaping Flames.
func (lf *LeapingFlames) EmpoweredCasts() int64 { return lf.empowered }

func (lf *LeapingFlames) Snapshot() ir.IRObject {
	return ir.IRObject{
		"talented":                ir.IRBool(lf.talented),
		"casts":                   ir.IRInt(lf.casts),
		"empowered_casts":         ir.IRInt(lf.empowered),
		"empowered_damage_hits":   ir.IRInt(lf.damageHits),
		"empowered_heal_hits":     ir.IRInt(lf.healHits),
		"essence_burst_total":     ir.IRInt(lf.burstTotal),
		"essence_burst_from_hits": ir.IRInt(lf.burstFromHits),
		"essence_burst_at_cast":   ir.IRInt(lf.burstFromCasts),
	}
}
