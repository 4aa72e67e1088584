package modules

import (
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/session"
)

const (
	leapingFlamesBufferMs = 1000
	essenceBurstBufferMs  = 20
	appliedHotBufferMs    = 100
)

// WithTalent returns an IsActive predicate requiring talent id.
func WithTalent(id int64) func(*session.Combatant) bool {
	return func(c *session.Combatant) bool { return c.HasTalent(id) }
}

// Links returns the link specs the built-in modules read relations from.
// The default profile declares the same specs.
func Links() []linker.LinkSpec {
	return []linker.LinkSpec{
		{
			Relation:        RelAppliedHot,
			ReverseRelation: RelFromHardcast,
			Trigger:         filter.New(ir.KindCast).By(filter.SelectedPlayer).Spell(SpellWildGrowth),
			Referenced:      filter.New(ir.KindApplyBuff, ir.KindRefreshBuff).By(filter.SelectedPlayer).Spell(SpellWildGrowth),
			ForwardBufferMs: appliedHotBufferMs,
			AnyTarget:       true,
		},
		{
			Relation:        RelLeapingFlamesHits,
			Trigger:         filter.New(ir.KindCast).Spell(SpellLivingFlameCast),
			Referenced:      filter.New(ir.KindDamage, ir.KindHeal).Spell(SpellLivingFlameDamage, SpellLivingFlameHeal),
			ForwardBufferMs: leapingFlamesBufferMs,
			AnyTarget:       true,
			IsActive:        WithTalent(SpellLeapingFlamesTalent),
		},
		{
			Relation:   RelLeapingFlamesConsume,
			Trigger:    filter.New(ir.KindCast).Spell(SpellLivingFlameCast),
			Referenced: filter.New(ir.KindRemoveBuff).Spell(SpellLeapingFlamesBuff),
			AnyTarget:  true,
			IsActive:   WithTalent(SpellLeapingFlamesTalent),
		},
		{
			Relation:         RelEssenceBurstGenerated,
			Trigger:          filter.New(ir.KindApplyBuff, ir.KindApplyBuffStack).Spell(SpellEssenceBurst, SpellEssenceBurstPreservation),
			Referenced:       filter.New(ir.KindDamage, ir.KindHeal).Spell(SpellLivingFlameDamage, SpellLivingFlameHeal, SpellAzureStrike),
			ForwardBufferMs:  essenceBurstBufferMs,
			BackwardBufferMs: essenceBurstBufferMs,
			MaximumLinks:     1,
			AnyTarget:        true,
		},
		{
			Relation:   RelEssenceBurstCastGenerated,
			Trigger:    filter.New(ir.KindApplyBuff, ir.KindApplyBuffStack).Spell(SpellEssenceBurst, SpellEssenceBurstPreservation),
			Referenced: filter.New(ir.KindCast).Spell(SpellLivingFlameCast),
			AnyTarget:  true,
		},
	}
}
