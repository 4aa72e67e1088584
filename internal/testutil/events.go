package testutil

import (
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// Cast builds a cast event.
func Cast(ts, source, target, ability int64) ir.Event {
	return ir.Event{Kind: ir.KindCast, Timestamp: ts, SourceID: source, TargetID: target, AbilityID: ability}
}

// Heal builds a heal event.
func Heal(ts, source, target, ability, amount, overheal int64) ir.Event {
	return ir.Event{Kind: ir.KindHeal, Timestamp: ts, SourceID: source, TargetID: target, AbilityID: ability, Amount: amount, Overheal: overheal}
}

// Damage builds a damage event.
func Damage(ts, source, target, ability, amount int64) ir.Event {
	return ir.Event{Kind: ir.KindDamage, Timestamp: ts, SourceID: source, TargetID: target, AbilityID: ability, Amount: amount}
}

// Buff builds a buff event of kind (applybuff, refreshbuff, removebuff, ...).
func Buff(kind ir.Kind, ts, source, target, ability int64) ir.Event {
	return ir.Event{Kind: kind, Timestamp: ts, SourceID: source, TargetID: target, AbilityID: ability}
}

// Session builds a session for player. The fight spans the first to the
// last event timestamp.
func Session(id string, player int64, events ...ir.Event) *session.Session {
	sess := &session.Session{
		ID:        id,
		Combatant: session.Combatant{PlayerID: player},
		Events:    events,
	}
	for i, ev := range events {
		if i == 0 || ev.Timestamp < sess.FightStart {
			sess.FightStart = ev.Timestamp
		}
		if ev.Timestamp > sess.FightEnd {
			sess.FightEnd = ev.Timestamp
		}
	}
	return sess
}

// WildGrowthSession is a single Wild Growth cast by player 1 that lands
// on two targets, each healed once, one of them fully overhealed.
func WildGrowthSession(id string) *session.Session {
	const wg = 48438
	return Session(id, 1,
		Cast(100, 1, 5, wg),
		Buff(ir.KindApplyBuff, 120, 1, 5, wg),
		Buff(ir.KindApplyBuff, 130, 1, 6, wg),
		Heal(1100, 1, 5, wg, 400, 0),
		Heal(1100, 1, 6, wg, 0, 300),
	)
}
