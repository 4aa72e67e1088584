package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

var combatant = &session.Combatant{PlayerID: 1, PetIDs: []int64{2}}

func TestMatches(t *testing.T) {
	heal := &ir.Event{Kind: ir.KindHeal, SourceID: 1, TargetID: 5, AbilityID: 48438}
	petHeal := &ir.Event{Kind: ir.KindHeal, SourceID: 2, TargetID: 5, AbilityID: 48438}

	tests := []struct {
		name   string
		filter Filter
		ev     *ir.Event
		want   bool
	}{
		{"kind only", New(ir.KindHeal), heal, true},
		{"wrong kind", New(ir.KindCast), heal, false},
		{"zero filter", Filter{}, heal, false},
		{"any kind", AnyKind(), heal, true},
		{"by player", New(ir.KindHeal).By(SelectedPlayer), heal, true},
		{"by player rejects pet", New(ir.KindHeal).By(SelectedPlayer), petHeal, false},
		{"by pet", New(ir.KindHeal).By(SelectedPlayerPet), petHeal, true},
		{"by player or pet", New(ir.KindHeal).By(SelectedPlayerOrPet), petHeal, true},
		{"to actor id", New(ir.KindHeal).To(ActorID(5)), heal, true},
		{"to player rejects", New(ir.KindHeal).To(SelectedPlayer), heal, false},
		{"spell member", New(ir.KindHeal).Spell(774, 48438), heal, true},
		{"spell non-member", New(ir.KindHeal).Spell(774), heal, false},
		{"full conjunction", New(ir.KindHeal, ir.KindDamage).By(SelectedPlayer).To(ActorID(5)).Spell(48438), heal, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.ev, combatant))
		})
	}
}

func TestChainingReturnsCopies(t *testing.T) {
	base := New(ir.KindHeal)
	narrowed := base.By(SelectedPlayer).Spell(774)

	ev := &ir.Event{Kind: ir.KindHeal, SourceID: 9, AbilityID: 1}
	assert.True(t, base.Matches(ev, combatant), "base filter unchanged")
	assert.False(t, narrowed.Matches(ev, combatant))

	a := base.Spell(1)
	b := a.Spell(2)
	assert.Equal(t, []int64{1}, a.Abilities())
	assert.Equal(t, []int64{1, 2}, b.Abilities())
}

func TestKindsDeduplicated(t *testing.T) {
	f := New(ir.KindHeal, ir.KindCast, ir.KindHeal)
	assert.Equal(t, []ir.Kind{ir.KindCast, ir.KindHeal}, f.Kinds())
	assert.False(t, f.IsZero())
	assert.True(t, Filter{}.IsZero())
}

func TestNilCombatant(t *testing.T) {
	ev := &ir.Event{Kind: ir.KindHeal, SourceID: 1}
	assert.False(t, New(ir.KindHeal).By(SelectedPlayer).Matches(ev, nil))
	assert.True(t, New(ir.KindHeal).By(ActorID(1)).Matches(ev, nil))
}

func TestString(t *testing.T) {
	f := New(ir.KindHeal, ir.KindCast).By(SelectedPlayer).Spell(48438)
	assert.Equal(t, "cast|heal by=player spell=[48438]", f.String())
}
