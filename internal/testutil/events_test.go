package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/ir"
)

func TestEventBuilders(t *testing.T) {
	heal := Heal(10, 1, 2, 774, 300, 50)
	assert.Equal(t, ir.KindHeal, heal.Kind)
	assert.Equal(t, int64(300), heal.Amount)
	assert.Equal(t, int64(50), heal.Overheal)

	buff := Buff(ir.KindRemoveBuff, 20, 1, 1, 2825)
	assert.Equal(t, ir.KindRemoveBuff, buff.Kind)
	assert.Equal(t, int64(2825), buff.AbilityID)

	for _, ev := range []ir.Event{Cast(0, 1, 2, 3), heal, Damage(5, 1, 9, 361500, 100), buff} {
		require.NoError(t, ir.Validate(0, &ev), ev.String())
	}
}

func TestSessionFightWindow(t *testing.T) {
	sess := Session("s", 1, Cast(500, 1, 1, 1), Cast(200, 1, 1, 1), Cast(900, 1, 1, 1))
	assert.Equal(t, int64(200), sess.FightStart)
	assert.Equal(t, int64(900), sess.FightEnd)
	assert.Equal(t, int64(1), sess.Combatant.PlayerID)

	empty := Session("e", 1)
	assert.Zero(t, empty.FightStart)
	assert.Zero(t, empty.FightEnd)
}

func TestWildGrowthSession(t *testing.T) {
	sess := WildGrowthSession("wg")
	assert.Equal(t, "wg", sess.ID)
	assert.Len(t, sess.Events, 5)
	assert.Equal(t, int64(100), sess.FightStart)
	assert.Equal(t, int64(1100), sess.FightEnd)
}
