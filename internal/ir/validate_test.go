package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		ev     Event
		reason string
	}{
		{"valid cast", Event{Kind: KindCast, Timestamp: 0, AbilityID: 774}, ""},
		{"valid fabricated haste", Event{Kind: KindChangeHaste, Timestamp: 5, Payload: IRObject{}}, ""},
		{"unknown kind", Event{Kind: "summon", AbilityID: 1}, `unknown kind "summon"`},
		{"negative timestamp", Event{Kind: KindCast, Timestamp: -1, AbilityID: 1}, "negative timestamp"},
		{"heal without ability", Event{Kind: KindHeal, Timestamp: 1}, "missing ability id"},
		{"negative overheal", Event{Kind: KindHeal, Timestamp: 1, AbilityID: 1, Overheal: -3}, "negative amount"},
		{"negative stacks", Event{Kind: KindApplyBuffStack, Timestamp: 1, AbilityID: 1, NewStacks: -1}, "negative stack count"},
		{"changestats without payload", Event{Kind: KindChangeStats, Timestamp: 1}, "missing payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(7, &tt.ev)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var me *MalformedEventError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.reason, me.Reason)
			assert.Equal(t, 7, me.Index)
		})
	}
}

func TestIsMalformedEventWrapped(t *testing.T) {
	err := Validate(0, &Event{Kind: KindDamage})
	wrapped := fmt.Errorf("ingest: %w", err)

	assert.True(t, IsMalformedEvent(wrapped))
	assert.False(t, IsMalformedEvent(fmt.Errorf("other")))
}
