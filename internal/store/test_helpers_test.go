package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession returns a small healing session. The events are
// deliberately out of timestamp order.
func createTestSession(id string) *session.Session {
	return &session.Session{
		ID:         id,
		FightStart: 0,
		FightEnd:   5000,
		Combatant: session.Combatant{
			PlayerID:    1,
			PetIDs:      []int64{2},
			Talents:     []int64{369939},
			HasteRating: 660,
		},
		Events: []ir.Event{
			{Kind: ir.KindCast, Timestamp: 100, SourceID: 1, TargetID: 5, AbilityID: 48438},
			{Kind: ir.KindHeal, Timestamp: 300, SourceID: 1, TargetID: 5, AbilityID: 48438, Amount: 900, Overheal: 100},
			{Kind: ir.KindApplyBuff, Timestamp: 100, SourceID: 1, TargetID: 5, AbilityID: 48438},
			{Kind: ir.KindHeal, Timestamp: 200, SourceID: 2, TargetID: 1, AbilityID: 774, Amount: 50, Absorbed: 5},
			{Kind: ir.KindChangeStats, Timestamp: 400, Payload: ir.IRObject{"after_haste": ir.IRInt(990)}},
		},
	}
}
