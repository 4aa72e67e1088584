package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/ir"
)

func TestWriteSession_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	in := createTestSession("fight-1")

	require.NoError(t, s.WriteSession(ctx, in))

	out, err := s.ReadSession(ctx, "fight-1")
	require.NoError(t, err)

	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.FightStart, out.FightStart)
	assert.Equal(t, in.FightEnd, out.FightEnd)
	assert.Equal(t, in.Combatant, out.Combatant)

	// Stable sort by timestamp: cast@100 and applybuff@100 keep input order.
	var order []string
	for _, ev := range out.Events {
		order = append(order, ev.String())
	}
	assert.Equal(t, []string{
		"cast@100#0.0 ability=48438 1->5",
		"applybuff@100#1.0 ability=48438 1->5",
		"heal@200#2.0 ability=774 2->1",
		"heal@300#3.0 ability=48438 1->5",
		"changestats@400#4.0 ability=0 0->0",
	}, order)

	assert.Equal(t, int64(900), out.Events[3].Amount)
	assert.Equal(t, int64(100), out.Events[3].Overheal)
	assert.Equal(t, int64(5), out.Events[2].Absorbed)
	assert.Equal(t, ir.IRObject{"after_haste": ir.IRInt(990)}, out.Events[4].Payload)
	assert.Nil(t, out.Events[0].Payload)
}

func TestWriteSession_DigestMatchesSequence(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))

	out, err := s.ReadSession(ctx, "fight-1")
	require.NoError(t, err)
	want, err := ir.SequenceDigest(out.Events)
	require.NoError(t, err)

	infos, err := s.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, want, infos[0].InputDigest)
	assert.Equal(t, 5, infos[0].EventCount)

	unsorted, err := InputDigest(createTestSession("fight-1").Events)
	require.NoError(t, err)
	assert.Equal(t, want, unsorted, "digest is taken after sorting")
}

func TestWriteSession_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))
	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 5, count)
}

func TestWriteSession_ConflictLeavesStoredSession(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))

	changed := createTestSession("fight-1")
	changed.Events[1].Amount = 1
	err := s.WriteSession(ctx, changed)
	require.ErrorIs(t, err, ErrSessionConflict)

	out, err := s.ReadSession(ctx, "fight-1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), out.Events[3].Amount)
}

func TestWriteSession_RequiresID(t *testing.T) {
	s := createTestStore(t)
	sess := createTestSession("")
	assert.Error(t, s.WriteSession(context.Background(), sess))
}

func TestWriteSession_CancelledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, s.WriteSession(ctx, createTestSession("fight-1")))

	infos, err := s.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, infos, "nothing is committed")
}

func TestWriteRun_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))

	first, err := s.WriteRun(ctx, RunRecord{
		ID:        "run-b",
		SessionID: "fight-1",
		Profile:   "default",
		Digest:    "d1",
		Snapshot:  ir.IRObject{"haste": ir.IRObject{"current_bp": ir.IRInt(1200)}},
		Stats:     ir.IRObject{"dispatched": ir.IRInt(7)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, ir.IRObject{"haste": ir.IRObject{"current_bp": ir.IRInt(1200)}}, first.Snapshot)

	second, err := s.WriteRun(ctx, RunRecord{ID: "run-a", SessionID: "fight-1", Profile: "default", Digest: "d2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, ir.IRObject{}, second.Snapshot)
	assert.Nil(t, second.Stats)
}

func TestWriteRun_DuplicateIDKeepsOriginal(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSession(ctx, createTestSession("fight-1")))

	_, err := s.WriteRun(ctx, RunRecord{ID: "run-1", SessionID: "fight-1", Profile: "default", Digest: "first"})
	require.NoError(t, err)
	again, err := s.WriteRun(ctx, RunRecord{ID: "run-1", SessionID: "fight-1", Profile: "default", Digest: "second"})
	require.NoError(t, err)

	assert.Equal(t, "first", again.Digest)
	assert.Equal(t, int64(1), again.Seq)
}

func TestWriteRun_UnknownSession(t *testing.T) {
	s := createTestStore(t)
	_, err := s.WriteRun(context.Background(), RunRecord{ID: "run-1", SessionID: "missing", Profile: "default"})
	assert.Error(t, err, "foreign key constraint")
}
