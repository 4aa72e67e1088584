package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/store"
	"github.com/roach88/combatlens/internal/testutil"
)

// importSessions imports the WildGrowth fixture under each id.
func importSessions(t *testing.T, db string, ids ...string) {
	t.Helper()
	dir := t.TempDir()
	args := []string{"import"}
	for _, id := range ids {
		args = append(args, writeSession(t, dir, testutil.WildGrowthSession(id)))
	}
	_, err := execute(t, db, args...)
	require.NoError(t, err)
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := tempDB(t)

	// Create empty database
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, db, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found")
}

func TestReplayWithoutStoredRun(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "wg")

	out, err := execute(t, db, "replay")
	require.NoError(t, err)
	assert.Contains(t, out, "1 session(s), profile default")
	assert.Contains(t, out, "✓ Session: wg")
	assert.Contains(t, out, "(no stored run)")
	assert.Contains(t, out, "All sessions verified deterministic")
}

func TestReplayMatchesStoredRun(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "wg")
	_, err := execute(t, db, "analyze", "--session", "wg", "--save")
	require.NoError(t, err)

	out, err := execute(t, db, "--format", "json", "replay")
	require.NoError(t, err)

	var result ReplayResult
	resp := decode(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllVerified)
	require.Len(t, result.Sessions, 1)

	s := result.Sessions[0]
	assert.True(t, s.Deterministic)
	assert.True(t, s.MatchesStored)
	assert.Equal(t, "cli-1", s.StoredRun)
	assert.Equal(t, s.StoredDigest, s.Digest)
}

func TestReplayDetectsDigestMismatch(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "wg")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.WriteRun(context.Background(), store.RunRecord{
		ID:        "tampered",
		SessionID: "wg",
		Profile:   "default",
		Digest:    "not-a-real-digest",
		Snapshot:  ir.IRObject{},
		Stats:     ir.IRObject{},
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, err := execute(t, db, "--format", "json", "replay")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ReplayResult
	resp := decode(t, out, &result)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	assert.False(t, result.AllVerified)
	require.Len(t, result.Sessions, 1)
	assert.True(t, result.Sessions[0].Deterministic)
	assert.False(t, result.Sessions[0].MatchesStored)
	assert.Equal(t, "tampered", result.Sessions[0].StoredRun)

	out, err = execute(t, db, "replay")
	require.Error(t, err)
	assert.Contains(t, out, "differs from stored run tampered")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplayStoredRunOfOtherProfileIgnored(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "wg")

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.WriteRun(context.Background(), store.RunRecord{
		ID: "other", SessionID: "wg", Profile: "tracker", Digest: "x",
		Snapshot: ir.IRObject{}, Stats: ir.IRObject{},
	})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = execute(t, db, "replay")
	require.NoError(t, err, "runs are compared per profile")
}

func TestReplaySingleSession(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "a", "b")

	out, err := execute(t, db, "--format", "json", "replay", "--session", "b")
	require.NoError(t, err)

	var result ReplayResult
	decode(t, out, &result)
	assert.Equal(t, 1, result.TotalSessions)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "b", result.Sessions[0].SessionID)
}

func TestReplayUnknownSession(t *testing.T) {
	db := tempDB(t)
	importSessions(t, db, "wg")

	_, err := execute(t, db, "replay", "--session", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplaySessionResultOK(t *testing.T) {
	tests := []struct {
		name string
		r    ReplaySessionResult
		want bool
	}{
		{"deterministic without stored run", ReplaySessionResult{Deterministic: true}, true},
		{"matches stored", ReplaySessionResult{Deterministic: true, StoredRun: "r", MatchesStored: true}, true},
		{"differs from stored", ReplaySessionResult{Deterministic: true, StoredRun: "r"}, false},
		{"non-deterministic", ReplaySessionResult{}, false},
		{"run failed", ReplaySessionResult{Deterministic: true, Error: "boom"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.ok())
		})
	}
}
