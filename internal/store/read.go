package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// SessionInfo summarizes a stored session without its events.
type SessionInfo struct {
	ID          string
	FightStart  int64
	FightEnd    int64
	PlayerID    int64
	EventCount  int
	InputDigest string
}

// ReadSession loads a stored session with its events in sequence order.
// Returns an error wrapping ErrNotFound if the id is unknown.
func (s *Store) ReadSession(ctx context.Context, id string) (*session.Session, error) {
	var (
		sess          = &session.Session{ID: id}
		pets, talents string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT fight_start, fight_end, player_id, pet_ids, talents, haste_rating
		FROM sessions WHERE id = ?
	`, id).Scan(
		&sess.FightStart,
		&sess.FightEnd,
		&sess.Combatant.PlayerID,
		&pets,
		&talents,
		&sess.Combatant.HasteRating,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	if sess.Combatant.PetIDs, err = unmarshalIDs(pets); err != nil {
		return nil, fmt.Errorf("read session %s: pets: %w", id, err)
	}
	if sess.Combatant.Talents, err = unmarshalIDs(talents); err != nil {
		return nil, fmt.Errorf("read session %s: talents: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT position, timestamp, kind, source_id, target_id, ability_id,
		       amount, absorbed, overheal, old_stacks, new_stacks, payload
		FROM events
		WHERE session_id = ?
		ORDER BY timestamp ASC, position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read session %s: query events: %w", id, err)
	}
	defer rows.Close()

	sess.Events, err = scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every stored session ordered by id.
//
// Returns an empty slice (not nil) if no sessions exist.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fight_start, fight_end, player_id, event_count, input_digest
		FROM sessions
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	infos := []SessionInfo{}
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.FightStart, &info.FightEnd, &info.PlayerID, &info.EventCount, &info.InputDigest); err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: iterate: %w", err)
	}
	return infos, nil
}

// ReadRuns returns the stored runs of a session, oldest first.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the session has no runs.
func (s *Store) ReadRuns(ctx context.Context, sessionID string) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, session_id, profile, digest, snapshot, stats
		FROM runs
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("read runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read runs: iterate: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run of a session under profile.
// Returns an error wrapping ErrNotFound if there is none.
func (s *Store) LatestRun(ctx context.Context, sessionID, profile string) (RunRecord, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, `
		SELECT id, seq, session_id, profile, digest, snapshot, stats
		FROM runs
		WHERE session_id = ? AND profile = ?
		ORDER BY seq DESC
		LIMIT 1
	`, sessionID, profile))
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("latest run of %s/%s: %w", sessionID, profile, ErrNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("latest run of %s/%s: %w", sessionID, profile, err)
	}
	return run, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		run             RunRecord
		snapshot, stats string
	)
	if err := row.Scan(&run.ID, &run.Seq, &run.SessionID, &run.Profile, &run.Digest, &snapshot, &stats); err != nil {
		return RunRecord{}, err
	}
	var err error
	if run.Snapshot, err = unmarshalObject(snapshot); err != nil {
		return RunRecord{}, fmt.Errorf("run %s: snapshot: %w", run.ID, err)
	}
	if run.Snapshot == nil {
		run.Snapshot = ir.IRObject{}
	}
	if run.Stats, err = unmarshalObject(stats); err != nil {
		return RunRecord{}, fmt.Errorf("run %s: stats: %w", run.ID, err)
	}
	return run, nil
}

// scanEvents reads rows selected with querysql.EventColumns.
func scanEvents(rows *sql.Rows) ([]ir.Event, error) {
	events := []ir.Event{}
	for rows.Next() {
		var (
			ev      ir.Event
			kind    string
			payload string
		)
		if err := rows.Scan(
			&ev.Position, &ev.Timestamp, &kind,
			&ev.SourceID, &ev.TargetID, &ev.AbilityID,
			&ev.Amount, &ev.Absorbed, &ev.Overheal, &ev.OldStacks, &ev.NewStacks,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = ir.Kind(kind)
		p, err := unmarshalObject(payload)
		if err != nil {
			return nil, fmt.Errorf("event %d: payload: %w", ev.Position, err)
		}
		ev.Payload = p
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
