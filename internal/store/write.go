package store

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// RunRecord is the stored outcome of one completed run.
type RunRecord struct {
	ID        string
	Seq       int64 // assigned by WriteRun
	SessionID string
	Profile   string
	Digest    string
	Snapshot  ir.IRObject
	Stats     ir.IRObject
}

// WriteSession stores a session and all of its events in a single
// transaction.
//
// Events are stable-sorted by timestamp and numbered in that order, so
// ReadSession returns the sequence the engine would build. Writing the
// same content twice is a no-op; writing different content under an
// existing id returns ErrSessionConflict and leaves the stored session
// unchanged.
func (s *Store) WriteSession(ctx context.Context, sess *session.Session) error {
	if sess.ID == "" {
		return fmt.Errorf("write session: id is required")
	}

	events := sortedEvents(sess.Events)
	digest, err := ir.SequenceDigest(events)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT input_digest FROM sessions WHERE id = ?`, sess.ID).Scan(&existing)
	switch {
	case err == nil:
		if existing == digest {
			return nil
		}
		return fmt.Errorf("write session %s: %w", sess.ID, ErrSessionConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write session: lookup: %w", err)
	}

	pets, err := marshalIDs(sess.Combatant.PetIDs)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	talents, err := marshalIDs(sess.Combatant.Talents)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, fight_start, fight_end, player_id, pet_ids, talents, haste_rating, event_count, input_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.ID,
		sess.FightStart,
		sess.FightEnd,
		sess.Combatant.PlayerID,
		pets,
		talents,
		sess.Combatant.HasteRating,
		len(events),
		digest,
	)
	if err != nil {
		return fmt.Errorf("write session: insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(session_id, position, timestamp, kind, source_id, target_id, ability_id,
		 amount, absorbed, overheal, old_stacks, new_stacks, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write session: prepare: %w", err)
	}
	defer stmt.Close()

	for i, ev := range events {
		payload, err := marshalObject(ev.Payload)
		if err != nil {
			return fmt.Errorf("write session: events[%d]: marshal payload: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx,
			sess.ID, i, ev.Timestamp, string(ev.Kind),
			ev.SourceID, ev.TargetID, ev.AbilityID,
			ev.Amount, ev.Absorbed, ev.Overheal, ev.OldStacks, ev.NewStacks,
			payload,
		); err != nil {
			return fmt.Errorf("write session: events[%d]: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session: commit: %w", err)
	}
	return nil
}

// InputDigest returns the digest WriteSession records for events: the
// sequence digest of the events in stored order.
func InputDigest(events []ir.Event) (string, error) {
	return ir.SequenceDigest(sortedEvents(events))
}

func sortedEvents(events []ir.Event) []ir.Event {
	out := slices.Clone(events)
	slices.SortStableFunc(out, func(a, b ir.Event) int {
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	return out
}

// WriteRun appends a run record and returns it with Seq assigned. The
// session must already be stored (foreign key constraint).
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a duplicate id returns
// the stored record unchanged.
func (s *Store) WriteRun(ctx context.Context, run RunRecord) (RunRecord, error) {
	snapshot, err := marshalObject(run.Snapshot)
	if err != nil {
		return run, fmt.Errorf("write run: marshal snapshot: %w", err)
	}
	stats, err := marshalObject(run.Stats)
	if err != nil {
		return run, fmt.Errorf("write run: marshal stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, session_id, profile, digest, snapshot, stats)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.SessionID,
		run.Profile,
		run.Digest,
		snapshot,
		stats,
	)
	if err != nil {
		return run, fmt.Errorf("write run: insert: %w", err)
	}

	stored, err := scanRun(tx.QueryRowContext(ctx, `
		SELECT id, seq, session_id, profile, digest, snapshot, stats
		FROM runs WHERE id = ?
	`, run.ID))
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("write run: commit: %w", err)
	}
	return stored, nil
}
