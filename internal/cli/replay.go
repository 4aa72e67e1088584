package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/session"
	"github.com/roach88/combatlens/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Profile string
	Session string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string `json:"session_id"`
	Digest        string `json:"digest,omitempty"`
	StoredRun     string `json:"stored_run,omitempty"`
	StoredDigest  string `json:"stored_digest,omitempty"`
	Deterministic bool   `json:"deterministic"`
	MatchesStored bool   `json:"matches_stored"`
	Error         string `json:"error,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
}

// ok reports whether the session replayed cleanly. A session without a
// stored run only needs to be deterministic.
func (r ReplaySessionResult) ok() bool {
	return r.Error == "" && r.Deterministic && (r.StoredRun == "" || r.MatchesStored)
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Profile       string                `json:"profile"`
	Sessions      []ReplaySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllVerified   bool                  `json:"all_verified"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run stored sessions and verify determinism",
		Long: `Re-run stored sessions to verify deterministic analysis.

Each session is analyzed twice with fresh module instances and the two
snapshot digests are compared. When the store holds an earlier run of
the session under the same profile, its digest must match as well.

Exit codes:
  0 - All sessions are deterministic and match their stored runs
  1 - Verification failed (differences detected or a run failed)
  2 - Command error (database not found, etc.)

Examples:
  combatlens replay --db ./logs.db
  combatlens replay --db ./logs.db --session wg-pull-1
  combatlens replay --db ./logs.db --profile ./healer.cue --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CUE profile file or directory (default: built-in profile)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	profile, plan, err := loadPlan(opts.Profile)
	if err != nil {
		return reportSetupError(formatter, err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	var ids []string
	if opts.Session != "" {
		ids = []string{opts.Session}
	}
	sessions, err := readStoredSessions(ctx, st, ids, opts.Session == "")
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read sessions", err)
	}

	result := ReplayResult{
		Profile:       profile.Name,
		Sessions:      make([]ReplaySessionResult, 0, len(sessions)),
		TotalSessions: len(sessions),
		AllVerified:   true,
	}

	eng := opts.newEngine(logger)
	for _, sess := range sessions {
		r, err := replaySession(ctx, eng, st, sess, plan, profile.Name)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", sess.ID), err)
		}
		result.Sessions = append(result.Sessions, r)
		if !r.ok() {
			result.AllVerified = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(formatter, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replaySession verifies one session. Run failures are part of the
// result; only store errors are returned.
func replaySession(ctx context.Context, eng *engine.Engine, st *store.Store, sess *session.Session, plan engine.Plan, profile string) (ReplaySessionResult, error) {
	r := ReplaySessionResult{SessionID: sess.ID}

	digest, err := eng.VerifyDeterminism(ctx, sess, plan)
	var de *engine.DeterminismError
	switch {
	case errors.As(err, &de):
		r.ErrorCode = codeOr(err, ErrCodeGeneric)
		r.Error = err.Error()
		return r, nil
	case err != nil:
		r.Deterministic = true // never got far enough to disagree
		r.ErrorCode = codeOr(err, ErrCodeGeneric)
		r.Error = err.Error()
		return r, nil
	}
	r.Digest = digest
	r.Deterministic = true

	stored, err := st.LatestRun(ctx, sess.ID, profile)
	if errors.Is(err, store.ErrNotFound) {
		return r, nil
	}
	if err != nil {
		return r, err
	}
	r.StoredRun = stored.ID
	r.StoredDigest = stored.Digest
	r.MatchesStored = stored.Digest == digest
	return r, nil
}

// outputReplayJSON outputs the replay result as JSON.
// Verification failure = exit code 1
func outputReplayJSON(formatter *OutputFormatter, result ReplayResult) error {
	if !result.AllVerified {
		return formatter.Failure("E_DETERMINISM", "replay verification failed", result)
	}
	return formatter.Success(result)
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s), profile %s\n", result.TotalSessions, result.Profile)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.ok() {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)

		switch {
		case s.Error != "" && !s.Deterministic:
			fmt.Fprintln(w, "  Warning: Non-deterministic replay detected!")
			fmt.Fprintf(w, "  %s\n", s.Error)
		case s.Error != "":
			fmt.Fprintf(w, "  Run failed [%s]: %s\n", s.ErrorCode, s.Error)
		case s.StoredRun == "":
			fmt.Fprintf(w, "  Digest: %s (no stored run)\n", s.Digest)
		case !s.MatchesStored:
			fmt.Fprintf(w, "  Digest: %s differs from stored run %s (%s)\n", s.Digest, s.StoredRun, s.StoredDigest)
		default:
			fmt.Fprintf(w, "  Digest: %s\n", s.Digest)
			if verbose {
				fmt.Fprintf(w, "  Stored run: %s\n", s.StoredRun)
			}
		}
		fmt.Fprintln(w)
	}

	if result.AllVerified {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	// Verification failure = exit code 1
	return NewExitError(ExitFailure, "replay verification failed")
}
