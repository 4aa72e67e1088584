package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/compiler"
	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/harness"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
	"github.com/roach88/combatlens/internal/store"
)

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Profile     string
	Sessions    []string // stored session ids
	All         bool     // every stored session
	Save        bool     // record runs in the store
	Concurrency int      // -1 means COMBATLENS_CONCURRENCY
}

// SessionAnalysis is the outcome of one analyzed session.
type SessionAnalysis struct {
	SessionID   string              `json:"session_id"`
	RunID       string              `json:"run_id"`
	Profile     string              `json:"profile"`
	Digest      string              `json:"digest"`
	Stats       engine.Stats        `json:"stats"`
	Diagnostics []engine.Diagnostic `json:"diagnostics,omitempty"`
	Snapshot    ir.IRObject         `json:"snapshot"`
	Saved       bool                `json:"saved,omitempty"`
}

// AnalyzeResult holds the analyze command result.
type AnalyzeResult struct {
	Sessions []SessionAnalysis `json:"sessions"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze [session.yaml...]",
		Short: "Run the analysis modules over sessions",
		Long: `Run a profile's analysis modules over one or more sessions.

Sessions come from YAML files given as arguments, or from the store with
--session or --all. Independent sessions are analyzed concurrently.
With --save each completed run is recorded in the store (file sessions
are imported first).

Exit codes:
  0 - Every session analyzed
  1 - A run failed (module error, fabrication quota, ...)
  2 - Command error (missing session, invalid profile, etc.)

Examples:
  combatlens analyze fight.yaml
  combatlens analyze --db ./logs.db --session wg-pull-1 --format json
  combatlens analyze --db ./logs.db --all --profile ./healer.cue --save`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CUE profile file or directory (default: built-in profile)")
	cmd.Flags().StringSliceVar(&opts.Sessions, "session", nil, "stored session id to analyze (repeatable)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "analyze every stored session")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "record runs in the store")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", -1, "maximum concurrent runs (default $COMBATLENS_CONCURRENCY)")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, files []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)
	ctx := cmd.Context()

	fromStore := opts.All || len(opts.Sessions) > 0
	if fromStore == (len(files) > 0) {
		return NewExitError(ExitCommandError, "give session files or --session/--all, not both")
	}

	profile, plan, err := loadPlan(opts.Profile)
	if err != nil {
		return reportSetupError(formatter, err)
	}

	var st *store.Store
	if fromStore || opts.Save {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer closeStore(st, logger)
	}

	var sessions []*session.Session
	if fromStore {
		sessions, err = readStoredSessions(ctx, st, opts.Sessions, opts.All)
	} else {
		sessions, err = loadSessionFiles(files)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load sessions", err)
	}

	limit := opts.Concurrency
	if limit < 0 {
		limit = opts.Config.Concurrency
	}
	logger.Info("analyzing", "sessions", len(sessions), "profile", profile.Name, "limit", limit)

	eng := opts.newEngine(logger)
	results, err := eng.AnalyzeAll(ctx, sessions, func(*session.Session) (engine.Plan, error) { return plan, nil }, limit)
	if err != nil {
		return reportRunError(formatter, err)
	}

	out := AnalyzeResult{Sessions: make([]SessionAnalysis, 0, len(results))}
	for i, res := range results {
		a, err := summarize(res, profile.Name)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to digest snapshot", err)
		}
		if opts.Save {
			if !fromStore {
				if err := st.WriteSession(ctx, sessions[i]); err != nil {
					_ = formatter.Error(ErrCodeConflict, err.Error(), nil)
					return WrapExitError(ExitFailure, "failed to save session", err)
				}
			}
			if _, err := st.WriteRun(ctx, runRecord(a)); err != nil {
				_ = formatter.Error(ErrCodeStore, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to save run", err)
			}
			a.Saved = true
		}
		out.Sessions = append(out.Sessions, a)
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	return outputAnalyzeText(cmd, formatter, out)
}

// loadPlan resolves the profile flag and builds its plan.
func loadPlan(path string) (*compiler.Profile, engine.Plan, error) {
	profile, err := LoadProfile(path)
	if err != nil {
		return nil, engine.Plan{}, err
	}
	plan, err := profile.Plan()
	if err != nil {
		return nil, engine.Plan{}, err
	}
	return profile, plan, nil
}

func loadSessionFiles(files []string) ([]*session.Session, error) {
	sessions := make([]*session.Session, 0, len(files))
	for _, f := range files {
		sess, err := session.Load(f)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

// readStoredSessions loads the named sessions, or every stored session
// in id order when all is set.
func readStoredSessions(ctx context.Context, st *store.Store, ids []string, all bool) ([]*session.Session, error) {
	if all {
		infos, err := st.ListSessions(ctx)
		if err != nil {
			return nil, err
		}
		ids = nil
		for _, info := range infos {
			ids = append(ids, info.ID)
		}
	}
	sessions := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := st.ReadSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}

func summarize(res *engine.Result, profile string) (SessionAnalysis, error) {
	digest, err := res.Digest()
	if err != nil {
		return SessionAnalysis{}, err
	}
	return SessionAnalysis{
		SessionID:   res.SessionID,
		RunID:       res.RunID,
		Profile:     profile,
		Digest:      digest,
		Stats:       res.Stats,
		Diagnostics: res.Diagnostics,
		Snapshot:    res.Snapshot(),
	}, nil
}

func runRecord(a SessionAnalysis) store.RunRecord {
	s := a.Stats
	return store.RunRecord{
		ID:        a.RunID,
		SessionID: a.SessionID,
		Profile:   a.Profile,
		Digest:    a.Digest,
		Snapshot:  a.Snapshot,
		Stats: ir.IRObject{
			"input_events":  ir.IRInt(s.InputEvents),
			"malformed":     ir.IRInt(s.Malformed),
			"spliced":       ir.IRInt(s.Spliced),
			"edges":         ir.IRInt(s.Edges),
			"fabricated":    ir.IRInt(s.Fabricated),
			"dispatched":    ir.IRInt(s.Dispatched),
			"handler_calls": ir.IRInt(s.HandlerCalls),
		},
	}
}

func closeStore(st *store.Store, logger *slog.Logger) {
	if err := st.Close(); err != nil {
		logger.Error("error closing database", "error", err)
	}
}

// reportSetupError reports a profile that could not be loaded or
// planned. These are command errors.
func reportSetupError(formatter *OutputFormatter, err error) error {
	var (
		le *LoadError
		pe *compiler.InvalidProfileError
	)
	switch {
	case errors.As(err, &le):
		_ = formatter.Error(le.Code, le.Message, nil)
	case errors.As(err, &pe):
		_ = formatter.Error(harness.ErrorCode(err), err.Error(), pe.Errors)
	default:
		_ = formatter.Error(codeOr(err, ErrCodeGeneric), err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, "invalid profile", err)
}

// reportRunError reports a failed run with the engine's error code.
func reportRunError(formatter *OutputFormatter, err error) error {
	code := codeOr(err, ErrCodeGeneric)
	_ = formatter.Error(code, err.Error(), nil)
	if code == "CANCELLED" {
		return WrapExitError(ExitCommandError, "analysis cancelled", err)
	}
	return WrapExitError(ExitFailure, "analysis failed", err)
}

func codeOr(err error, fallback string) string {
	if code := harness.ErrorCode(err); code != "" {
		return code
	}
	return fallback
}

func outputAnalyzeText(cmd *cobra.Command, formatter *OutputFormatter, out AnalyzeResult) error {
	w := cmd.OutOrStdout()
	for _, a := range out.Sessions {
		fmt.Fprintf(w, "Session %s (profile %s)\n", a.SessionID, a.Profile)
		fmt.Fprintf(w, "  run:     %s\n", a.RunID)
		fmt.Fprintf(w, "  digest:  %s\n", a.Digest)
		fmt.Fprintf(w, "  events:  %d dispatched, %d fabricated, %d malformed, %d edges\n",
			a.Stats.Dispatched, a.Stats.Fabricated, a.Stats.Malformed, a.Stats.Edges)
		for _, d := range a.Diagnostics {
			fmt.Fprintf(w, "  skipped: #%d %s@%d %s: %s\n", d.Index, d.Kind, d.Timestamp, d.Ability, d.Reason)
		}
		if a.Saved {
			fmt.Fprintln(w, "  saved")
		}
		if formatter.Verbose {
			data, err := ir.MarshalCanonical(a.Snapshot)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "  snapshot: %s\n", data)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "✓ Analyzed %d session(s)\n", len(out.Sessions))
	return nil
}
