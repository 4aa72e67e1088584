package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/harness"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
	"github.com/roach88/combatlens/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Profile string
	Session string   // stored session id, instead of a file
	Kinds   []string // optional - filter to event kinds
	Ability int64    // optional - filter to one ability
}

// TraceEntry represents a single dispatched event in the timeline.
type TraceEntry struct {
	Label      string          `json:"label"`
	Event      string          `json:"event"`
	Fabricated bool            `json:"fabricated,omitempty"`
	Relations  []TraceRelation `json:"relations,omitempty"`
}

// TraceRelation is one relation edge of a traced event.
type TraceRelation struct {
	Name  string `json:"name"`
	Other string `json:"other"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionID string       `json:"session_id"`
	RunID     string       `json:"run_id"`
	Timeline  []TraceEntry `json:"timeline"`
	Stats     engine.Stats `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [session.yaml]",
		Short: "Show the dispatch order and relations of a run",
		Long: `Run a session and print every dispatched event in order.

The timeline includes events fabricated by normalizers and modules
(marked with *) and, for each event, the relation edges the linker
placed on it.

Examples:
  combatlens trace fight.yaml
  combatlens trace --db ./logs.db --session wg-pull-1 --kind cast,applybuff
  combatlens trace fight.yaml --ability 48438 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Profile, "profile", "", "CUE profile file or directory (default: built-in profile)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "stored session id to trace")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "filter to event kinds")
	cmd.Flags().Int64Var(&opts.Ability, "ability", 0, "filter to an ability id")

	return cmd
}

func runTrace(opts *TraceOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	if (opts.Session != "") == (len(args) == 1) {
		return NewExitError(ExitCommandError, "give a session file or --session, not both")
	}

	_, plan, err := loadPlan(opts.Profile)
	if err != nil {
		return reportSetupError(formatter, err)
	}

	var sess *session.Session
	if opts.Session != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer closeStore(st, logger)
		sess, err = st.ReadSession(cmd.Context(), opts.Session)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read session", err)
		}
	} else {
		sess, err = session.Load(args[0])
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load session", err)
		}
	}

	// Relations are complete only after the pass, so keep the events
	// and render them afterwards.
	var dispatched []*ir.Event
	eng := opts.newEngine(logger, engine.WithObserver(func(ev *ir.Event) {
		dispatched = append(dispatched, ev)
	}))
	res, err := eng.Run(cmd.Context(), sess, plan.Specs, plan.Normalizers...)
	if err != nil {
		return reportRunError(formatter, err)
	}

	result := TraceResult{
		SessionID: res.SessionID,
		RunID:     res.RunID,
		Timeline:  buildTimeline(dispatched, opts.Kinds, opts.Ability),
		Stats:     res.Stats,
	}

	if opts.Format == "json" {
		return formatter.SuccessRun(res.RunID, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline renders dispatched events, keeping those that match the
// kind and ability filters.
func buildTimeline(events []*ir.Event, kinds []string, ability int64) []TraceEntry {
	timeline := []TraceEntry{}
	for _, ev := range events {
		if len(kinds) > 0 && !slices.Contains(kinds, string(ev.Kind)) {
			continue
		}
		if ability != 0 && ev.AbilityID != ability {
			continue
		}
		entry := TraceEntry{
			Label:      harness.Label(ev),
			Event:      ev.String(),
			Fabricated: ev.Fabricated,
		}
		for _, edge := range ev.Relations() {
			entry.Relations = append(entry.Relations, TraceRelation{Name: edge.Name, Other: edge.Other.String()})
		}
		timeline = append(timeline, entry)
	}
	return timeline
}

// outputTraceText outputs the trace as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace: session %s, run %s\n", result.SessionID, result.RunID)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No matching events.")
	}
	for i, entry := range result.Timeline {
		fmt.Fprintf(w, "[%d] %s\n", i+1, entry.Event)
		for _, rel := range entry.Relations {
			fmt.Fprintf(w, "      %s -> %s\n", rel.Name, rel.Other)
		}
	}

	fmt.Fprintln(w)
	s := result.Stats
	fmt.Fprintf(w, "Stats: %d dispatched, %d fabricated, %d spliced, %d edges\n", s.Dispatched, s.Fabricated, s.Spliced, s.Edges)
	if verbose {
		fmt.Fprintf(w, "  input events: %d, malformed: %d, handler calls: %d\n", s.InputEvents, s.Malformed, s.HandlerCalls)
	}
	return nil
}
