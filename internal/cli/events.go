package cli

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/queryir"
	"github.com/roach88/combatlens/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Session   string
	Kinds     []string
	Abilities []int64
	Source    int64
	Target    int64
	From      int64
	To        int64
	Limit     int
}

// EventsResult holds the events command result.
type EventsResult struct {
	SessionID string        `json:"session_id"`
	Events    []ir.IRObject `json:"events"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Query the stored events of a session",
		Long: `Query the stored events of a session in sequence order.

Filters combine with AND. Time bounds are inclusive.

Examples:
  combatlens events --db ./logs.db --session wg-pull-1
  combatlens events --db ./logs.db --session wg-pull-1 --kind heal --ability 48438
  combatlens events --db ./logs.db --session wg-pull-1 --from 1000 --to 5000 --limit 20`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session id (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "event kinds")
	cmd.Flags().Int64SliceVar(&opts.Abilities, "ability", nil, "ability ids")
	cmd.Flags().Int64Var(&opts.Source, "source", 0, "source actor id")
	cmd.Flags().Int64Var(&opts.Target, "target", 0, "target actor id")
	cmd.Flags().Int64Var(&opts.From, "from", -1, "earliest timestamp (ms)")
	cmd.Flags().Int64Var(&opts.To, "to", -1, "latest timestamp (ms)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum events (0 = all)")

	return cmd
}

// Query builds the event query described by the flags.
func (o *EventsOptions) Query() queryir.EventQuery {
	var preds []queryir.Predicate
	if len(o.Kinds) > 0 {
		values := make([]ir.IRValue, len(o.Kinds))
		for i, k := range o.Kinds {
			values[i] = ir.IRString(k)
		}
		preds = append(preds, queryir.In{Field: "kind", Values: values})
	}
	if len(o.Abilities) > 0 {
		values := make([]ir.IRValue, len(o.Abilities))
		for i, id := range o.Abilities {
			values[i] = ir.IRInt(id)
		}
		preds = append(preds, queryir.In{Field: "ability_id", Values: values})
	}
	if o.Source != 0 {
		preds = append(preds, queryir.Equals{Field: "source_id", Value: ir.IRInt(o.Source)})
	}
	if o.Target != 0 {
		preds = append(preds, queryir.Equals{Field: "target_id", Value: ir.IRInt(o.Target)})
	}
	if o.From >= 0 || o.To >= 0 {
		lo, hi := o.From, o.To
		if lo < 0 {
			lo = 0
		}
		if hi < 0 {
			hi = math.MaxInt64
		}
		preds = append(preds, queryir.Between{Field: "timestamp", Min: lo, Max: hi})
	}

	q := queryir.EventQuery{SessionID: o.Session, Limit: o.Limit}
	switch len(preds) {
	case 0:
	case 1:
		q.Filter = preds[0]
	default:
		q.Filter = queryir.And{Predicates: preds}
	}
	return q
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore(st, logger)

	events, err := st.QueryEvents(cmd.Context(), opts.Query())
	if err != nil {
		var qe *queryir.ValidationError
		if errors.As(err, &qe) {
			_ = formatter.Error(ErrCodeBadQuery, err.Error(), qe.Problems)
		} else {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "event query failed", err)
	}

	if opts.Format == "json" {
		result := EventsResult{SessionID: opts.Session, Events: make([]ir.IRObject, len(events))}
		for i := range events {
			obj := events[i].ToIR()
			obj["position"] = ir.IRInt(events[i].Position)
			result.Events[i] = obj
		}
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	for i := range events {
		ev := &events[i]
		fmt.Fprintf(w, "%s amount=%d\n", ev.String(), ev.Amount)
	}
	fmt.Fprintf(w, "%d event(s)\n", len(events))
	return nil
}
