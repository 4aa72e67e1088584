package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/combatlens/internal/catalog"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/module"
	"github.com/roach88/combatlens/internal/session"
)

// Engine runs analyses. An Engine holds configuration only; every call
// to Run owns its own state, so one Engine may serve concurrent runs.
type Engine struct {
	logger          *slog.Logger
	catalog         *catalog.Catalog
	runIDs          RunIDGenerator
	observer        func(*ir.Event)
	maxFabrications int
	metrics         *engineMetrics
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCatalog sets the ability catalog used in diagnostics. Default: the
// builtin catalog.
func WithCatalog(c *catalog.Catalog) EngineOption {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithRunIDGenerator sets the run id source. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithObserver registers fn to see every dispatched event, native and
// fabricated, in dispatch order, before any subscription. The observer
// runs inside the pass and must not retain state across runs it does not
// own.
func WithObserver(fn func(*ir.Event)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

// WithMaxFabrications sets the fabrication quota per run.
//
// Default: 1,000,000 (DefaultMaxFabrications)
// Use WithMaxFabrications(10) for testing quota enforcement.
func WithMaxFabrications(n int) EngineOption {
	return func(e *Engine) {
		e.maxFabrications = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:          slog.Default(),
		runIDs:          UUIDv7Generator{},
		maxFabrications: DefaultMaxFabrications,
		metrics:         &engineMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.catalog == nil {
		e.catalog = catalog.Builtin()
	}
	return e
}

// Run analyses sess with the given module specs after applying the
// normalizers in order.
//
// ctx is checked before each stage that precedes the pass. The pass itself
// is not interruptible: it either completes or a module aborts it.
func (e *Engine) Run(ctx context.Context, sess *session.Session, specs []module.Spec, normalizers ...linker.Normalizer) (*Result, error) {
	if sess == nil {
		return nil, fmt.Errorf("engine: nil session")
	}
	e.metrics.init(e.logger)

	runID := e.runIDs.Generate()
	logger := e.logger.With("run_id", runID, "session", sess.ID)
	started := time.Now()

	ctx, span := tracer.Start(ctx, "engine.Run",
		trace.WithAttributes(
			attribute.String("combatlens.run_id", runID),
			attribute.String("combatlens.session", sess.ID),
			attribute.Int("combatlens.input_events", len(sess.Events)),
			attribute.Int("combatlens.modules", len(specs)),
		),
	)
	defer span.End()

	result, err := e.run(ctx, runID, sess, specs, normalizers, logger)
	attrs := metric.WithAttributes(attribute.String("session", sess.ID))
	if e.metrics.runDuration != nil {
		e.metrics.runDuration.Record(ctx, time.Since(started).Seconds(), attrs)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if e.metrics.failures != nil {
			e.metrics.failures.Add(ctx, 1, attrs)
		}
		logger.Error("run aborted", "error", err)
		return nil, err
	}

	if e.metrics.runs != nil {
		e.metrics.runs.Add(ctx, 1, attrs)
		e.metrics.dispatched.Add(ctx, int64(result.Stats.Dispatched), attrs)
		e.metrics.fabricated.Add(ctx, int64(result.Stats.Fabricated), attrs)
		e.metrics.malformed.Add(ctx, int64(result.Stats.Malformed), attrs)
	}
	span.SetAttributes(
		attribute.Int("combatlens.dispatched", result.Stats.Dispatched),
		attribute.Int("combatlens.fabricated", result.Stats.Fabricated),
	)
	span.SetStatus(codes.Ok, "")
	logger.Info("run complete",
		"dispatched", result.Stats.Dispatched,
		"fabricated", result.Stats.Fabricated,
		"malformed", result.Stats.Malformed,
		"edges", result.Stats.Edges,
	)
	return result, nil
}

func (e *Engine) run(ctx context.Context, runID string, sess *session.Session, specs []module.Spec, normalizers []linker.Normalizer, logger *slog.Logger) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valid, diags := e.validate(sess, logger)
	seq := ir.NewSequence(valid)
	stats := Stats{InputEvents: len(sess.Events), Malformed: len(diags)}

	nctx, nspan := tracer.Start(ctx, "engine.Normalize")
	reports, err := linker.Chain(nctx, seq, &sess.Combatant, normalizers...)
	nspan.End()
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, rep := range reports {
		stats.Spliced += rep.Fabricated
		for _, n := range rep.Edges {
			stats.Edges += n
		}
		logger.Debug("normalizer applied", "normalizer", rep.Normalizer, "edges", rep.Edges, "fabricated", rep.Fabricated, "skipped", rep.Skipped)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := newRun(runID, sess, seq, e, logger)

	_, bspan := tracer.Start(ctx, "engine.Build")
	reg, err := module.Build(specs, r.contextFor)
	bspan.End()
	if r.fatal != nil {
		return nil, r.fatal
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("modules constructed", "order", reg.Names())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, dspan := tracer.Start(ctx, "engine.Dispatch",
		trace.WithAttributes(attribute.Int("combatlens.sequence", seq.Len())),
	)
	err = r.pass()
	if err == nil {
		err = r.finish(reg)
	}
	dspan.End()
	if err != nil {
		return nil, err
	}

	stats.Fabricated = r.stats.Fabricated
	stats.Dispatched = r.stats.Dispatched
	stats.HandlerCalls = r.stats.HandlerCalls

	return &Result{
		RunID:       runID,
		SessionID:   sess.ID,
		Registry:    reg,
		Diagnostics: diags,
		Reports:     reports,
		Stats:       stats,
	}, nil
}

// validate drops malformed events and records a diagnostic for each.
func (e *Engine) validate(sess *session.Session, logger *slog.Logger) ([]ir.Event, []Diagnostic) {
	valid := make([]ir.Event, 0, len(sess.Events))
	var diags []Diagnostic
	for i := range sess.Events {
		ev := sess.Events[i]
		if err := ir.Validate(i, &ev); err != nil {
			d := Diagnostic{
				Index:     i,
				Kind:      ev.Kind,
				Timestamp: ev.Timestamp,
				AbilityID: ev.AbilityID,
				Ability:   e.catalog.Name(ev.AbilityID),
				Reason:    err.(*ir.MalformedEventError).Reason,
			}
			diags = append(diags, d)
			logger.Warn("skipping malformed event",
				"index", i,
				"kind", ev.Kind,
				"ts", ev.Timestamp,
				"ability", d.Ability,
				"reason", d.Reason,
			)
			continue
		}
		valid = append(valid, ev)
	}
	return valid, diags
}

// RunAnalysis is the one-call orchestration API: it validates links, runs
// the engine and returns the module registry for read-only inspection.
func RunAnalysis(ctx context.Context, sess *session.Session, specs []module.Spec, links []linker.LinkSpec, opts ...EngineOption) (*module.Registry, error) {
	l, err := linker.New(links...)
	if err != nil {
		return nil, err
	}
	res, err := New(opts...).Run(ctx, sess, specs, l)
	if err != nil {
		return nil, err
	}
	return res.Registry, nil
}
