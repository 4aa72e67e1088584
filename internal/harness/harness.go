package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/combatlens/internal/compiler"
	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/module"
	"github.com/roach88/combatlens/internal/queryir"
	"github.com/roach88/combatlens/internal/session"
)

// DefaultRunID is the run id of scenarios that do not set one.
const DefaultRunID = "test-run-default"

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the session fixture
// 2. Compile the profile (or take the default) and apply module overrides
// 3. Run the engine with a fixed run id, recording every dispatched event
// 4. Evaluate assertions against the trace and snapshot
//
// The returned error covers setup failures only. A failed run is
// recorded on the result and fails it unless an error_code assertion
// expects it.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	sess, err := session.Load(scenario.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	profile, err := loadProfile(scenario.Profile)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if len(scenario.Modules) > 0 {
		profile.Modules = scenario.Modules
	}
	plan, err := profile.Plan()
	if err != nil {
		return nil, fmt.Errorf("failed to build plan: %w", err)
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}

	result := NewResult()
	result.RunID = runID

	opts := []engine.EngineOption{
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		engine.WithRunIDGenerator(engine.NewFixedGenerator(runID)),
		engine.WithObserver(result.addTrace),
	}
	if scenario.MaxFabrications > 0 {
		opts = append(opts, engine.WithMaxFabrications(scenario.MaxFabrications))
	}
	eng := engine.New(opts...)

	res, runErr := eng.Run(ctx, sess, plan.Specs, plan.Normalizers...)
	if runErr != nil {
		result.RunError = runErr.Error()
		result.ErrorCode = ErrorCode(runErr)
		if !scenario.expectsFailure() {
			result.AddError(fmt.Sprintf("run failed: %v", runErr))
		}
	} else {
		result.Snapshot = res.Snapshot()
		digest, err := res.Digest()
		if err != nil {
			return nil, fmt.Errorf("failed to digest snapshot: %w", err)
		}
		result.Digest = digest
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func loadProfile(path string) (*compiler.Profile, error) {
	if path == "" {
		return compiler.DefaultProfile(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return compiler.CompileProfileSource(path, src)
}

// ErrorCode extracts the machine-readable code of a run or setup error.
// Returns "" for errors without one.
func ErrorCode(err error) string {
	var (
		re *engine.RuntimeError
		ge *module.GraphError
		le *linker.LinkSpecError
		me *ir.MalformedEventError
		ce *compiler.CompileError
		pe *compiler.InvalidProfileError
		qe *queryir.ValidationError
		de *engine.DeterminismError
	)
	switch {
	case errors.As(err, &re):
		return string(re.Code)
	case errors.As(err, &ge):
		return string(ge.Code)
	case errors.As(err, &le):
		return le.Code
	case errors.As(err, &me):
		return "MALFORMED_EVENT"
	case errors.As(err, &pe):
		if len(pe.Errors) > 0 {
			return pe.Errors[0].Code
		}
		return "INVALID_PROFILE"
	case errors.As(err, &ce):
		return "COMPILE_ERROR"
	case errors.As(err, &qe):
		return "INVALID_QUERY"
	case errors.As(err, &de):
		return "NONDETERMINISTIC"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CANCELLED"
	}
	return ""
}
