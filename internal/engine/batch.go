package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/module"
	"github.com/roach88/combatlens/internal/session"
)

// Plan is what to run over one session.
type Plan struct {
	Specs       []module.Spec
	Normalizers []linker.Normalizer
}

// PlanFunc builds the plan for a session. It is called from the batch
// goroutines and must be safe for concurrent use.
type PlanFunc func(sess *session.Session) (Plan, error)

// AnalyzeAll runs every session through its own run, at most limit at a
// time (limit <= 0 means one per session). Runs share nothing but the
// Engine's configuration. Results are returned in input order; the first
// failure cancels the runs not yet started and is returned.
func (e *Engine) AnalyzeAll(ctx context.Context, sessions []*session.Session, plan PlanFunc, limit int) ([]*Result, error) {
	results := make([]*Result, len(sessions))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, sess := range sessions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p, err := plan(sess)
			if err != nil {
				return fmt.Errorf("session %s: plan: %w", sess.ID, err)
			}
			res, err := e.Run(ctx, sess, p.Specs, p.Normalizers...)
			if err != nil {
				return fmt.Errorf("session %s: %w", sess.ID, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("batch complete", "sessions", len(sessions), "limit", limit)
	return results, nil
}
