// Package linker discovers relations between events before the dispatch
// pass and may splice fabricated events into the sequence.
//
// A Linker scans the sequence once per active LinkSpec. For each trigger at
// time T it searches referenced events in [T-backward, T+forward] that
// share the trigger's target (unless AnyTarget), ranks them by temporal
// distance and then sequence position, and accepts up to MaximumLinks.
// Every accepted pair gets a forward edge on the trigger and a reverse edge
// on the match. All edges are planned first and applied only if planning
// succeeded, so a failed normalization leaves no partial relation table.
package linker

import (
	"context"
	"math"
	"slices"
	"sort"

	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// Report summarizes what one normalizer added.
type Report struct {
	Normalizer string
	Edges      map[string]int // forward relation -> accepted pairs
	Fabricated int
	Skipped    []string // relations of inactive specs
}

// Normalizer enriches a sequence before the pass.
type Normalizer interface {
	Name() string
	Normalize(ctx context.Context, seq *ir.Sequence, c *session.Combatant) (Report, error)
}

// Link is one planned pair.
type Link struct {
	Spec       int
	Trigger    *ir.Event
	Referenced *ir.Event
}

// Linker applies a validated set of link specs.
type Linker struct {
	specs []LinkSpec
}

// New validates specs and returns a Linker for them.
func New(specs ...LinkSpec) (*Linker, error) {
	if err := validateSpecs(specs); err != nil {
		return nil, err
	}
	return &Linker{specs: slices.Clone(specs)}, nil
}

// Name implements Normalizer.
func (l *Linker) Name() string { return "linker" }

// Specs returns the link specs in declaration order.
func (l *Linker) Specs() []LinkSpec { return slices.Clone(l.specs) }

// Normalize plans every link and then applies the edges.
func (l *Linker) Normalize(ctx context.Context, seq *ir.Sequence, c *session.Combatant) (Report, error) {
	report := Report{Normalizer: l.Name(), Edges: map[string]int{}}

	links, skipped, err := l.Plan(ctx, seq, c)
	if err != nil {
		return report, err
	}
	report.Skipped = skipped

	for _, link := range links {
		spec := l.specs[link.Spec]
		link.Trigger.AddRelation(spec.Relation, link.Referenced)
		link.Referenced.AddRelation(spec.Reverse(), link.Trigger)
		report.Edges[spec.Relation]++
	}
	for _, s := range l.specs {
		if _, ok := report.Edges[s.Relation]; !ok && !slices.Contains(skipped, s.Relation) {
			report.Edges[s.Relation] = 0
		}
	}
	return report, nil
}

// Plan computes the links without touching the sequence. It returns the
// relations of specs disabled by IsActive separately.
func (l *Linker) Plan(ctx context.Context, seq *ir.Sequence, c *session.Combatant) ([]Link, []string, error) {
	var (
		links   []Link
		skipped []string
	)
	for i, spec := range l.specs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !spec.active(c) {
			skipped = append(skipped, spec.Relation)
			continue
		}
		links = append(links, planSpec(i, spec, seq, c)...)
	}
	return links, skipped, nil
}

type candidate struct {
	ev       *ir.Event
	distance int64
}

func planSpec(index int, spec LinkSpec, seq *ir.Sequence, c *session.Combatant) []Link {
	var refs []*ir.Event
	for _, ev := range seq.Events() {
		if spec.Referenced.Matches(ev, c) {
			refs = append(refs, ev)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	consumed := make(map[*ir.Event]int)
	var links []Link
	var cands []candidate

	for _, trig := range seq.Events() {
		if !spec.Trigger.Matches(trig, c) {
			continue
		}
		lo, hi := window(trig.Timestamp, spec.BackwardBufferMs, spec.ForwardBufferMs)

		cands = cands[:0]
		start := sort.Search(len(refs), func(i int) bool { return refs[i].Timestamp >= lo })
		for j := start; j < len(refs) && refs[j].Timestamp <= hi; j++ {
			ref := refs[j]
			if ref == trig {
				continue
			}
			if !spec.AnyTarget && ref.TargetID != trig.TargetID {
				continue
			}
			if spec.MaximumLinks > 0 && consumed[ref] >= spec.MaximumLinks {
				continue
			}
			if spec.Condition != nil && !spec.Condition(trig, ref) {
				continue
			}
			cands = append(cands, candidate{ev: ref, distance: abs(ref.Timestamp - trig.Timestamp)})
		}

		// refs are in position order, so a stable sort on distance breaks
		// ties by position.
		slices.SortStableFunc(cands, func(a, b candidate) int {
			switch {
			case a.distance < b.distance:
				return -1
			case a.distance > b.distance:
				return 1
			}
			return 0
		})
		if spec.MaximumLinks > 0 && len(cands) > spec.MaximumLinks {
			cands = cands[:spec.MaximumLinks]
		}
		for _, cand := range cands {
			consumed[cand.ev]++
			links = append(links, Link{Spec: index, Trigger: trig, Referenced: cand.ev})
		}
	}
	return links
}

// window returns [ts-backward, ts+forward], clamped to the int64 range.
// Both buffers are non-negative.
func window(ts, backward, forward int64) (lo, hi int64) {
	lo, hi = math.MinInt64, math.MaxInt64
	if ts >= 0 || backward <= ts-math.MinInt64 {
		lo = ts - backward
	}
	if ts <= 0 || forward <= math.MaxInt64-ts {
		hi = ts + forward
	}
	return lo, hi
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// Chain runs normalizers in order and collects their reports. It stops at
// the first error.
func Chain(ctx context.Context, seq *ir.Sequence, c *session.Combatant, normalizers ...Normalizer) ([]Report, error) {
	reports := make([]Report, 0, len(normalizers))
	for _, n := range normalizers {
		r, err := n.Normalize(ctx, seq, c)
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}
