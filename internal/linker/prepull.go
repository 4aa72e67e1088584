package linker

import (
	"context"

	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// PrepullBuffs fabricates an applybuff at the start of the sequence for
// every buff whose first event in the log is a refresh, stack change or
// removal, i.e. buffs that were already up at the pull.
type PrepullBuffs struct {
	// Scope restricts which buff events are considered. The zero value
	// considers buffs on the selected player.
	Scope filter.Filter
}

// Name implements Normalizer.
func (p PrepullBuffs) Name() string { return "prepullBuffs" }

type buffKey struct {
	ability int64
	target  int64
}

// Normalize implements Normalizer.
func (p PrepullBuffs) Normalize(ctx context.Context, seq *ir.Sequence, c *session.Combatant) (Report, error) {
	report := Report{Normalizer: p.Name(), Edges: map[string]int{}}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if seq.Len() == 0 {
		return report, nil
	}

	scope := p.Scope
	if scope.IsZero() {
		scope = filter.New(ir.KindApplyBuff, ir.KindApplyBuffStack, ir.KindChangeBuffStack, ir.KindRefreshBuff, ir.KindRemoveBuff).To(filter.SelectedPlayer)
	}

	seen := make(map[buffKey]bool)
	var missing []ir.Event
	for _, ev := range seq.Events() {
		if !scope.Matches(ev, c) {
			continue
		}
		key := buffKey{ability: ev.AbilityID, target: ev.TargetID}
		first := !seen[key]
		seen[key] = true
		switch ev.Kind {
		case ir.KindApplyBuffStack, ir.KindChangeBuffStack, ir.KindRefreshBuff, ir.KindRemoveBuff:
			if first {
				missing = append(missing, ir.Event{
					Kind:      ir.KindApplyBuff,
					SourceID:  ev.SourceID,
					TargetID:  ev.TargetID,
					AbilityID: ev.AbilityID,
					Payload:   ir.IRObject{"prepull": ir.IRBool(true)},
				})
			}
		}
	}

	start := seq.At(0).Timestamp
	for i, ev := range missing {
		ev.Timestamp = start
		if _, err := seq.Splice(i, ev); err != nil {
			return report, err
		}
		report.Fabricated++
	}
	return report, nil
}
