package modules

import (
	"fmt"

	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
)

// HasteTimeline integrates the changehaste events over the fight window.
type HasteTimeline struct {
	haste  *Haste
	bounds module.Bounds

	start    int64
	lastTS   int64
	lastBP   int64
	maxBP    int64
	weighted int64 // bp*ms
	changes  int64
	average  int64
}

// HasteTimelineSpec declares the hasteTimeline module.
func HasteTimelineSpec() module.Spec {
	return module.Spec{
		Name:         NameHasteTimeline,
		Dependencies: map[string]string{"haste": NameHaste},
		New:          newHasteTimeline,
	}
}

func newHasteTimeline(ctx module.Context, deps *module.Deps) (any, error) {
	haste, err := module.Dep[*Haste](deps, "haste")
	if err != nil {
		return nil, err
	}
	b := ctx.Bounds()
	t := &HasteTimeline{
		haste:  haste,
		bounds: b,
		start:  b.Start,
		lastTS: b.Start,
		lastBP: haste.CurrentBP(),
		maxBP:  haste.CurrentBP(),
	}
	ctx.Subscribe(filter.New(ir.KindChangeHaste), t.onChangeHaste)
	return t, nil
}

func (t *HasteTimeline) onChangeHaste(ev *ir.Event) error {
	if ev.Timestamp < t.start {
		t.start, t.lastTS = ev.Timestamp, ev.Timestamp
	}
	t.weighted += t.lastBP * (ev.Timestamp - t.lastTS)
	t.lastTS = ev.Timestamp
	t.lastBP = ev.Payload.IntOr("new_bp", t.lastBP)
	t.maxBP = max(t.maxBP, t.lastBP)
	t.changes++
	return nil
}

func (t *HasteTimeline) OnRunEnd() error {
	if final := t.haste.CurrentBP(); final != t.lastBP {
		return fmt.Errorf("timeline ended at %d bp but haste reports %d bp", t.lastBP, final)
	}
	end := max(t.bounds.End, t.lastTS)
	t.weighted += t.lastBP * (end - t.lastTS)
	if d := end - t.start; d > 0 {
		t.average = t.weighted / d
	} else {
		t.average = t.lastBP
	}
	return nil
}

// AverageBP returns the time-weighted average haste, valid after the run.
func (t *HasteTimeline) AverageBP() int64 { return t.average }

// MaxBP returns the highest haste seen.
func (t *HasteTimeline) MaxBP() int64 { return t.maxBP }

func (t *HasteTimeline) Snapshot() ir.IRObject {
	return ir.IRObject{
		"average_bp": ir.IRInt(t.average),
		"max_bp":     ir.IRInt(t.maxBP),
		"changes":    ir.IRInt(t.changes),
	}
}
