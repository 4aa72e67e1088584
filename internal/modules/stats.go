package modules

import (
	"fmt"
	"slices"

	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
)

// HasteRatingPerPercent is the haste rating worth 1% haste.
const HasteRatingPerPercent = 170

// ratingBuffs maps buffs granting flat haste rating to the rating gained.
var ratingBuffs = map[int64]int64{
	SpellWellFed: 340,
}

// StatTracker follows the player's haste rating. Every change is
// announced as a fabricated changestats event carrying before_haste,
// after_haste and delta_haste ratings.
type StatTracker struct {
	ctx     module.Context
	base    int64
	rating  int64
	changes int64
}

// StatTrackerSpec declares the statTracker module.
func StatTrackerSpec() module.Spec {
	return module.Spec{Name: NameStatTracker, New: newStatTracker}
}

func newStatTracker(ctx module.Context, _ *module.Deps) (any, error) {
	rating := ctx.Combatant().HasteRating
	if rating < 0 {
		return nil, fmt.Errorf("negative starting haste rating %d", rating)
	}
	s := &StatTracker{ctx: ctx, base: rating, rating: rating}

	ids := make([]int64, 0, len(ratingBuffs))
	for id := range ratingBuffs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	buffs := filter.New(ir.KindApplyBuff).To(filter.SelectedPlayer).Spell(ids...)
	ctx.Subscribe(buffs, s.onApply)
	ctx.Subscribe(filter.New(ir.KindRemoveBuff).To(filter.SelectedPlayer).Spell(ids...), s.onRemove)
	return s, nil
}

func (s *StatTracker) onApply(ev *ir.Event) error {
	return s.change(ev, ratingBuffs[ev.AbilityID])
}

func (s *StatTracker) onRemove(ev *ir.Event) error {
	return s.change(ev, -ratingBuffs[ev.AbilityID])
}

func (s *StatTracker) change(ev *ir.Event, delta int64) error {
	if delta == 0 {
		return nil
	}
	before := s.rating
	s.rating += delta
	s.changes++
	_, err := s.ctx.Fabricate(ev, ir.Event{
		Kind:      ir.KindChangeStats,
		SourceID:  ev.SourceID,
		TargetID:  s.ctx.Combatant().PlayerID,
		AbilityID: ev.AbilityID,
		Payload: ir.IRObject{
			"before_haste": ir.IRInt(before),
			"after_haste":  ir.IRInt(s.rating),
			"delta_haste":  ir.IRInt(delta),
		},
	})
	return err
}

// HasteRating returns the current haste rating.
func (s *StatTracker) HasteRating() int64 { return s.rating }

// HastePercentage converts a rating into a haste fraction (0.1 = 10%).
func (s *StatTracker) HastePercentage(rating int64) float64 {
	return float64(rating) / HasteRatingPerPercent / 100
}

// CurrentHastePercentage is HastePercentage of the current rating.
func (s *StatTracker) CurrentHastePercentage() float64 {
	return s.HastePercentage(s.rating)
}

func (s *StatTracker) Snapshot() ir.IRObject {
	return ir.IRObject{
		"base_haste_rating": ir.IRInt(s.base),
		"haste_rating":      ir.IRInt(s.rating),
		"changes":           ir.IRInt(s.changes),
	}
}
