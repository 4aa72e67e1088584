package modules

import (
	"fmt"
	"math"

	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
	"github.com/roach88/combatlens/internal/session"
)

// HasteBuff describes how a buff changes haste. It is one of
// FlatPercentage, PerStack or Computed.
type HasteBuff interface {
	hasteBuff()
}

// FlatPercentage is a fixed haste gain while the buff is up (0.3 = 30%).
type FlatPercentage float64

// PerStack is a haste gain per stack of the buff.
type PerStack float64

// Computed derives the gain from the combatant when the buff is evaluated.
type Computed struct {
	PerStack bool
	Value    func(c *session.Combatant) float64
}

func (FlatPercentage) hasteBuff() {}
func (PerStack) hasteBuff()       {}
func (Computed) hasteBuff()       {}

// Effect is an evaluated HasteBuff. At most one field is non-zero.
type Effect struct {
	Flat     float64
	PerStack float64
}

// Evaluate resolves b against c.
func Evaluate(b HasteBuff, c *session.Combatant) Effect {
	switch v := b.(type) {
	case FlatPercentage:
		return Effect{Flat: float64(v)}
	case PerStack:
		return Effect{PerStack: float64(v)}
	case Computed:
		if v.Value == nil {
			return Effect{}
		}
		if v.PerStack {
			return Effect{PerStack: v.Value(c)}
		}
		return Effect{Flat: v.Value(c)}
	default:
		return Effect{}
	}
}

// AddHaste returns base with gain applied. Haste percentages combine
// multiplicatively.
func AddHaste(base, gain float64) float64 {
	return base*(1+gain) + gain
}

// RemoveHaste returns base with loss taken back out.
func RemoveHaste(base, loss float64) float64 {
	return (base - loss) / (1 + loss)
}

// BasisPoints converts a haste fraction to basis points (0.3 = 3000).
func BasisPoints(h float64) int64 {
	return int64(math.Round(h * 10000))
}

func defaultHasteBuffs() map[int64]HasteBuff {
	return map[int64]HasteBuff{
		SpellBloodlust:     FlatPercentage(0.3),
		SpellHeroism:       FlatPercentage(0.3),
		SpellPowerInfusion: FlatPercentage(0.2),
		SpellBerserking:    FlatPercentage(0.1),
		SpellStarlord:      PerStack(0.04),
	}
}

// Haste tracks the player's haste percentage and announces every change
// as a fabricated changehaste event with old_bp and new_bp payload keys.
type Haste struct {
	ctx     module.Context
	stats   *StatTracker
	buffs   map[int64]HasteBuff
	current float64
	changes int64
}

// HasteSpec declares the haste module.
func HasteSpec() module.Spec {
	return module.Spec{
		Name:         NameHaste,
		Dependencies: map[string]string{"statTracker": NameStatTracker},
		New:          newHaste,
	}
}

func newHaste(ctx module.Context, deps *module.Deps) (any, error) {
	stats, err := module.Dep[*StatTracker](deps, "statTracker")
	if err != nil {
		return nil, err
	}
	h := &Haste{
		ctx:     ctx,
		stats:   stats,
		buffs:   defaultHasteBuffs(),
		current: stats.CurrentHastePercentage(),
	}

	// Starting haste, ahead of every native event.
	if _, err := ctx.Fabricate(nil, h.template(nil, nil)); err != nil {
		return nil, err
	}

	player := filter.SelectedPlayer
	ctx.Subscribe(filter.New(ir.KindApplyBuff, ir.KindApplyDebuff).To(player), h.onApply)
	ctx.Subscribe(filter.New(ir.KindChangeBuffStack, ir.KindChangeDebuffStack).To(player), h.onStack)
	ctx.Subscribe(filter.New(ir.KindRemoveBuff, ir.KindRemoveDebuff).To(player), h.onRemove)
	ctx.Subscribe(filter.New(ir.KindChangeStats).To(player), h.onChangeStats)
	return h, nil
}

// AddHasteBuff registers or replaces the effect of ability id. Modules
// call it from their constructor, before the pass starts.
func (h *Haste) AddHasteBuff(id int64, b HasteBuff) {
	h.buffs[id] = b
}

// Current returns the current haste fraction.
func (h *Haste) Current() float64 { return h.current }

// CurrentBP returns the current haste in basis points.
func (h *Haste) CurrentBP() int64 { return BasisPoints(h.current) }

func (h *Haste) effect(id int64) Effect {
	b, ok := h.buffs[id]
	if !ok {
		return Effect{}
	}
	return Evaluate(b, h.ctx.Combatant())
}

func (h *Haste) onApply(ev *ir.Event) error {
	gain := h.effect(ev.AbilityID).Flat
	if gain == 0 {
		return nil
	}
	return h.set(ev, AddHaste(h.current, gain))
}

func (h *Haste) onRemove(ev *ir.Event) error {
	loss := h.effect(ev.AbilityID).Flat
	if loss == 0 {
		return nil
	}
	return h.set(ev, RemoveHaste(h.current, loss))
}

func (h *Haste) onStack(ev *ir.Event) error {
	per := h.effect(ev.AbilityID).PerStack
	if per == 0 {
		return nil
	}
	base := RemoveHaste(h.current, float64(ev.OldStacks)*per)
	return h.set(ev, AddHaste(base, float64(ev.NewStacks)*per))
}

// onChangeStats swaps the rating share of the current haste for the new
// rating while keeping the percentage buffs.
func (h *Haste) onChangeStats(ev *ir.Event) error {
	if ev.Payload.IntOr("delta_haste", 0) == 0 {
		return nil
	}
	buffs := RemoveHaste(h.current, h.stats.HastePercentage(ev.Payload.IntOr("before_haste", 0)))
	return h.set(ev, AddHaste(h.stats.HastePercentage(ev.Payload.IntOr("after_haste", 0)), buffs))
}

func (h *Haste) set(ev *ir.Event, haste float64) error {
	if math.IsNaN(haste) || math.IsInf(haste, 0) {
		return fmt.Errorf("invalid haste value %v after %s", haste, ev)
	}
	old := h.current
	h.current = haste
	h.changes++
	h.ctx.Logger().Debug("haste changed", "ts", ev.Timestamp, "ability", h.ctx.Catalog().Name(ev.AbilityID), "old_bp", BasisPoints(old), "new_bp", BasisPoints(haste))
	_, err := h.ctx.Fabricate(ev, h.template(ev, &old))
	return err
}

func (h *Haste) template(trigger *ir.Event, old *float64) ir.Event {
	player := h.ctx.Combatant().PlayerID
	tmpl := ir.Event{
		Kind:     ir.KindChangeHaste,
		SourceID: player,
		TargetID: player,
		Payload:  ir.IRObject{"new_bp": ir.IRInt(BasisPoints(h.current))},
	}
	if trigger != nil {
		tmpl.SourceID = trigger.SourceID
		tmpl.AbilityID = trigger.AbilityID
	}
	if old != nil {
		tmpl.Payload["old_bp"] = ir.IRInt(BasisPoints(*old))
	}
	return tmpl
}

func (h *Haste) Snapshot() ir.IRObject {
	return ir.IRObject{
		"current_bp": ir.IRInt(h.CurrentBP()),
		"changes":    ir.IRInt(h.changes),
	}
}
