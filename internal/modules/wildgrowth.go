package modules

import (
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
)

const (
	// wgEffectiveTargets is how many targets a hardcast must heal
	// effectively to count as an efficient cast.
	wgEffectiveTargets = 3
	// wgOverhealWindowMs bounds how long after application a HoT's
	// healing is watched.
	wgOverhealWindowMs = 3000
)

// WildGrowthCast is the tally of one hardcast.
type WildGrowthCast struct {
	Timestamp     int64
	Hits          int
	EffectiveHits int
}

type hotTally struct {
	applied  int64
	total    int64
	overheal int64
}

// effective reports whether less than half of the watched healing was
// overheal.
func (h *hotTally) effective() bool {
	return h.total > 2*h.overheal
}

// WildGrowth follows the appliedHot relation from each hardcast to the
// HoTs it applied and grades the cast when the next one starts or the
// fight ends.
type WildGrowth struct {
	abilities *AbilityTracker

	open     bool
	openTS   int64
	recent   map[int64]*hotTally
	casts    []WildGrowthCast
	totals   wildGrowthTotals
	rejuvens int64
}

type wildGrowthTotals struct {
	casts            int64
	hits             int64
	effectiveHits    int64
	ineffectiveCasts int64
	tooFewHitsCasts  int64
	tooMuchOverheal  int64
}

// WildGrowthSpec declares the wildGrowth module.
func WildGrowthSpec() module.Spec {
	return module.Spec{
		Name:         NameWildGrowth,
		Dependencies: map[string]string{"abilityTracker": NameAbilityTracker},
		New:          newWildGrowth,
	}
}

func newWildGrowth(ctx module.Context, deps *module.Deps) (any, error) {
	abilities, err := module.Dep[*AbilityTracker](deps, "abilityTracker")
	if err != nil {
		return nil, err
	}
	wg := &WildGrowth{abilities: abilities, recent: map[int64]*hotTally{}}
	ctx.Subscribe(filter.New(ir.KindCast).By(filter.SelectedPlayer).Spell(SpellWildGrowth), wg.onCast)
	ctx.Subscribe(filter.New(ir.KindHeal).By(filter.SelectedPlayer).Spell(SpellWildGrowth), wg.onHeal)
	return wg, nil
}

func (wg *WildGrowth) onCast(ev *ir.Event) error {
	wg.tally()
	wg.open = true
	wg.openTS = ev.Timestamp
	wg.recent = map[int64]*hotTally{}
	for _, hot := range ir.RelatedEvents(ev, RelAppliedHot) {
		if hot.Kind == ir.KindApplyBuff || hot.Kind == ir.KindRefreshBuff {
			wg.recent[hot.TargetID] = &hotTally{applied: hot.Timestamp}
		}
	}
	return nil
}

func (wg *WildGrowth) onHeal(ev *ir.Event) error {
	h, ok := wg.recent[ev.TargetID]
	if !ok || ev.Timestamp-h.applied > wgOverhealWindowMs {
		return nil
	}
	h.total += ev.Amount + ev.Absorbed + ev.Overheal
	h.overheal += ev.Overheal
	return nil
}

func (wg *WildGrowth) tally() {
	if !wg.open {
		return
	}
	wg.open = false

	hits := len(wg.recent)
	effective := 0
	for _, h := range wg.recent {
		if h.effective() {
			effective++
		}
	}

	wg.totals.casts++
	wg.totals.hits += int64(hits)
	wg.totals.effectiveHits += int64(effective)
	if effective < wgEffectiveTargets {
		wg.totals.ineffectiveCasts++
		if hits-effective >= 2 {
			wg.totals.tooMuchOverheal++
		}
		if hits < wgEffectiveTargets {
			wg.totals.tooFewHitsCasts++
		}
	}
	wg.casts = append(wg.casts, WildGrowthCast{Timestamp: wg.openTS, Hits: hits, EffectiveHits: effective})
}

func (wg *WildGrowth) OnRunEnd() error {
	wg.tally()
	wg.rejuvens = wg.abilities.Ability(SpellRejuvenation).Casts
	return nil
}

// Casts returns the per-cast log in cast order.
func (wg *WildGrowth) Casts() []WildGrowthCast {
	out := make([]WildGrowthCast, len(wg.casts))
	copy(out, wg.casts)
	return out
}

// AverageEffectiveHitsX100 returns effective hits per cast times 100.
func (wg *WildGrowth) AverageEffectiveHitsX100() int64 {
	if wg.totals.casts == 0 {
		return 0
	}
	return wg.totals.effectiveHits * 100 / wg.totals.casts
}

func (wg *WildGrowth) Snapshot() ir.IRObject {
	log := make(ir.IRArray, len(wg.casts))
	for i, c := range wg.casts {
		log[i] = ir.IRObject{
			"ts":             ir.IRInt(c.Timestamp),
			"hits":           ir.IRInt(c.Hits),
			"effective_hits": ir.IRInt(c.EffectiveHits),
		}
	}
	return ir.IRObject{
		"casts":                   ir.IRInt(wg.totals.casts),
		"hits":                    ir.IRInt(wg.totals.hits),
		"effective_hits":          ir.IRInt(wg.totals.effectiveHits),
		"ineffective_casts":       ir.IRInt(wg.totals.ineffectiveCasts),
		"too_few_hits_casts":      ir.IRInt(wg.totals.tooFewHitsCasts),
		"too_much_overheal_casts": ir.IRInt(wg.totals.tooMuchOverheal),
		"avg_effective_hits_x100": ir.IRInt(wg.AverageEffectiveHitsX100()),
		"rejuvenation_casts":      ir.IRInt(wg.rejuvens),
		"log":                     log,
	}
}
