package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/combatlens/internal/engine"
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/linker"
	"github.com/roach88/combatlens/internal/modules"
)

// normalizers maps profile names to the normalizers that run before the
// linker, in the order the profile lists them.
var normalizers = map[string]func() linker.Normalizer{
	"prepullBuffs": func() linker.Normalizer { return linker.PrepullBuffs{} },
}

// NormalizerNames returns the registered normalizer names, sorted.
func NormalizerNames() []string {
	names := make([]string, 0, len(normalizers))
	for n := range normalizers {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// InvalidProfileError wraps the validation errors of a profile that could
// not be turned into a plan.
type InvalidProfileError struct {
	Profile string
	Errors  []ValidationError
}

func (e *InvalidProfileError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("profile %q is invalid: %s", e.Profile, strings.Join(msgs, "; "))
}

// LinkSpecs converts the declared links into linker specs in declaration
// order.
func (p *Profile) LinkSpecs() ([]linker.LinkSpec, error) {
	specs := make([]linker.LinkSpec, 0, len(p.Links))
	for _, l := range p.Links {
		trigger, err := l.Trigger.build()
		if err != nil {
			return nil, fmt.Errorf("link %s: trigger: %w", l.Relation, err)
		}
		referenced, err := l.Referenced.build()
		if err != nil {
			return nil, fmt.Errorf("link %s: referenced: %w", l.Relation, err)
		}
		spec := linker.LinkSpec{
			Relation:         l.Relation,
			ReverseRelation:  l.Reverse,
			Trigger:          trigger,
			Referenced:       referenced,
			ForwardBufferMs:  l.ForwardMs,
			BackwardBufferMs: l.BackwardMs,
			MaximumLinks:     int(l.MaxLinks),
			AnyTarget:        l.AnyTarget,
			Shared:           l.Shared,
		}
		if l.ActiveWithTalent != 0 {
			spec.IsActive = modules.WithTalent(l.ActiveWithTalent)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// Plan validates the profile and returns the module specs and normalizer
// chain it describes. The linker always runs last.
func (p *Profile) Plan() (engine.Plan, error) {
	if errs := Validate(p); len(errs) > 0 {
		return engine.Plan{}, &InvalidProfileError{Profile: p.Name, Errors: errs}
	}

	specs, err := modules.Select(p.Modules...)
	if err != nil {
		return engine.Plan{}, err
	}

	chain := make([]linker.Normalizer, 0, len(p.Normalizers)+1)
	for _, name := range p.Normalizers {
		chain = append(chain, normalizers[name]())
	}
	if len(p.Links) > 0 {
		links, err := p.LinkSpecs()
		if err != nil {
			return engine.Plan{}, err
		}
		l, err := linker.New(links...)
		if err != nil {
			return engine.Plan{}, err
		}
		chain = append(chain, l)
	}

	return engine.Plan{Specs: specs, Normalizers: chain}, nil
}

func (f FilterDecl) build() (filter.Filter, error) {
	kinds := make([]ir.Kind, 0, len(f.Kinds))
	for _, k := range f.Kinds {
		kind := ir.Kind(k)
		if !kind.Valid() {
			return filter.Filter{}, fmt.Errorf("unknown event kind %q", k)
		}
		kinds = append(kinds, kind)
	}
	out := filter.New(kinds...)
	if f.By != nil {
		a, err := f.By.build()
		if err != nil {
			return filter.Filter{}, err
		}
		out = out.By(a)
	}
	if f.To != nil {
		a, err := f.To.build()
		if err != nil {
			return filter.Filter{}, err
		}
		out = out.To(a)
	}
	if len(f.Abilities) > 0 {
		out = out.Spell(f.Abilities...)
	}
	return out, nil
}

func (a ActorDecl) build() (filter.Actor, error) {
	switch a.Keyword {
	case "player":
		return filter.SelectedPlayer, nil
	case "pet":
		return filter.SelectedPlayerPet, nil
	case "player_or_pet":
		return filter.SelectedPlayerOrPet, nil
	case "":
		return filter.ActorID(a.ID), nil
	default:
		return filter.Actor{}, fmt.Errorf("unknown actor keyword %q", a.Keyword)
	}
}
