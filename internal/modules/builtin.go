package modules

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/combatlens/internal/module"
)

// ErrUnknownModule is returned by Select for a name with no built-in spec.
var ErrUnknownModule = errors.New("unknown module")

// Builtin returns every built-in module spec.
func Builtin() []module.Spec {
	return []module.Spec{
		AbilityTrackerSpec(),
		StatTrackerSpec(),
		HasteSpec(),
		HasteTimelineSpec(),
		WildGrowthSpec(),
		LeapingFlamesSpec(),
	}
}

// Names returns the built-in module names in declaration order.
func Names() []string {
	specs := Builtin()
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// Select returns the module specs for names plus every module they depend on,
// in built-in declaration order.
func Select(names ...string) ([]module.Spec, error) {
	byName := make(map[string]module.Spec)
	for _, s := range Builtin() {
		byName[s.Name] = s
	}

	want := make(map[string]bool)
	var visit func(name string) error
	visit = func(name string) error {
		if want[name] {
			return nil
		}
		spec, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w %q (known: %v)", ErrUnknownModule, name, Names())
		}
		want[name] = true
		deps := make([]string, 0, len(spec.Dependencies))
		for _, target := range spec.Dependencies {
			deps = append(deps, target)
		}
		slices.Sort(deps)
		for _, d := range deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		return nil
	}
	for _, n := range names {
		if err := visit(n); err != nil {
			return nil, err
		}
	}

	var out []module.Spec
	for _, s := range Builtin() {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
