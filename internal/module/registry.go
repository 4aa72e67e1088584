package module

import (
	"errors"
	"fmt"

	"github.com/roach88/combatlens/internal/ir"
)

// Deps resolves a module's declared dependency aliases to the instances
// built before it.
type Deps struct {
	owner    string
	aliases  map[string]string
	registry *Registry
}

// Get returns the instance behind alias. Asking for an alias the module
// did not declare fails with UNKNOWN_DEPENDENCY.
func (d *Deps) Get(alias string) (any, error) {
	target, ok := d.aliases[alias]
	if !ok {
		return nil, &GraphError{
			Code:    ErrCodeUnknownDependency,
			Message: fmt.Sprintf("module %q requested undeclared dependency alias %q", d.owner, alias),
			Module:  d.owner,
		}
	}
	inst, ok := d.registry.instances[target]
	if !ok {
		// Only reachable when a module resolves itself during its own
		// construction.
		return nil, &GraphError{
			Code:    ErrCodeCyclicDependency,
			Message: fmt.Sprintf("module %q requested %q before it was constructed", d.owner, target),
			Module:  d.owner,
			Path:    []string{d.owner, target},
		}
	}
	return inst, nil
}

// Dep returns the dependency behind alias as T.
func Dep[T any](d *Deps, alias string) (T, error) {
	var zero T
	inst, err := d.Get(alias)
	if err != nil {
		return zero, err
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("module %q: dependency %q is %T, not %T", d.owner, alias, inst, zero)
	}
	return typed, nil
}

// Registry holds the instances of one run keyed by module name.
type Registry struct {
	names     []string
	instances map[string]any
}

// Names returns module names in construction order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of constructed modules.
func (r *Registry) Len() int { return len(r.names) }

// Get returns the instance registered under name.
func (r *Registry) Get(name string) (any, bool) {
	inst, ok := r.instances[name]
	return inst, ok
}

// Lookup returns the instance registered under name as T.
func Lookup[T any](r *Registry, name string) (T, error) {
	var zero T
	inst, ok := r.instances[name]
	if !ok {
		return zero, fmt.Errorf("module %q not in registry", name)
	}
	typed, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("module %q is %T, not %T", name, inst, zero)
	}
	return typed, nil
}

// Snapshot collects the state of every Snapshotter keyed by module name.
func (r *Registry) Snapshot() ir.IRObject {
	out := ir.IRObject{}
	for _, name := range r.names {
		if s, ok := r.instances[name].(Snapshotter); ok {
			out[name] = s.Snapshot()
		}
	}
	return out
}

// Build orders specs and constructs each module once, in that order.
// contextFor supplies the Context handed to each constructor.
func Build(specs []Spec, contextFor func(name string) Context) (*Registry, error) {
	order, err := Order(specs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]Spec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	reg := &Registry{
		names:     make([]string, 0, len(order)),
		instances: make(map[string]any, len(order)),
	}
	for _, name := range order {
		spec := byName[name]
		if spec.New == nil {
			return nil, &GraphError{
				Code:    ErrCodeConstructionFailed,
				Message: fmt.Sprintf("module %q has no constructor", name),
				Module:  name,
			}
		}
		deps := &Deps{owner: name, aliases: spec.Dependencies, registry: reg}
		inst, err := spec.New(contextFor(name), deps)
		if err != nil {
			var ge *GraphError
			if errors.As(err, &ge) {
				return nil, err
			}
			return nil, &GraphError{
				Code:    ErrCodeConstructionFailed,
				Message: fmt.Sprintf("constructing module %q", name),
				Module:  name,
				Err:     err,
			}
		}
		if inst == nil {
			return nil, &GraphError{
				Code:    ErrCodeConstructionFailed,
				Message: fmt.Sprintf("module %q constructor returned nil", name),
				Module:  name,
			}
		}
		reg.names = append(reg.names, name)
		reg.instances[name] = inst
	}
	return reg, nil
}
