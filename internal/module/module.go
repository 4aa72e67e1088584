// Package module resolves analysis modules into a construction order and
// builds one shared instance per module name.
//
// A module is declared as a Spec: a name, a map of dependency aliases to
// module names, and a constructor. Build constructs every module exactly
// once, strictly after the modules it depends on, and hands each
// constructor its resolved dependencies through Deps. Subscriptions and
// fabrication go through the Context the engine supplies.
package module

import (
	"log/slog"

	"github.com/roach88/combatlens/internal/catalog"
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/session"
)

// Handler receives one dispatched event. A non-nil error aborts the run.
type Handler func(ev *ir.Event) error

// Bounds is the fight window of the run.
type Bounds struct {
	Start int64
	End   int64
}

// Context is the per-module view of a run, valid for the lifetime of the
// run. Subscribe is only meaningful during construction.
type Context interface {
	// Name returns the module name this context was issued to.
	Name() string

	// Subscribe registers h for events matching f. Subscriptions fire in
	// module construction order, then registration order.
	Subscribe(f filter.Filter, h Handler)

	// Fabricate schedules tmpl at the trigger's timestamp. trigger may be
	// nil during construction, in which case the event is placed at the
	// fight start ahead of every native event.
	Fabricate(trigger *ir.Event, tmpl ir.Event) (*ir.Event, error)

	// FabricateAt schedules tmpl at ts, which must not precede the event
	// currently being dispatched.
	FabricateAt(ts int64, trigger *ir.Event, tmpl ir.Event) (*ir.Event, error)

	Combatant() *session.Combatant
	Catalog() *catalog.Catalog
	Logger() *slog.Logger
	Bounds() Bounds
}

// Spec declares a module.
type Spec struct {
	// Name is the registry key, unique within a run.
	Name string

	// Dependencies maps the alias the constructor asks for to the name of
	// the module that satisfies it.
	Dependencies map[string]string

	// New constructs the module. It must return a non-nil instance.
	New func(ctx Context, deps *Deps) (any, error)
}

// Finisher is implemented by modules that need a hook after the pass.
type Finisher interface {
	OnRunEnd() error
}

// Snapshotter is implemented by modules that expose their final state.
// Snapshots feed the run digest, so they must be deterministic.
type Snapshotter interface {
	Snapshot() ir.IRObject
}
