package engine

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/combatlens/internal/catalog"
	"github.com/roach88/combatlens/internal/filter"
	"github.com/roach88/combatlens/internal/ir"
	"github.com/roach88/combatlens/internal/module"
	"github.com/roach88/combatlens/internal/session"
)

type phase int

const (
	phaseConstruct phase = iota
	phasePass
	phaseFinished
)

func (p phase) String() string {
	switch p {
	case phaseConstruct:
		return "construct"
	case phasePass:
		return "pass"
	default:
		return "finished"
	}
}

type subscription struct {
	module  string
	rank    int
	filter  filter.Filter
	handler module.Handler
}

// run is the mutable state of one analysis. It is only touched from the
// goroutine that called Engine.Run.
type run struct {
	id        string
	combatant *session.Combatant
	bounds    module.Bounds
	catalog   *catalog.Catalog
	logger    *slog.Logger
	observer  func(*ir.Event)

	seq     *ir.Sequence
	pending *pendingQueue
	clock   subClock
	quota   *QuotaEnforcer

	// subs is indexed by kind; each list is in construction order, then
	// registration order.
	subs map[ir.Kind][]*subscription

	// constructed counts the contexts handed out; it ranks subscriptions.
	constructed int

	phase   phase
	current *ir.Event
	fatal   error

	stats Stats
}

func newRun(id string, sess *session.Session, seq *ir.Sequence, e *Engine, logger *slog.Logger) *run {
	return &run{
		id:        id,
		combatant: &sess.Combatant,
		bounds:    module.Bounds{Start: sess.FightStart, End: sess.FightEnd},
		catalog:   e.catalog,
		logger:    logger,
		observer:  e.observer,
		seq:       seq,
		pending:   newPendingQueue(),
		quota:     NewQuotaEnforcer(e.maxFabrications),
		subs:      make(map[ir.Kind][]*subscription),
	}
}

func (r *run) contextFor(name string) module.Context {
	rank := r.constructed
	r.constructed++
	return &runContext{r: r, name: name, rank: rank, logger: r.logger.With("module", name)}
}

func (r *run) fail(err error) error {
	if r.fatal == nil {
		r.fatal = err
	}
	return err
}

func (r *run) subscribe(name string, rank int, f filter.Filter, h module.Handler) {
	if r.phase != phaseConstruct {
		r.fail(&RuntimeError{
			Code:     ErrCodeLateSubscription,
			Message:  fmt.Sprintf("subscribe called during %s phase", r.phase),
			Module:   name,
			Position: -1,
		})
		return
	}
	sub := &subscription{module: name, rank: rank, filter: f, handler: h}
	for _, k := range f.Kinds() {
		list := r.subs[k]
		// A dependency may subscribe while its dependent is still being
		// constructed; it still goes ahead of every later-ranked module.
		i := len(list)
		for i > 0 && list[i-1].rank > rank {
			i--
		}
		r.subs[k] = slices.Insert(list, i, sub)
	}
}

// startTimestamp is where construction-time fabrication without a trigger
// lands.
func (r *run) startTimestamp() int64 {
	ts := r.bounds.Start
	if r.seq.Len() > 0 {
		ts = min(ts, r.seq.At(0).Timestamp)
	}
	return ts
}

func (r *run) fabricate(name string, ts int64, trigger *ir.Event, tmpl ir.Event) (*ir.Event, error) {
	position, current := int64(-1), int64(0)
	if r.current != nil {
		position, current = r.current.Position, r.current.Timestamp
	}
	outOfOrder := func(msg string) error {
		return r.fail(&RuntimeError{
			Code:      ErrCodeOutOfOrderFabrication,
			Message:   msg,
			Module:    name,
			Position:  position,
			Timestamp: current,
		})
	}

	switch r.phase {
	case phaseFinished:
		return nil, outOfOrder(fmt.Sprintf("fabrication at ts=%d after the pass finished", ts))
	case phasePass:
		if ts < current {
			return nil, outOfOrder(fmt.Sprintf("fabrication at ts=%d before current event ts=%d", ts, current))
		}
	}

	if err := r.quota.Check(r.id); err != nil {
		return nil, r.fail(&RuntimeError{
			Code:      ErrCodeQuotaExceeded,
			Message:   "too many fabricated events",
			Module:    name,
			Position:  position,
			Timestamp: current,
			Err:       err,
		})
	}

	ev := ir.Fabricate(tmpl, ts, trigger)
	if err := ir.Validate(-1, ev); err != nil {
		return nil, r.fail(&RuntimeError{
			Code:      ErrCodeInvalidFabrication,
			Message:   "fabricated event is malformed",
			Module:    name,
			Position:  position,
			Timestamp: current,
			Err:       err,
		})
	}
	ev.Position = position
	ev.Sub = r.clock.next()
	r.pending.Push(ev)
	r.stats.Fabricated++
	return ev, nil
}

// pass dispatches the merge of the sequence and the pending heap.
func (r *run) pass() error {
	r.phase = phasePass
	i := 0
	for {
		native := i < r.seq.Len()
		pend, hasPending := r.pending.Peek()

		var next *ir.Event
		switch {
		case native && hasPending:
			if pend.Key().Less(r.seq.At(i).Key()) {
				next = r.pending.Pop()
			} else {
				next = r.seq.At(i)
				i++
			}
		case native:
			next = r.seq.At(i)
			i++
		case hasPending:
			next = r.pending.Pop()
		default:
			r.phase = phaseFinished
			r.current = nil
			return nil
		}

		if err := r.dispatch(next); err != nil {
			r.phase = phaseFinished
			return err
		}
	}
}

func (r *run) dispatch(ev *ir.Event) error {
	r.current = ev
	r.stats.Dispatched++
	if r.observer != nil {
		r.observer(ev)
	}

	for _, s := range r.subs[ev.Kind] {
		if !s.filter.Matches(ev, r.combatant) {
			continue
		}
		r.stats.HandlerCalls++
		if err := s.handler(ev); err != nil {
			if r.fatal != nil {
				return r.fatal
			}
			return &RuntimeError{
				Code:      ErrCodeHandlerFailed,
				Message:   "subscription handler failed",
				Module:    s.module,
				Position:  ev.Position,
				Timestamp: ev.Timestamp,
				Err:       err,
			}
		}
		if r.fatal != nil {
			return r.fatal
		}
	}
	return nil
}

// finish calls OnRunEnd in construction order.
func (r *run) finish(reg *module.Registry) error {
	r.phase = phaseFinished
	for _, name := range reg.Names() {
		inst, _ := reg.Get(name)
		f, ok := inst.(module.Finisher)
		if !ok {
			continue
		}
		if err := f.OnRunEnd(); err != nil {
			if r.fatal != nil {
				return r.fatal
			}
			return &RuntimeError{
				Code:     ErrCodeHandlerFailed,
				Message:  "run end hook failed",
				Module:   name,
				Position: -1,
				Err:      err,
			}
		}
		if r.fatal != nil {
			return r.fatal
		}
	}
	return nil
}

// runContext is the module.Context handed to one module.
type runContext struct {
	r      *run
	name   string
	rank   int
	logger *slog.Logger
}

func (c *runContext) Name() string { return c.name }

func (c *runContext) Subscribe(f filter.Filter, h module.Handler) {
	c.r.subscribe(c.name, c.rank, f, h)
}

func (c *runContext) Fabricate(trigger *ir.Event, tmpl ir.Event) (*ir.Event, error) {
	var ts int64
	switch {
	case trigger != nil:
		ts = trigger.Timestamp
	case c.r.current != nil:
		ts = c.r.current.Timestamp
	default:
		ts = c.r.startTimestamp()
	}
	return c.r.fabricate(c.name, ts, trigger, tmpl)
}

func (c *runContext) FabricateAt(ts int64, trigger *ir.Event, tmpl ir.Event) (*ir.Event, error) {
	return c.r.fabricate(c.name, ts, trigger, tmpl)
}

func (c *runContext) Combatant() *session.Combatant { return c.r.combatant }
func (c *runContext) Catalog() *catalog.Catalog     { return c.r.catalog }
func (c *runContext) Logger() *slog.Logger          { return c.logger }
func (c *runContext) Bounds() module.Bounds         { return c.r.bounds }
