package ir

import "fmt"

// Kind tags the variant of an Event.
type Kind string

const (
	KindCast              Kind = "cast"
	KindDamage            Kind = "damage"
	KindHeal              Kind = "heal"
	KindApplyBuff         Kind = "applybuff"
	KindApplyBuffStack    Kind = "applybuffstack"
	KindChangeBuffStack   Kind = "changebuffstack"
	KindRefreshBuff       Kind = "refreshbuff"
	KindRemoveBuff        Kind = "removebuff"
	KindApplyDebuff       Kind = "applydebuff"
	KindChangeDebuffStack Kind = "changedebuffstack"
	KindRemoveDebuff      Kind = "removedebuff"

	// Derived kinds. These never appear in a raw log; modules and
	// normalizers fabricate them.
	KindChangeStats Kind = "changestats"
	KindChangeHaste Kind = "changehaste"
)

var knownKinds = map[Kind]struct{}{
	KindCast: {}, KindDamage: {}, KindHeal: {},
	KindApplyBuff: {}, KindApplyBuffStack: {}, KindChangeBuffStack: {},
	KindRefreshBuff: {}, KindRemoveBuff: {},
	KindApplyDebuff: {}, KindChangeDebuffStack: {}, KindRemoveDebuff: {},
	KindChangeStats: {}, KindChangeHaste: {},
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := knownKinds[k]
	return ok
}

// Kinds returns every known kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCast, KindDamage, KindHeal,
		KindApplyBuff, KindApplyBuffStack, KindChangeBuffStack,
		KindRefreshBuff, KindRemoveBuff,
		KindApplyDebuff, KindChangeDebuffStack, KindRemoveDebuff,
		KindChangeStats, KindChangeHaste,
	}
}

// Event is one timestamped record of a combat session.
//
// The native attributes are fixed once the event is placed in a Sequence.
// The relation table is the only part that grows afterwards, and only by
// appending.
type Event struct {
	Kind      Kind
	Timestamp int64 // milliseconds
	SourceID  int64
	TargetID  int64
	AbilityID int64

	Amount    int64
	Absorbed  int64
	Overheal  int64
	OldStacks int64
	NewStacks int64

	// Payload carries derived data (stat deltas, haste changes) for
	// fabricated events.
	Payload IRObject

	// Fabricated marks synthetic events; Trigger is the event that caused
	// the fabrication, nil when fabricated before the pass.
	Fabricated bool
	Trigger    *Event

	// Position is the index in the augmented sequence. Sub orders
	// fabricated events anchored at the same position; native events use 0.
	Position int64
	Sub      int64

	relations []RelationEdge
}

// RelationEdge is one entry of an event's relation table.
type RelationEdge struct {
	Name  string
	Other *Event
}

// Key is the total dispatch order of an event.
type Key struct {
	Timestamp int64
	Position  int64
	Sub       int64
}

// Less orders keys by timestamp, then position, then sub.
func (k Key) Less(o Key) bool {
	if k.Timestamp != o.Timestamp {
		return k.Timestamp < o.Timestamp
	}
	if k.Position != o.Position {
		return k.Position < o.Position
	}
	return k.Sub < o.Sub
}

// Key returns the dispatch key of e.
func (e *Event) Key() Key {
	return Key{Timestamp: e.Timestamp, Position: e.Position, Sub: e.Sub}
}

// AddRelation appends an edge from e to other under name.
func (e *Event) AddRelation(name string, other *Event) {
	e.relations = append(e.relations, RelationEdge{Name: name, Other: other})
}

// Relations returns a copy of e's relation table in insertion order.
func (e *Event) Relations() []RelationEdge {
	out := make([]RelationEdge, len(e.relations))
	copy(out, e.relations)
	return out
}

// RelatedEvents returns the events linked to e under name, in the order
// the edges were added. The result is empty, never nil, when there are none.
func RelatedEvents(e *Event, name string) []*Event {
	out := []*Event{}
	if e == nil {
		return out
	}
	for _, r := range e.relations {
		if r.Name == name {
			out = append(out, r.Other)
		}
	}
	return out
}

// HasRelated reports whether e has at least one edge under name.
func HasRelated(e *Event, name string) bool {
	if e == nil {
		return false
	}
	for _, r := range e.relations {
		if r.Name == name {
			return true
		}
	}
	return false
}

// ToIR renders the native attributes of e. Relations and ordering fields
// are not included.
func (e *Event) ToIR() IRObject {
	obj := IRObject{
		"kind":       IRString(e.Kind),
		"ts":         IRInt(e.Timestamp),
		"source":     IRInt(e.SourceID),
		"target":     IRInt(e.TargetID),
		"ability":    IRInt(e.AbilityID),
		"amount":     IRInt(e.Amount),
		"absorbed":   IRInt(e.Absorbed),
		"overheal":   IRInt(e.Overheal),
		"old_stacks": IRInt(e.OldStacks),
		"new_stacks": IRInt(e.NewStacks),
	}
	if e.Fabricated {
		obj["fabricated"] = IRBool(true)
	}
	if len(e.Payload) > 0 {
		obj["payload"] = e.Payload.Clone()
	}
	return obj
}

// String formats e for logs and trace output.
func (e *Event) String() string {
	tag := ""
	if e.Fabricated {
		tag = "*"
	}
	return fmt.Sprintf("%s%s@%d#%d.%d ability=%d %d->%d",
		tag, e.Kind, e.Timestamp, e.Position, e.Sub, e.AbilityID, e.SourceID, e.TargetID)
}

// Fabricate builds a synthetic event from tmpl at ts. The result has an
// empty relation table and its own copy of the payload; ordering fields
// are left for the caller to assign.
func Fabricate(tmpl Event, ts int64, trigger *Event) *Event {
	ev := tmpl
	ev.relations = nil
	ev.Payload = tmpl.Payload.Clone()
	ev.Timestamp = ts
	ev.Trigger = trigger
	ev.Fabricated = true
	ev.Position = 0
	ev.Sub = 0
	return &ev
}
