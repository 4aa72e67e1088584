package ir

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// ErrSpliceOutOfOrder is returned when a spliced event would break the
// timestamp order of a Sequence.
var ErrSpliceOutOfOrder = errors.New("splice would break timestamp order")

// Sequence is the run-owned, time-ordered list of events. Normalizers may
// splice fabricated events into it before the dispatch pass; afterwards it
// is read-only.
type Sequence struct {
	events []*Event
}

// NewSequence copies events into run-owned records, stable-sorts them by
// timestamp and numbers their positions. Ties keep input order.
func NewSequence(events []Event) *Sequence {
	owned := make([]*Event, len(events))
	for i := range events {
		ev := events[i]
		ev.relations = nil
		ev.Sub = 0
		ev.Payload = ev.Payload.Clone()
		owned[i] = &ev
	}
	slices.SortStableFunc(owned, func(a, b *Event) int {
		switch {
		case a.Timestamp < b.Timestamp:
			return -1
		case a.Timestamp > b.Timestamp:
			return 1
		}
		return 0
	})
	s := &Sequence{events: owned}
	s.renumber(0)
	return s
}

// Len returns the number of events.
func (s *Sequence) Len() int { return len(s.events) }

// At returns the event at position i.
func (s *Sequence) At(i int) *Event { return s.events[i] }

// Events returns a copy of the event slice; the events themselves are shared.
func (s *Sequence) Events() []*Event {
	out := make([]*Event, len(s.events))
	copy(out, s.events)
	return out
}

// SearchFrom returns the first position whose timestamp is >= ts.
func (s *Sequence) SearchFrom(ts int64) int {
	return sort.Search(len(s.events), func(i int) bool {
		return s.events[i].Timestamp >= ts
	})
}

// Splice inserts ev before position index, marks it fabricated and
// renumbers the tail. ev.Timestamp must lie between its neighbours.
func (s *Sequence) Splice(index int, ev Event) (*Event, error) {
	if index < 0 || index > len(s.events) {
		return nil, fmt.Errorf("splice index %d out of range [0,%d]", index, len(s.events))
	}
	if index > 0 && s.events[index-1].Timestamp > ev.Timestamp {
		return nil, fmt.Errorf("%w: ts=%d after ts=%d", ErrSpliceOutOfOrder, ev.Timestamp, s.events[index-1].Timestamp)
	}
	if index < len(s.events) && s.events[index].Timestamp < ev.Timestamp {
		return nil, fmt.Errorf("%w: ts=%d before ts=%d", ErrSpliceOutOfOrder, ev.Timestamp, s.events[index].Timestamp)
	}

	ev.relations = nil
	ev.Fabricated = true
	ev.Sub = 0
	ev.Payload = ev.Payload.Clone()
	placed := &ev

	s.events = slices.Insert(s.events, index, placed)
	s.renumber(index)
	return placed, nil
}

func (s *Sequence) renumber(from int) {
	for i := from; i < len(s.events); i++ {
		s.events[i].Position = int64(i)
	}
}
