package session

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/combatlens/internal/ir"
)

// File is the YAML layout of a session fixture.
type File struct {
	ID        string        `yaml:"id"`
	Fight     FightWindow   `yaml:"fight"`
	Combatant CombatantFile `yaml:"combatant"`
	Events    []EventFile   `yaml:"events"`
}

// FightWindow bounds the fight in log milliseconds.
type FightWindow struct {
	Start int64 `yaml:"start"`
	End   int64 `yaml:"end"`
}

// CombatantFile is the YAML layout of a Combatant.
type CombatantFile struct {
	PlayerID    int64   `yaml:"player_id"`
	Pets        []int64 `yaml:"pets,omitempty"`
	Talents     []int64 `yaml:"talents,omitempty"`
	HasteRating int64   `yaml:"haste_rating,omitempty"`
}

// EventFile is the YAML layout of one event.
type EventFile struct {
	Timestamp int64          `yaml:"ts"`
	Kind      string         `yaml:"kind"`
	Source    int64          `yaml:"source,omitempty"`
	Target    int64          `yaml:"target,omitempty"`
	Ability   int64          `yaml:"ability,omitempty"`
	Amount    int64          `yaml:"amount,omitempty"`
	Absorbed  int64          `yaml:"absorbed,omitempty"`
	Overheal  int64          `yaml:"overheal,omitempty"`
	OldStacks int64          `yaml:"old_stacks,omitempty"`
	NewStacks int64          `yaml:"new_stacks,omitempty"`
	Payload   map[string]any `yaml:"payload,omitempty"`
}

// Load reads a session fixture from path.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	sess, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sess, nil
}

// Parse decodes a session fixture. Unknown fields are rejected. Event
// attributes are not validated here; the engine skips malformed events
// with a diagnostic.
func Parse(data []byte) (*Session, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if f.ID == "" {
		return nil, fmt.Errorf("session: missing required field 'id'")
	}
	return f.toSession()
}

func (f *File) toSession() (*Session, error) {
	sess := &Session{
		ID:         f.ID,
		FightStart: f.Fight.Start,
		FightEnd:   f.Fight.End,
		Combatant: Combatant{
			PlayerID:    f.Combatant.PlayerID,
			PetIDs:      f.Combatant.Pets,
			Talents:     f.Combatant.Talents,
			HasteRating: f.Combatant.HasteRating,
		},
		Events: make([]ir.Event, 0, len(f.Events)),
	}
	for i, e := range f.Events {
		ev := ir.Event{
			Kind:      ir.Kind(e.Kind),
			Timestamp: e.Timestamp,
			SourceID:  e.Source,
			TargetID:  e.Target,
			AbilityID: e.Ability,
			Amount:    e.Amount,
			Absorbed:  e.Absorbed,
			Overheal:  e.Overheal,
			OldStacks: e.OldStacks,
			NewStacks: e.NewStacks,
		}
		if e.Payload != nil {
			v, err := ir.FromAny(e.Payload)
			if err != nil {
				return nil, fmt.Errorf("events[%d].payload: %w", i, err)
			}
			ev.Payload = v.(ir.IRObject)
		}
		sess.Events = append(sess.Events, ev)
	}
	if sess.FightEnd == 0 && len(sess.Events) > 0 {
		sess.FightEnd = sess.Events[len(sess.Events)-1].Timestamp
	}
	return sess, nil
}

// Marshal renders sess back into fixture YAML.
func Marshal(sess *Session) ([]byte, error) {
	f := File{
		ID:    sess.ID,
		Fight: FightWindow{Start: sess.FightStart, End: sess.FightEnd},
		Combatant: CombatantFile{
			PlayerID:    sess.Combatant.PlayerID,
			Pets:        sess.Combatant.PetIDs,
			Talents:     sess.Combatant.Talents,
			HasteRating: sess.Combatant.HasteRating,
		},
	}
	for _, ev := range sess.Events {
		ef := EventFile{
			Timestamp: ev.Timestamp,
			Kind:      string(ev.Kind),
			Source:    ev.SourceID,
			Target:    ev.TargetID,
			Ability:   ev.AbilityID,
			Amount:    ev.Amount,
			Absorbed:  ev.Absorbed,
			Overheal:  ev.Overheal,
			OldStacks: ev.OldStacks,
			NewStacks: ev.NewStacks,
		}
		if len(ev.Payload) > 0 {
			ef.Payload = toAny(ev.Payload).(map[string]any)
		}
		f.Events = append(f.Events, ef)
	}
	return yaml.Marshal(&f)
}

func toAny(v ir.IRValue) any {
	switch val := v.(type) {
	case ir.IRString:
		return string(val)
	case ir.IRInt:
		return int64(val)
	case ir.IRBool:
		return bool(val)
	case ir.IRArray:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = toAny(e)
		}
		return out
	case ir.IRObject:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = toAny(e)
		}
		return out
	}
	return nil
}
