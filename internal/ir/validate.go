package ir

import (
	"errors"
	"fmt"
)

// MalformedEventError reports an event missing attributes its kind
// requires. The engine skips such events and records a diagnostic.
type MalformedEventError struct {
	Index     int // position in the caller's input
	Kind      Kind
	AbilityID int64
	Timestamp int64
	Reason    string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed %s event at index %d (ts=%d, ability=%d): %s",
		e.Kind, e.Index, e.Timestamp, e.AbilityID, e.Reason)
}

// IsMalformedEvent reports whether err is or wraps a MalformedEventError.
func IsMalformedEvent(err error) bool {
	var me *MalformedEventError
	return errors.As(err, &me)
}

// Validate checks the attributes required by ev.Kind. index is recorded
// in the returned error only.
func Validate(index int, ev *Event) error {
	reason := validate(ev)
	if reason == "" {
		return nil
	}
	return &MalformedEventError{
		Index:     index,
		Kind:      ev.Kind,
		AbilityID: ev.AbilityID,
		Timestamp: ev.Timestamp,
		Reason:    reason,
	}
}

func validate(ev *Event) string {
	if !ev.Kind.Valid() {
		return fmt.Sprintf("unknown kind %q", ev.Kind)
	}
	if ev.Timestamp < 0 {
		return "negative timestamp"
	}
	switch ev.Kind {
	case KindCast, KindDamage, KindHeal,
		KindApplyBuff, KindApplyBuffStack, KindChangeBuffStack, KindRefreshBuff, KindRemoveBuff,
		KindApplyDebuff, KindChangeDebuffStack, KindRemoveDebuff:
		if ev.AbilityID <= 0 {
			return "missing ability id"
		}
	}
	switch ev.Kind {
	case KindDamage, KindHeal:
		if ev.Amount < 0 || ev.Absorbed < 0 || ev.Overheal < 0 {
			return "negative amount"
		}
	case KindApplyBuffStack, KindChangeBuffStack, KindChangeDebuffStack:
		if ev.OldStacks < 0 || ev.NewStacks < 0 {
			return "negative stack count"
		}
	case KindChangeStats, KindChangeHaste:
		if ev.Payload == nil {
			return "missing payload"
		}
	}
	return ""
}
