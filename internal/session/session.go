// Package session holds the per-recording context an analysis runs against:
// the selected combatant, the fight window and the raw event list.
package session

import (
	"slices"

	"github.com/roach88/combatlens/internal/ir"
)

// Combatant is the selected actor whose log is being analysed.
type Combatant struct {
	PlayerID    int64
	PetIDs      []int64
	Talents     []int64
	HasteRating int64
}

// HasTalent reports whether the combatant has learned the talent id.
// A nil combatant has no talents.
func (c *Combatant) HasTalent(id int64) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Talents, id)
}

// IsPlayer reports whether id is the selected player.
func (c *Combatant) IsPlayer(id int64) bool {
	return c != nil && c.PlayerID != 0 && c.PlayerID == id
}

// IsPet reports whether id is one of the selected player's pets.
func (c *Combatant) IsPet(id int64) bool {
	return c != nil && slices.Contains(c.PetIDs, id)
}

// Session is one recorded fight.
type Session struct {
	ID         string
	FightStart int64
	FightEnd   int64
	Combatant  Combatant
	Events     []ir.Event
}

// Duration returns the fight length in milliseconds, never negative.
func (s *Session) Duration() int64 {
	return max(s.FightEnd-s.FightStart, 0)
}
