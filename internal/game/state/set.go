package state

import (
	"maps"
	"slices"

	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Set is a set of unit ids used for per-turn tracking.
type Set map[unit.ID]struct{}

// Add inserts id.
func (s Set) Add(id unit.ID) { s[id] = struct{}{} }

// Has reports membership.
func (s Set) Has(id unit.ID) bool {
	_, ok := s[id]
	return ok
}

// Delete removes id.
func (s Set) Delete(id unit.ID) { delete(s, id) }

// Reset removes every member.
func (s Set) Reset() { clear(s) }

// Sorted returns the members in ascending order.
func (s Set) Sorted() []unit.ID { return slices.Sorted(maps.Keys(s)) }
