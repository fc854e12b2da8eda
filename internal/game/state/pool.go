package state

import (
	"slices"

	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Pool is an ordered set of unit ids eligible to act. The head is the unit
// whose activation is in progress or next.
type Pool struct {
	ids []unit.ID
}

// NewPool returns a pool holding ids in order, dropping repeats.
func NewPool(ids ...unit.ID) Pool {
	p := Pool{ids: make([]unit.ID, 0, len(ids))}
	for _, id := range ids {
		if !p.Contains(id) {
			p.ids = append(p.ids, id)
		}
	}
	return p
}

// Head returns the first id.
//
// Postcondition: ok is false iff the pool is empty.
func (p *Pool) Head() (id unit.ID, ok bool) {
	if len(p.ids) == 0 {
		return 0, false
	}
	return p.ids[0], true
}

// Remove deletes id and reports whether it was present.
func (p *Pool) Remove(id unit.ID) bool {
	i := slices.Index(p.ids, id)
	if i < 0 {
		return false
	}
	p.ids = slices.Delete(p.ids, i, i+1)
	return true
}

// Retain keeps only the ids for which keep returns true, preserving order,
// and returns how many were dropped.
func (p *Pool) Retain(keep func(unit.ID) bool) int {
	before := len(p.ids)
	p.ids = slices.DeleteFunc(p.ids, func(id unit.ID) bool { return !keep(id) })
	return before - len(p.ids)
}

// Clear empties the pool.
func (p *Pool) Clear() { p.ids = p.ids[:0] }

// Contains reports membership.
func (p *Pool) Contains(id unit.ID) bool { return slices.Contains(p.ids, id) }

// Len returns the number of ids.
func (p *Pool) Len() int { return len(p.ids) }

// Empty reports whether Len is zero.
func (p *Pool) Empty() bool { return len(p.ids) == 0 }

// IDs returns a copy of the ids in order.
func (p *Pool) IDs() []unit.ID { return slices.Clone(p.ids) }
