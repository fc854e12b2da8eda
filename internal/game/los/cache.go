// Package los memoizes line-of-sight and distance between unit pairs.
//
// The cache subscribes to the unit directory's move notifications, so every
// position change empties it before the next query can observe a stale entry.
package los

import (
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Result is the visibility between two units.
type Result struct {
	HasLoS   bool
	Distance int
}

// Stats counts cache activity since construction.
type Stats struct {
	Hits          int
	Misses        int
	Invalidations int
	Entries       int
}

type pairKey struct{ lo, hi unit.ID }

func keyOf(a, b unit.ID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Cache is a lazily-filled map from unit pair to Result.
type Cache struct {
	board   *hexgrid.Board
	dir     *unit.Directory
	entries map[pairKey]Result
	stats   Stats
}

// New creates a Cache over board and dir and subscribes it to dir's moves.
//
// Precondition: board and dir must be non-nil.
func New(board *hexgrid.Board, dir *unit.Directory) *Cache {
	c := &Cache{
		board:   board,
		dir:     dir,
		entries: make(map[pairKey]Result),
	}
	dir.OnMove(func(unit.ID, hexgrid.Coord, hexgrid.Coord) { c.Invalidate() })
	return c
}

// Invalidate drops every memoized entry.
func (c *Cache) Invalidate() {
	if len(c.entries) > 0 {
		c.entries = make(map[pairKey]Result)
	}
	c.stats.Invalidations++
}

// Get returns the visibility between a and b, computing it on first use after
// an invalidation. Visibility is symmetric.
//
// Postcondition: err wraps unit.ErrUnitNotFound when either unit is dead.
func (c *Cache) Get(a, b unit.ID) (Result, error) {
	ua, ok := c.dir.Get(a)
	if !ok {
		return Result{}, fmt.Errorf("los: %w: %d", unit.ErrUnitNotFound, a)
	}
	ub, ok := c.dir.Get(b)
	if !ok {
		return Result{}, fmt.Errorf("los: %w: %d", unit.ErrUnitNotFound, b)
	}
	k := keyOf(a, b)
	if r, ok := c.entries[k]; ok {
		c.stats.Hits++
		return r, nil
	}
	c.stats.Misses++
	r := compute(c.board, ua.Pos, ub.Pos)
	c.entries[k] = r
	return r, nil
}

// Build eagerly fills the cache for every live pair (from, to). Dead ids are skipped.
func (c *Cache) Build(from, to []unit.ID) {
	for _, a := range from {
		for _, b := range to {
			if a == b {
				continue
			}
			_, _ = c.Get(a, b)
		}
	}
}

// Stats returns a copy of the activity counters.
func (c *Cache) Stats() Stats {
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

func compute(board *hexgrid.Board, a, b hexgrid.Coord) Result {
	return Result{HasLoS: board.Clear(a, b), Distance: hexgrid.Distance(a, b)}
}
