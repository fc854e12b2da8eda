package hexgrid

import (
	"cmp"
	"fmt"
	"slices"
)

// Direction is one of the four movement directions exposed to callers.
type Direction int

const (
	North Direction = iota
	South
	East
	West
)

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	default:
		return "unknown"
	}
}

// Step returns the coordinate one hex from c in direction d. In the odd-q layout
// (col±1, row) is always a neighbour, so every step is a single hex.
func Step(c Coord, d Direction) Coord {
	switch d {
	case North:
		return Coord{Col: c.Col, Row: c.Row - 1}
	case South:
		return Coord{Col: c.Col, Row: c.Row + 1}
	case East:
		return Coord{Col: c.Col + 1, Row: c.Row}
	case West:
		return Coord{Col: c.Col - 1, Row: c.Row}
	default:
		panic(fmt.Sprintf("hexgrid: Step precondition violated: unknown direction %d", d))
	}
}

// Board is the immutable battlefield: its extent and the wall hexes that block
// both movement and line of sight.
type Board struct {
	cols, rows int
	walls      map[Coord]struct{}
}

// NewBoard builds a board of cols x rows with the given walls.
//
// Precondition: cols > 0, rows > 0.
// Postcondition: returns an error if any wall lies off the board.
func NewBoard(cols, rows int, walls []Coord) (*Board, error) {
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("hexgrid: board dimensions must be positive, got %dx%d", cols, rows)
	}
	b := &Board{cols: cols, rows: rows, walls: make(map[Coord]struct{}, len(walls))}
	for _, w := range walls {
		if !b.InBounds(w) {
			return nil, fmt.Errorf("hexgrid: wall %s lies outside %dx%d board", w, cols, rows)
		}
		b.walls[w] = struct{}{}
	}
	return b, nil
}

// Cols returns the board width.
func (b *Board) Cols() int { return b.cols }

// Rows returns the board height.
func (b *Board) Rows() int { return b.rows }

// InBounds reports whether c lies on the board.
func (b *Board) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < b.cols && c.Row >= 0 && c.Row < b.rows
}

// IsWall reports whether c is a wall hex.
func (b *Board) IsWall(c Coord) bool {
	_, ok := b.walls[c]
	return ok
}

// Walls returns the wall hexes ordered by column, then row.
func (b *Board) Walls() []Coord {
	out := make([]Coord, 0, len(b.walls))
	for w := range b.walls {
		out = append(out, w)
	}
	slices.SortFunc(out, func(x, y Coord) int {
		if c := cmp.Compare(x.Col, y.Col); c != 0 {
			return c
		}
		return cmp.Compare(x.Row, y.Row)
	})
	return out
}

// Open reports whether c is on the board and not a wall.
func (b *Board) Open(c Coord) bool { return b.InBounds(c) && !b.IsWall(c) }

// Clear reports whether no wall lies strictly between a and b.
func (b *Board) Clear(a, c Coord) bool {
	for _, h := range Line(a, c) {
		if b.IsWall(h) {
			return false
		}
	}
	return true
}

// Distances runs a breadth-first search from start over open hexes for which
// blocked returns false, up to maxSteps. start itself is always included at 0.
//
// Postcondition: every key k satisfies result[k] <= maxSteps.
func (b *Board) Distances(start Coord, maxSteps int, blocked func(Coord) bool) map[Coord]int {
	dist := map[Coord]int{start: 0}
	frontier := []Coord{start}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if dist[cur] == maxSteps {
			continue
		}
		for _, n := range Neighbors(cur) {
			if _, seen := dist[n]; seen || !b.Open(n) || (blocked != nil && blocked(n)) {
				continue
			}
			dist[n] = dist[cur] + 1
			frontier = append(frontier, n)
		}
	}
	return dist
}
