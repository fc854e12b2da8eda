// Package hexgrid provides the hex board, terrain walls and spatial queries used by
// movement, line of sight and target selection.
//
// Positions are offset coordinates (column, row) in the odd-q vertical layout:
// odd columns are shifted down by half a hex. Distances and lines are computed in
// cube coordinates.
package hexgrid

import (
	"fmt"
	"math"
)

// Coord is a hex position in offset coordinates.
type Coord struct {
	Col int `yaml:"col" json:"col"`
	Row int `yaml:"row" json:"row"`
}

// String returns "(col,row)".
func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.Col, c.Row) }

// cube is a hex position in cube coordinates; q + r + s == 0.
type cube struct{ q, r, s int }

func toCube(c Coord) cube {
	q := c.Col
	r := c.Row - (c.Col-(c.Col&1))/2
	return cube{q: q, r: r, s: -q - r}
}

func fromCube(h cube) Coord {
	return Coord{Col: h.q, Row: h.r + (h.q-(h.q&1))/2}
}

var cubeDirections = [6]cube{
	{1, 0, -1}, {1, -1, 0}, {0, -1, 1},
	{-1, 0, 1}, {-1, 1, 0}, {0, 1, -1},
}

// Distance returns the number of hex steps between a and b.
//
// Postcondition: Distance(a, b) == Distance(b, a) >= 0.
func Distance(a, b Coord) int {
	ac, bc := toCube(a), toCube(b)
	return max(abs(ac.q-bc.q), abs(ac.r-bc.r), abs(ac.s-bc.s))
}

// Adjacent reports whether a and b are neighbours.
func Adjacent(a, b Coord) bool { return Distance(a, b) == 1 }

// Neighbors returns the six coordinates adjacent to c (some may be off-board).
func Neighbors(c Coord) [6]Coord {
	h := toCube(c)
	var out [6]Coord
	for i, d := range cubeDirections {
		out[i] = fromCube(cube{h.q + d.q, h.r + d.r, h.s + d.s})
	}
	return out
}

// Line returns the hexes strictly between a and b on the straight hex line.
// Endpoints are nudged to break ties on hex edges consistently.
//
// Postcondition: len(result) == max(0, Distance(a, b)-1).
func Line(a, b Coord) []Coord {
	n := Distance(a, b)
	if n <= 1 {
		return nil
	}
	ac, bc := toCube(a), toCube(b)
	aq, ar, as := float64(ac.q)+1e-6, float64(ac.r)+1e-6, float64(ac.s)-2e-6
	bq, br, bs := float64(bc.q)+1e-6, float64(bc.r)+1e-6, float64(bc.s)-2e-6

	out := make([]Coord, 0, n-1)
	for i := 1; i < n; i++ {
		t := float64(i) / float64(n)
		out = append(out, fromCube(cubeRound(lerp(aq, bq, t), lerp(ar, br, t), lerp(as, bs, t))))
	}
	return out
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func cubeRound(q, r, s float64) cube {
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	default:
		rs = -rq - rr
	}
	return cube{q: int(rq), r: int(rr), s: int(rs)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
