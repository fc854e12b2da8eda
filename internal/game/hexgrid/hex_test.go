package hexgrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
)

func coordGen() *rapid.Generator[hexgrid.Coord] {
	return rapid.Custom(func(t *rapid.T) hexgrid.Coord {
		return hexgrid.Coord{
			Col: rapid.IntRange(0, 30).Draw(t, "col"),
			Row: rapid.IntRange(0, 30).Draw(t, "row"),
		}
	})
}

func TestDistance_KnownValues(t *testing.T) {
	o := hexgrid.Coord{}
	assert.Equal(t, 0, hexgrid.Distance(o, o))
	assert.Equal(t, 1, hexgrid.Distance(o, hexgrid.Coord{Col: 1, Row: 0}))
	assert.Equal(t, 1, hexgrid.Distance(o, hexgrid.Coord{Col: 0, Row: 1}))
	assert.Equal(t, 5, hexgrid.Distance(o, hexgrid.Coord{Col: 5, Row: 0}))
	assert.Equal(t, 8, hexgrid.Distance(o, hexgrid.Coord{Col: 5, Row: 5}))
}

func TestNeighbors_AllAtDistanceOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := coordGen().Draw(rt, "c")
		seen := map[hexgrid.Coord]bool{}
		for _, n := range hexgrid.Neighbors(c) {
			assert.Equal(rt, 1, hexgrid.Distance(c, n))
			seen[n] = true
		}
		assert.Len(rt, seen, 6)
	})
}

func TestDistance_Symmetric_Triangle(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a, b, c := coordGen().Draw(rt, "a"), coordGen().Draw(rt, "b"), coordGen().Draw(rt, "c")
		assert.Equal(rt, hexgrid.Distance(a, b), hexgrid.Distance(b, a))
		assert.LessOrEqual(rt, hexgrid.Distance(a, c), hexgrid.Distance(a, b)+hexgrid.Distance(b, c))
	})
}

func TestStep_IsAdjacent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := coordGen().Draw(rt, "c")
		d := hexgrid.Direction(rapid.IntRange(0, 3).Draw(rt, "dir"))
		assert.True(rt, hexgrid.Adjacent(c, hexgrid.Step(c, d)))
	})
}

func TestLine_LengthAndContinuity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a, b := coordGen().Draw(rt, "a"), coordGen().Draw(rt, "b")
		line := hexgrid.Line(a, b)
		n := hexgrid.Distance(a, b)
		assert.Len(rt, line, max(0, n-1))
		prev := a
		for _, h := range line {
			assert.True(rt, hexgrid.Adjacent(prev, h), "line must be contiguous")
			prev = h
		}
		if n > 0 {
			assert.True(rt, hexgrid.Adjacent(prev, b))
		}
	})
}

func TestBoard_WallsBlockClear(t *testing.T) {
	b, err := hexgrid.NewBoard(10, 10, []hexgrid.Coord{{Col: 0, Row: 2}})
	require.NoError(t, err)
	assert.False(t, b.Clear(hexgrid.Coord{Col: 0, Row: 0}, hexgrid.Coord{Col: 0, Row: 4}))
	assert.True(t, b.Clear(hexgrid.Coord{Col: 0, Row: 0}, hexgrid.Coord{Col: 4, Row: 0}))
	assert.True(t, b.IsWall(hexgrid.Coord{Col: 0, Row: 2}))
	assert.False(t, b.Open(hexgrid.Coord{Col: 10, Row: 0}))
}

func TestNewBoard_Rejects(t *testing.T) {
	_, err := hexgrid.NewBoard(0, 5, nil)
	assert.Error(t, err)
	_, err = hexgrid.NewBoard(5, 5, []hexgrid.Coord{{Col: 7, Row: 1}})
	assert.Error(t, err)
}

func TestDistances_RespectsWallsAndLimit(t *testing.T) {
	b, err := hexgrid.NewBoard(5, 5, []hexgrid.Coord{{Col: 1, Row: 0}})
	require.NoError(t, err)
	d := b.Distances(hexgrid.Coord{}, 2, nil)
	_, wall := d[hexgrid.Coord{Col: 1, Row: 0}]
	assert.False(t, wall)
	for c, v := range d {
		assert.LessOrEqual(t, v, 2, c.String())
		assert.True(t, b.Open(c))
	}
	assert.Equal(t, 0, d[hexgrid.Coord{}])
}

func TestBoard_WallsSortedByColThenRow(t *testing.T) {
	walls := []hexgrid.Coord{{Col: 3, Row: 1}, {Col: 0, Row: 4}, {Col: 3, Row: 0}, {Col: 1, Row: 1}, {Col: 0, Row: 2}}
	b, err := hexgrid.NewBoard(8, 8, walls)
	require.NoError(t, err)
	assert.Equal(t, []hexgrid.Coord{
		{Col: 0, Row: 2}, {Col: 0, Row: 4}, {Col: 1, Row: 1}, {Col: 3, Row: 0}, {Col: 3, Row: 1},
	}, b.Walls())
}

func TestBoard_WallsStable_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		walls := rapid.SliceOfNDistinct(coordGen(), 0, 12, func(c hexgrid.Coord) hexgrid.Coord { return c }).Draw(t, "walls")
		b, err := hexgrid.NewBoard(31, 31, walls)
		require.NoError(t, err)
		first := b.Walls()
		assert.Len(t, first, len(walls))
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, b.Walls())
		}
	})
}
