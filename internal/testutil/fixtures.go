// Package testutil provides shared fixtures: a small unit catalog, scripted
// dice, game states and a PostgreSQL test container.
package testutil

import (
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Catalog returns a small fixed catalog shared by engine tests:
//
//	intercessor  elite  move 3 T4 Sv3   W2  bolter(8") plasma(8") / chainsword
//	termagant    swarm  move 3 T3 Sv5   W1  fleshborer(4") / claws
//	scout        swarm  move 1 T4 Sv4   W1  bolter / chainsword
//	carnifex     elite  move 2 T9 Sv2++5 W8  - / claws
//
// It panics on invalid fixture data.
func Catalog() *catalog.Catalog {
	c := catalog.New()
	weapons := []*catalog.Weapon{
		{Code: "bolter", Name: "Boltgun", Class: catalog.Ranged, Range: 8, Attacks: dice.Fixed(2), ToHit: 3, Strength: 4, Damage: dice.Fixed(1)},
		{Code: "plasma", Name: "Plasma gun", Class: catalog.Ranged, Range: 8, Attacks: dice.MustQuantity("D3"), ToHit: 3, Strength: 8, AP: -3, Damage: dice.Fixed(2)},
		{Code: "fleshborer", Name: "Fleshborer", Class: catalog.Ranged, Range: 4, Attacks: dice.Fixed(1), ToHit: 4, Strength: 5, Damage: dice.Fixed(1)},
		{Code: "chainsword", Name: "Chainsword", Class: catalog.Melee, Attacks: dice.Fixed(4), ToHit: 3, Strength: 4, AP: -1, Damage: dice.Fixed(1)},
		{Code: "claws", Name: "Claws", Class: catalog.Melee, Attacks: dice.Fixed(2), ToHit: 4, Strength: 3, Damage: dice.Fixed(1)},
	}
	for _, w := range weapons {
		if err := c.RegisterWeapon(w); err != nil {
			panic(err)
		}
	}
	units := []*catalog.UnitType{
		{ID: "intercessor", Name: "Intercessor", Faction: "marines", Behavior: catalog.Elite, Move: 3, Toughness: 4, Save: 3, Wounds: 2,
			RangedWeapons: []string{"bolter", "plasma"}, MeleeWeapons: []string{"chainsword"}},
		{ID: "termagant", Name: "Termagant", Faction: "swarm", Behavior: catalog.Swarm, Move: 3, Toughness: 3, Save: 5, Wounds: 1,
			RangedWeapons: []string{"fleshborer"}, MeleeWeapons: []string{"claws"}},
		{ID: "scout", Name: "Scout", Faction: "marines", Behavior: catalog.Swarm, Move: 1, Toughness: 4, Save: 4, Wounds: 1,
			RangedWeapons: []string{"bolter"}, MeleeWeapons: []string{"chainsword"}},
		{ID: "carnifex", Name: "Carnifex", Faction: "swarm", Behavior: catalog.Elite, Move: 2, Toughness: 9, Save: 2, Invulnerable: 5, Wounds: 8,
			MeleeWeapons: []string{"claws"}},
	}
	for _, u := range units {
		if err := c.RegisterUnitType(u); err != nil {
			panic(err)
		}
	}
	return c
}

// SeqSource replays a fixed list of D6 faces (1-6) and then repeats the last
// one. Intn(n) returns face-1, so it is only meaningful for n == 6 or for
// callers that only need some value below n.
type SeqSource struct {
	Faces []int
	i     int
}

// Intn returns the next scripted face minus one, clamped into [0, n).
func (s *SeqSource) Intn(n int) int {
	if len(s.Faces) == 0 {
		return 0
	}
	f := s.Faces[min(s.i, len(s.Faces)-1)]
	s.i++
	return min(max(f-1, 0), n-1)
}

// Roller wraps src in a dice.Roller with a no-op logger.
func Roller(src dice.Source) *dice.Roller {
	return dice.NewLoggedRoller(src, zap.NewNop())
}

// NewUnit builds a full-health unit of typeID with the type's default loadout,
// first weapon of each class selected.
func NewUnit(cat *catalog.Catalog, id unit.ID, typeID string, p unit.Player, col, row int) unit.Unit {
	ut, err := cat.UnitType(typeID)
	if err != nil {
		panic(err)
	}
	ranged, melee, err := cat.Loadout(typeID, nil, nil)
	if err != nil {
		panic(err)
	}
	u := unit.Unit{
		ID: id, Type: typeID, Player: p,
		Pos: hexgrid.Coord{Col: col, Row: row},
		HP:  ut.Wounds, MaxHP: ut.Wounds,
		RangedWeapons: ranged, MeleeWeapons: melee,
		SelectedRanged: unit.NoWeapon, SelectedMelee: unit.NoWeapon,
	}
	if len(ranged) > 0 {
		u.SelectedRanged = 0
	}
	if len(melee) > 0 {
		u.SelectedMelee = 0
	}
	return u
}

// T is the part of *testing.T and *rapid.T the fixtures need.
type T interface {
	require.TestingT
	Helper()
}

// NewState places units on a cols x rows board with walls and returns a fresh
// GameState over them.
func NewState(tb T, cols, rows int, walls []hexgrid.Coord, units ...unit.Unit) *state.GameState {
	tb.Helper()
	board, err := hexgrid.NewBoard(cols, rows, walls)
	require.NoError(tb, err)
	dir := unit.NewDirectory()
	for _, u := range units {
		require.NoError(tb, dir.Put(u))
	}
	return state.New(dir, board)
}
