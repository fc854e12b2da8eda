package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/combat"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/pool"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
	"github.com/cory-johannsen/hexwar/internal/testutil"
)

var cat = testutil.Catalog()

func TestBuild_Move(t *testing.T) {
	gs := testutil.NewState(t, 8, 8, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "scout", unit.Player1, 1, 0),
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 5, 5),
	)
	b := pool.NewBuilder(cat)
	gs.Moved.Add(2)

	ids, err := b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{1}, ids)
}

func TestBuild_Shoot_RangeAndLineOfSight(t *testing.T) {
	gs := testutil.NewState(t, 12, 12, []hexgrid.Coord{{Col: 4, Row: 1}},
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 4, 0),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 4, 3),  // distance 3
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 4, 11), // out of bolter range
		testutil.NewUnit(cat, 4, "termagant", unit.Player2, 6, 1),  // distance 2, clear
	)
	b := pool.NewBuilder(cat)
	gs.Phase = state.Shoot

	targets, err := b.ShootTargets(gs, 1)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{4}, targets, "wall at (4,1) hides unit 2; unit 3 is out of range")

	ids, err := b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{1}, ids)

	gs.Fled.Add(1)
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids, "fled units do not shoot")
}

func TestShootTargets_SwarmNearestFirstCappedAtFive(t *testing.T) {
	units := []unit.Unit{testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0)}
	// Enemies down column 0 at rows 7..1, so id order is the reverse of distance order.
	for i := 0; i < 7; i++ {
		units = append(units, testutil.NewUnit(cat, unit.ID(10+i), "termagant", unit.Player2, 0, 7-i))
	}
	gs := testutil.NewState(t, 10, 10, nil, units...)
	gs.Phase = state.Shoot

	targets, err := pool.NewBuilder(cat).ShootTargets(gs, 1)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{16, 15, 14, 13, 12}, targets)
}

func TestShootTargets_EliteByExpectedDamagePerWound(t *testing.T) {
	gs := testutil.NewState(t, 10, 10, nil,
		testutil.NewUnit(cat, 1, "intercessor", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "carnifex", unit.Player2, 0, 2),
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 0, 6),
	)
	gs.Phase = state.Shoot

	targets, err := pool.NewBuilder(cat).ShootTargets(gs, 1)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{3, 2}, targets)

	bolter, err := cat.Weapon("bolter")
	require.NoError(t, err)
	gaunt, _ := cat.UnitType("termagant")
	fex, _ := cat.UnitType("carnifex")
	assert.Greater(t, combat.ExpectedDamage(bolter, gaunt)/1, combat.ExpectedDamage(bolter, fex)/8)
}

func TestBuild_Shoot_NoRangedWeaponIsIneligible(t *testing.T) {
	gs := testutil.NewState(t, 6, 6, nil,
		testutil.NewUnit(cat, 1, "carnifex", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 2),
	)
	gs.Phase = state.Shoot
	ids, err := pool.NewBuilder(cat).Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuild_BadSelectionIsConfigurationError(t *testing.T) {
	u := testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0)
	u.SelectedRanged = 3
	gs := testutil.NewState(t, 6, 6, nil, u, testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 2))
	gs.Phase = state.Shoot

	_, err := pool.NewBuilder(cat).Build(gs)
	assert.ErrorIs(t, err, combat.ErrWeaponSelection)
}

func TestChargeTargets_ReachAndDestination(t *testing.T) {
	gs := testutil.NewState(t, 6, 8, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0), // move 1, reach 2
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 3),
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 0, 7),
	)
	gs.Phase = state.Charge
	b := pool.NewBuilder(cat)

	targets, err := b.ChargeTargets(gs, 1)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, pool.ChargeTarget{Target: 2, Dest: hexgrid.Coord{Col: 0, Row: 2}, Steps: 2}, targets[0])

	ids, err := b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{1}, ids)

	gs.Charged.Add(1)
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids, "a unit charges once per turn")
}

func TestChargeTargets_WallLengthensPath(t *testing.T) {
	gs := testutil.NewState(t, 6, 8, []hexgrid.Coord{{Col: 0, Row: 1}},
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 3),
	)
	gs.Phase = state.Charge
	targets, err := pool.NewBuilder(cat).ChargeTargets(gs, 1)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestBuild_Charge_AlreadyEngagedIsIneligible(t *testing.T) {
	gs := testutil.NewState(t, 6, 6, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 1),
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 0, 3),
	)
	gs.Phase = state.Charge
	ids, err := pool.NewBuilder(cat).Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBuild_FightSubPhases(t *testing.T) {
	gs := testutil.NewState(t, 6, 6, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 0, 1),
		testutil.NewUnit(cat, 3, "scout", unit.Player1, 4, 4),
	)
	b := pool.NewBuilder(cat)
	gs.Phase = state.Fight
	gs.FightSub = state.FightChargers

	ids, err := b.Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids, "only units that charged fight first")

	gs.Charged.Add(1)
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{1}, ids)

	gs.FightSub = state.FightAlternating
	gs.FightSide = unit.Player2
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{2}, ids)

	gs.Attacked.Add(2)
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Empty(t, ids)

	gs.FightSide = unit.Player1
	ids, err = b.Build(gs)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{1}, ids, "unit 3 is not engaged")
}

func TestMeleeTargets_OnlyAdjacent(t *testing.T) {
	gs := testutil.NewState(t, 6, 6, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 2, 2),
		testutil.NewUnit(cat, 2, "termagant", unit.Player2, 2, 3),
		testutil.NewUnit(cat, 3, "termagant", unit.Player2, 2, 1),
		testutil.NewUnit(cat, 4, "termagant", unit.Player2, 5, 5),
	)
	targets, err := pool.NewBuilder(cat).MeleeTargets(gs, 1)
	require.NoError(t, err)
	assert.Equal(t, []unit.ID{2, 3}, targets)

	u := testutil.NewUnit(cat, 9, "scout", unit.Player1, 0, 5)
	u.MeleeWeapons, u.SelectedMelee = nil, unit.NoWeapon
	require.NoError(t, gs.Units.Put(u))
	targets, err = pool.NewBuilder(cat).MeleeTargets(gs, 9)
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestPrune_DropsDeadAndIneligible(t *testing.T) {
	gs := testutil.NewState(t, 8, 8, nil,
		testutil.NewUnit(cat, 1, "scout", unit.Player1, 0, 0),
		testutil.NewUnit(cat, 2, "scout", unit.Player1, 1, 0),
		testutil.NewUnit(cat, 3, "scout", unit.Player1, 2, 0),
		testutil.NewUnit(cat, 4, "termagant", unit.Player2, 7, 7),
	)
	gs.SetPool([]unit.ID{1, 2, 3})
	gs.Units.Remove(2)
	gs.Moved.Add(3)

	n, err := pool.NewBuilder(cat).Prune(gs)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "unit 2 was already stripped on removal")
	assert.Equal(t, []unit.ID{1}, gs.ActivePool().IDs())
}

// TestBuild_OnlyLiveOwnUnits_Property checks that every phase's pool holds only
// live units and, outside the alternating fight, only the active player's.
func TestBuild_OnlyLiveOwnUnits_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(2, 8).Draw(rt, "n")
		types := []string{"scout", "termagant", "intercessor", "carnifex"}
		var units []unit.Unit
		used := map[hexgrid.Coord]bool{}
		for i := 1; i <= n; i++ {
			c := hexgrid.Coord{Col: rapid.IntRange(0, 7).Draw(rt, "col"), Row: rapid.IntRange(0, 7).Draw(rt, "row")}
			if used[c] {
				continue
			}
			used[c] = true
			p := unit.Player(rapid.IntRange(1, 2).Draw(rt, "player"))
			units = append(units, testutil.NewUnit(cat, unit.ID(i), rapid.SampledFrom(types).Draw(rt, "type"), p, c.Col, c.Row))
		}
		gs := testutil.NewState(rt, 8, 8, nil, units...)
		gs.Phase = state.Phase(rapid.IntRange(0, 3).Draw(rt, "phase"))
		gs.Player = unit.Player(rapid.IntRange(1, 2).Draw(rt, "active"))
		gs.FightSub = state.FightChargers
		for _, u := range units {
			gs.Charged.Add(u.ID)
		}
		ids, err := pool.NewBuilder(cat).Build(gs)
		require.NoError(rt, err)
		for _, id := range ids {
			u, ok := gs.Units.Get(id)
			require.True(rt, ok)
			assert.Equal(rt, gs.Player, u.Player)
			if gs.Phase == state.Shoot {
				_, hasRanged := u.WeaponCode(catalog.Ranged)
				assert.True(rt, hasRanged)
			}
		}
	})
}
