package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/engine"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/scenario"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
	"github.com/cory-johannsen/hexwar/internal/testutil"
)

var cat = testutil.Catalog()

func placed(id int, typ string, p, col, row int) scenario.UnitSpec {
	return scenario.UnitSpec{ID: id, UnitType: typ, Player: p, Col: col, Row: row}
}

func board(cols, rows int, walls ...hexgrid.Coord) *scenario.Board {
	return &scenario.Board{Cols: cols, Rows: rows, Walls: walls}
}

func newEngine(t *testing.T, src dice.Source, opts engine.Options) *engine.Orchestrator {
	t.Helper()
	o, err := engine.NewOrchestrator(cat, src, zap.NewNop(), opts)
	require.NoError(t, err)
	return o
}

func reset(t *testing.T, o *engine.Orchestrator, sc *scenario.Scenario) state.Snapshot {
	t.Helper()
	snap, _, err := o.Reset(sc)
	require.NoError(t, err)
	return snap
}

func step(t *testing.T, o *engine.Orchestrator, idx int) engine.StepResult {
	t.Helper()
	res, err := o.Step(idx)
	require.NoError(t, err)
	require.NoError(t, res.Info.Rejected)
	return res
}

func TestEndToEnd_MoveThenShoot(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	sc := &scenario.Scenario{Board: board(10, 10), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 0),
		placed(2, "termagant", 2, 5, 5),
	}}
	snap := reset(t, o, sc)
	assert.Equal(t, state.Move, snap.Phase)
	assert.Equal(t, unit.Player1, snap.Player)
	assert.Equal(t, 1, snap.Turn)
	assert.Equal(t, []unit.ID{1}, snap.Pool)

	mask, err := o.ActionMask()
	require.NoError(t, err)
	assert.Equal(t, []int{action.SlotSouth, action.SlotEast, action.SlotWait}, mask.Legal())

	res := step(t, o, action.SlotEast)
	obs := res.Observation
	u, ok := obs.Unit(1)
	require.True(t, ok)
	assert.Equal(t, hexgrid.Coord{Col: 1, Row: 0}, u.Pos)
	assert.True(t, u.Moved)
	assert.Equal(t, state.Shoot, obs.Phase, "drained Move pool hands over to Shoot in the same step")
	assert.Equal(t, unit.Player1, obs.Player)
	assert.Equal(t, []unit.ID{1}, obs.Pool)
	assert.Equal(t, 1, obs.Steps)
	assert.Equal(t, 1, res.Info.EpisodeSteps)
	assert.Equal(t, action.IntentMove, res.Info.Action.Intent)
	assert.Zero(t, res.Reward)
	assert.False(t, res.Terminated || res.Truncated)
}

func TestEndToEnd_EmptyPhasesCascadeToOpponentMove(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	sc := &scenario.Scenario{Board: board(20, 20), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 0),
		placed(2, "termagant", 2, 19, 19),
	}}
	reset(t, o, sc)

	obs := step(t, o, action.SlotEast).Observation
	assert.Equal(t, state.Move, obs.Phase)
	assert.Equal(t, unit.Player2, obs.Player)
	assert.Equal(t, 1, obs.Turn)
	assert.Equal(t, []unit.ID{2}, obs.Pool)
	assert.Equal(t, 1, obs.Steps)

	obs = step(t, o, action.SlotWait).Observation
	assert.Equal(t, unit.Player1, obs.Player)
	assert.Equal(t, 2, obs.Turn, "turn advances after player 2's cycle")
}

func TestStep_IllegalActionChangesNothing(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	before := reset(t, o, &scenario.Scenario{Board: board(10, 10), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 0),
		placed(2, "termagant", 2, 5, 5),
	}})

	for _, idx := range []int{action.SlotNorth, action.SlotCharge, action.SlotFight, -1, action.NumSlots} {
		res, err := o.Step(idx)
		require.NoError(t, err)
		assert.ErrorIs(t, res.Info.Rejected, action.ErrIllegalAction, "slot %d", idx)
		assert.Equal(t, engine.DefaultOptions().IllegalActionPenalty, res.Reward)
		assert.Equal(t, before, res.Observation)
		assert.Equal(t, 0, res.Info.EpisodeSteps)
	}
}

func TestReset_RoundTrip(t *testing.T) {
	o := newEngine(t, dice.NewSeededSource(7), engine.DefaultOptions())
	sc := &scenario.Scenario{Board: board(8, 8), Units: []scenario.UnitSpec{
		placed(1, "intercessor", 1, 0, 0),
		placed(2, "intercessor", 2, 5, 5),
	}}
	first := reset(t, o, sc)

	for i := 0; i < 20; i++ {
		if o.Verdict().Over() {
			break
		}
		mask, err := o.ActionMask()
		require.NoError(t, err)
		legal := mask.Legal()
		require.NotEmpty(t, legal)
		step(t, o, legal[0])
	}

	second := reset(t, o, sc)
	assert.Equal(t, first, second)
	u, ok := second.Unit(2)
	require.True(t, ok)
	assert.Equal(t, hexgrid.Coord{Col: 5, Row: 5}, u.Pos)
	assert.Equal(t, u.MaxHP, u.HP)
}

func TestShoot_KillTerminatesWithWinReward(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	// hit 6, wound 6, save 1
	o, err := engine.NewOrchestrator(cat, &testutil.SeqSource{Faces: []int{6, 6, 1}}, zap.New(core), engine.DefaultOptions())
	require.NoError(t, err)
	reset(t, o, &scenario.Scenario{Board: board(8, 8), Units: []scenario.UnitSpec{
		placed(1, "intercessor", 1, 0, 0),
		placed(2, "termagant", 2, 0, 2),
	}})

	obs := step(t, o, action.SlotWait).Observation
	require.Equal(t, state.Shoot, obs.Phase)

	res := step(t, o, action.SlotShoot)
	assert.True(t, res.Terminated)
	assert.False(t, res.Truncated)
	require.NotNil(t, res.Info.Winner)
	assert.Equal(t, unit.Player1, *res.Info.Winner)
	assert.Equal(t, 1.0, res.Reward)
	require.Len(t, res.Info.Outcomes, 1)
	assert.True(t, res.Info.Outcomes[0].TargetKilled)
	_, alive := res.Observation.Unit(2)
	assert.False(t, alive)
	assert.Empty(t, res.Observation.Pool)

	_, err = o.Step(action.SlotWait)
	assert.ErrorIs(t, err, engine.ErrEpisodeOver)
	mask, err := o.ActionMask()
	require.NoError(t, err)
	assert.False(t, mask.Any())

	assert.Equal(t, 1, logs.FilterMessage("unit destroyed").Len())
	assert.Equal(t, 1, logs.FilterMessage("episode over").Len())
}

func TestShoot_MultiStepActivation(t *testing.T) {
	// Every die is a 1: all shots miss.
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	reset(t, o, &scenario.Scenario{Board: board(8, 8), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 0),
		placed(2, "termagant", 2, 0, 4),
	}})
	step(t, o, action.SlotWait)

	res := step(t, o, action.SlotShoot)
	u, _ := res.Observation.Unit(1)
	assert.Equal(t, 1, u.ShotsLeft, "bolter fires two shots, one per step")
	assert.Equal(t, []unit.ID{1}, res.Observation.Pool)
	assert.Equal(t, state.Shoot, res.Observation.Phase)
	require.ErrorIs(t, o.SelectWeapon(1, catalog.Ranged, 0), action.ErrIllegalAction)

	res = step(t, o, action.SlotShoot)
	assert.NotEqual(t, state.Shoot, res.Observation.Phase)
	u, _ = res.Observation.Unit(1)
	assert.Zero(t, u.ShotsLeft)
}

func TestTruncation_WinnerByUnitsThenHP(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.MaxTurns = 1
	opts.LossReward = -2
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, opts)
	reset(t, o, &scenario.Scenario{Board: board(20, 20), Units: []scenario.UnitSpec{
		placed(1, "intercessor", 1, 0, 0),
		placed(2, "scout", 2, 19, 19),
	}})

	res := step(t, o, action.SlotWait)
	assert.Equal(t, unit.Player2, res.Observation.Player)
	res = step(t, o, action.SlotWait)
	assert.True(t, res.Truncated)
	assert.False(t, res.Terminated)
	require.NotNil(t, res.Info.Winner)
	assert.Equal(t, unit.Player1, *res.Info.Winner, "equal unit counts, player 1 has more hp")
	assert.Equal(t, -2.0, res.Reward, "player 2 acted and lost")
	assert.Equal(t, 2, res.Info.EpisodeSteps)
}

func TestMove_LeavingMeleeMarksFled(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	reset(t, o, &scenario.Scenario{Board: board(8, 8), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 1),
		placed(3, "scout", 1, 5, 5),
		placed(2, "termagant", 2, 0, 2),
	}})

	obs := step(t, o, action.SlotNorth).Observation
	u, _ := obs.Unit(1)
	assert.Equal(t, hexgrid.Coord{Col: 0, Row: 0}, u.Pos)
	assert.True(t, u.Fled)
	assert.Equal(t, []unit.ID{3}, obs.Pool)
}

func TestFight_ChargersThenAlternating(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	reset(t, o, &scenario.Scenario{Board: board(6, 8), Units: []scenario.UnitSpec{
		placed(1, "scout", 1, 0, 0),
		placed(2, "termagant", 2, 0, 3),
	}})

	step(t, o, action.SlotWait) // move
	obs := step(t, o, action.SlotWait).Observation
	require.Equal(t, state.Charge, obs.Phase)

	obs = step(t, o, action.SlotCharge).Observation
	u, _ := obs.Unit(1)
	assert.Equal(t, hexgrid.Coord{Col: 0, Row: 2}, u.Pos)
	assert.True(t, u.Charged)
	assert.Equal(t, state.Fight, obs.Phase)
	assert.Equal(t, state.FightChargers, obs.FightSub)
	assert.Equal(t, []unit.ID{1}, obs.Pool)

	mask, err := o.ActionMask()
	require.NoError(t, err)
	assert.Equal(t, []int{action.SlotFight}, mask.Legal())

	res := step(t, o, action.SlotFight)
	require.Len(t, res.Info.Outcomes, 1)
	assert.Equal(t, 4, res.Info.Outcomes[0].AttacksUsed, "chainsword swings four times")
	obs = res.Observation
	assert.Equal(t, state.FightAlternating, obs.FightSub)
	assert.Equal(t, unit.Player2, obs.FightSide, "the non-active side strikes back first")
	assert.Equal(t, []unit.ID{2}, obs.Pool)

	obs = step(t, o, action.SlotFight).Observation
	assert.Equal(t, state.Move, obs.Phase)
	assert.Equal(t, unit.Player2, obs.Player)
	assert.Equal(t, []unit.ID{2}, obs.Pool)
}

func TestSelectWeapon(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{Faces: []int{1}}, engine.DefaultOptions())
	reset(t, o, &scenario.Scenario{Board: board(8, 8), Units: []scenario.UnitSpec{
		placed(1, "intercessor", 1, 0, 0),
		placed(2, "termagant", 2, 7, 7),
	}})

	require.NoError(t, o.SelectWeapon(1, catalog.Ranged, 1))
	u, _ := o.Snapshot().Unit(1)
	assert.Equal(t, 1, u.SelectedRanged)

	assert.ErrorIs(t, o.SelectWeapon(1, catalog.Melee, 1), engine.ErrInvalidConfiguration)
	assert.ErrorIs(t, o.SelectWeapon(1, catalog.Ranged, -1), engine.ErrInvalidConfiguration)
	assert.ErrorIs(t, o.SelectWeapon(9, catalog.Ranged, 0), unit.ErrUnitNotFound)
}

func TestReset_RejectsBadScenarios(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{}, engine.DefaultOptions())

	_, _, err := o.Reset(&scenario.Scenario{Units: []scenario.UnitSpec{{
		ID: 1, UnitType: "scout", Player: 1,
		Weapons: &scenario.Weapons{Melee: []string{"power-fist"}},
	}}})
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
	assert.ErrorIs(t, err, catalog.ErrUnknownWeapon)

	_, _, err = o.Reset(&scenario.Scenario{Board: board(4, 4), Units: []scenario.UnitSpec{placed(1, "scout", 1, 4, 0)}})
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)

	_, _, err = o.Reset(&scenario.Scenario{Board: board(4, 4, hexgrid.Coord{Col: 1, Row: 1}), Units: []scenario.UnitSpec{placed(1, "scout", 1, 1, 1)}})
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)

	_, err = o.Step(action.SlotWait)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration, "no successful reset yet")
}

func TestReset_OneSidedScenarioIsOverImmediately(t *testing.T) {
	o := newEngine(t, &testutil.SeqSource{}, engine.DefaultOptions())
	_, info, err := o.Reset(&scenario.Scenario{Units: []scenario.UnitSpec{placed(1, "scout", 1, 0, 0)}})
	require.NoError(t, err)
	require.NotNil(t, info.Winner)
	assert.Equal(t, unit.Player1, *info.Winner)
	_, err = o.Step(action.SlotWait)
	assert.ErrorIs(t, err, engine.ErrEpisodeOver)
}

func TestNewOrchestrator_ValidatesOptions(t *testing.T) {
	opts := engine.DefaultOptions()
	opts.MaxTurns = 0
	opts.IllegalActionPenalty = 1
	_, err := engine.NewOrchestrator(cat, &testutil.SeqSource{}, zap.NewNop(), opts)
	assert.ErrorIs(t, err, engine.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "max turns")
	assert.Contains(t, err.Error(), "penalty")
}
