package engine

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// settle checks for the end of the episode and advances past every empty
// pool, so a step that drains the last unit lands on the next actionable
// phase without consuming another step.
func (o *Orchestrator) settle() error {
	for {
		if v := Evaluate(o.gs, o.opts.MaxTurns); v.Over() {
			o.finish(v)
			return nil
		}
		if !o.gs.ActivePool().Empty() {
			return nil
		}
		if err := o.advance(); err != nil {
			return err
		}
	}
}

// advance moves from an exhausted phase to the next one.
func (o *Orchestrator) advance() error {
	gs := o.gs
	switch gs.Phase {
	case state.Move:
		return o.enter(state.Shoot)
	case state.Shoot:
		return o.enter(state.Charge)
	case state.Charge:
		return o.enter(state.Fight)
	}

	if gs.FightSub == state.FightChargers {
		gs.FightSub = state.FightAlternating
		// The first hand-over goes to the side that is not active.
		gs.FightSide = gs.Player
	}
	more, err := o.nextFightSide()
	if err != nil || more {
		return err
	}
	return o.endPlayerTurn()
}

// nextFightSide fills the pool for the other fight side, or for the same side
// again when the other has nobody left to fight.
func (o *Orchestrator) nextFightSide() (bool, error) {
	gs := o.gs
	for _, side := range []unit.Player{gs.FightSide.Opponent(), gs.FightSide} {
		gs.FightSide = side
		if err := o.rebuild(); err != nil {
			return false, err
		}
		if !gs.ActivePool().Empty() {
			return true, nil
		}
	}
	return false, nil
}

// endPlayerTurn hands over to the other player's Move phase, or closes the
// turn after player 2.
func (o *Orchestrator) endPlayerTurn() error {
	gs := o.gs
	gs.FightSub = state.FightNone
	if gs.Player == unit.Player1 {
		gs.Player = unit.Player2
		return o.enter(state.Move)
	}
	gs.Turn++
	gs.Player = unit.Player1
	o.logger.Debug("turn ended", zap.Int("turn", gs.Turn-1))
	if gs.Turn > o.opts.MaxTurns {
		// Leave an empty pool; settle's evaluation ends the episode.
		gs.Phase = state.Move
		gs.SetPool(nil)
		return nil
	}
	return o.enter(state.Move)
}

// enter starts phase for the current player: it resets the tracking sets the
// phase owns and builds a fresh pool.
func (o *Orchestrator) enter(phase state.Phase) error {
	gs := o.gs
	gs.Phase = phase
	gs.FightSub = state.FightNone
	switch phase {
	case state.Move:
		gs.Moved.Reset()
		gs.Charged.Reset()
		gs.Fled.Reset()
	case state.Shoot:
		gs.LoS.Build(liveIDs(gs, gs.Player), liveIDs(gs, gs.Player.Opponent()))
	case state.Fight:
		gs.Attacked.Reset()
		gs.FightSub = state.FightChargers
	}
	return o.rebuild()
}

func (o *Orchestrator) rebuild() error {
	gs := o.gs
	ids, err := o.pools.Build(gs)
	if err != nil {
		return err
	}
	gs.SetPool(ids)
	o.logger.Debug("phase entered",
		zap.Int("turn", gs.Turn),
		zap.Int("player", int(gs.Player)),
		zap.Stringer("phase", gs.Phase),
		zap.Stringer("fight_sub", gs.FightSub),
		zap.Int("pool", len(ids)),
	)
	return nil
}

func (o *Orchestrator) finish(v Verdict) {
	o.verdict = v
	gs := o.gs
	gs.SetPool(nil)
	o.logger.Info("episode over",
		zap.Stringer("verdict", v),
		zap.Bool("terminated", v.Terminated),
		zap.Bool("truncated", v.Truncated),
		zap.Int("turn", gs.Turn),
		zap.Int("steps", gs.Steps),
		zap.Int("p1_units", gs.Units.Count(unit.Player1)),
		zap.Int("p2_units", gs.Units.Count(unit.Player2)),
	)
}

func liveIDs(gs *state.GameState, p unit.Player) []unit.ID {
	var ids []unit.ID
	for _, u := range gs.Units.AliveOf(p) {
		ids = append(ids, u.ID)
	}
	return ids
}
