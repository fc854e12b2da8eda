// Package engine drives an episode. The Orchestrator owns the unit directory
// and GameState; each Step executes one action and advances phases when the
// active pool runs dry.
package engine

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/combat"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/pool"
	"github.com/cory-johannsen/hexwar/internal/game/scenario"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Info accompanies every observation.
type Info struct {
	Winner       *unit.Player
	Turn         int
	EpisodeSteps int
	// Rejected is non-nil when the step's action was illegal; it wraps action.ErrIllegalAction.
	Rejected error
	// Action is the decoded action of an accepted step.
	Action action.Action
	// Outcomes lists the combat exchanges the step produced.
	Outcomes []combat.Outcome
}

// StepResult is the return of Step.
type StepResult struct {
	Observation state.Snapshot
	Reward      float64
	Terminated  bool
	Truncated   bool
	Info        Info
}

// Orchestrator is the phase state machine. It is not safe for concurrent use:
// one caller drives it through Reset and Step.
type Orchestrator struct {
	cat    *catalog.Catalog
	roll   *dice.Roller
	logger *zap.Logger
	opts   Options
	pools  *pool.Builder
	masker *action.Masker

	gs       *state.GameState
	verdict  Verdict
	aborted  error
	outcomes []combat.Outcome
}

// NewOrchestrator returns an Orchestrator drawing dice from src.
//
// Precondition: cat, src and logger must be non-nil; opts must pass Validate.
// Postcondition: Reset must be called before Step.
func NewOrchestrator(cat *catalog.Catalog, src dice.Source, logger *zap.Logger, opts Options) (*Orchestrator, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	pools := pool.NewBuilder(cat)
	return &Orchestrator{
		cat:    cat,
		roll:   dice.NewLoggedRoller(src, logger),
		logger: logger,
		opts:   opts,
		pools:  pools,
		masker: action.NewMasker(cat, pools),
	}, nil
}

// Reset discards any running episode and places sc's units at full health with
// default or overridden loadouts, at turn 1, player 1, Move phase.
//
// Postcondition: err wraps ErrInvalidConfiguration when sc does not validate
// against the catalog or does not fit the board; the previous episode is then
// left untouched.
func (o *Orchestrator) Reset(sc *scenario.Scenario) (state.Snapshot, Info, error) {
	if err := sc.Validate(o.cat); err != nil {
		return state.Snapshot{}, Info{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	cols, rows, walls := o.opts.BoardCols, o.opts.BoardRows, []hexgrid.Coord(nil)
	if sc.Board != nil {
		cols, rows, walls = sc.Board.Cols, sc.Board.Rows, sc.Board.Walls
	}
	board, err := hexgrid.NewBoard(cols, rows, walls)
	if err != nil {
		return state.Snapshot{}, Info{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	dir := unit.NewDirectory()
	for _, spec := range sc.Units {
		u, err := o.place(board, spec)
		if err == nil {
			err = dir.Put(u)
		}
		if err != nil {
			return state.Snapshot{}, Info{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
	}

	o.gs = state.New(dir, board)
	o.verdict, o.aborted, o.outcomes = Verdict{}, nil, nil
	if err := o.enter(state.Move); err != nil {
		return state.Snapshot{}, Info{}, o.fail(err)
	}
	if err := o.settle(); err != nil {
		return state.Snapshot{}, Info{}, o.fail(err)
	}
	o.logger.Info("episode reset",
		zap.String("scenario", sc.Name),
		zap.Int("units", dir.Len()),
		zap.Int("cols", cols),
		zap.Int("rows", rows),
	)
	return o.gs.Snapshot(), o.info(), nil
}

func (o *Orchestrator) place(board *hexgrid.Board, spec scenario.UnitSpec) (unit.Unit, error) {
	ut, err := o.cat.UnitType(spec.UnitType)
	if err != nil {
		return unit.Unit{}, err
	}
	if !board.Open(spec.Pos()) {
		return unit.Unit{}, fmt.Errorf("unit %d: %s is off the board or a wall", spec.ID, spec.Pos())
	}
	ranged, melee := spec.Overrides()
	rangedCodes, meleeCodes, err := o.cat.Loadout(spec.UnitType, ranged, melee)
	if err != nil {
		return unit.Unit{}, fmt.Errorf("unit %d: %w", spec.ID, err)
	}
	u := unit.Unit{
		ID:             unit.ID(spec.ID),
		Type:           ut.ID,
		Player:         unit.Player(spec.Player),
		Pos:            spec.Pos(),
		HP:             ut.Wounds,
		MaxHP:          ut.Wounds,
		RangedWeapons:  rangedCodes,
		MeleeWeapons:   meleeCodes,
		SelectedRanged: unit.NoWeapon,
		SelectedMelee:  unit.NoWeapon,
	}
	if len(rangedCodes) > 0 {
		u.SelectedRanged = 0
	}
	if len(meleeCodes) > 0 {
		u.SelectedMelee = 0
	}
	return u, nil
}

// Step decodes idx for the acting unit and executes it.
//
// An illegal idx is not an error: the result carries IllegalActionPenalty and
// Info.Rejected, and nothing (including the step counter) changes.
//
// Postcondition: err wraps ErrEpisodeOver after the episode ended, or
// ErrEpisodeAborted (with the cause) after a fatal error in this or an earlier step.
func (o *Orchestrator) Step(idx int) (StepResult, error) {
	if err := o.ready(); err != nil {
		return StepResult{}, err
	}
	act, err := o.masker.Decode(o.gs, idx)
	if errors.Is(err, action.ErrIllegalAction) {
		o.logger.Debug("illegal action", zap.Int("index", idx), zap.Error(err))
		res := o.result(0)
		res.Reward = o.opts.IllegalActionPenalty
		res.Info.Rejected = err
		res.Info.Outcomes = nil
		return res, nil
	}
	if err != nil {
		return StepResult{}, o.fail(err)
	}

	actor, err := o.gs.Units.Require(act.Unit)
	if err != nil {
		return StepResult{}, o.fail(err)
	}
	o.gs.Steps++
	o.outcomes = nil
	if err := o.execute(act); err != nil {
		return StepResult{}, o.fail(err)
	}
	if _, err := o.pools.Prune(o.gs); err != nil {
		return StepResult{}, o.fail(err)
	}
	if err := o.settle(); err != nil {
		return StepResult{}, o.fail(err)
	}
	res := o.result(o.reward(actor.Player))
	res.Info.Action = act
	return res, nil
}

// ActionMask returns the legal slots for the acting unit; all false once the episode is over.
func (o *Orchestrator) ActionMask() (action.Mask, error) {
	if err := o.ready(); err != nil {
		if errors.Is(err, ErrEpisodeOver) {
			return action.Mask{}, nil
		}
		return action.Mask{}, err
	}
	m, err := o.masker.Mask(o.gs)
	if err != nil {
		return action.Mask{}, o.fail(err)
	}
	return m, nil
}

// Snapshot returns the current observation.
//
// Precondition: Reset has succeeded at least once.
func (o *Orchestrator) Snapshot() state.Snapshot {
	if o.gs == nil {
		panic("engine: Snapshot precondition violated: Reset has not been called")
	}
	return o.gs.Snapshot()
}

// Verdict returns the episode's end state so far.
func (o *Orchestrator) Verdict() Verdict { return o.verdict }

// SelectWeapon changes which weapon of class unit id will use. A unit in the
// middle of a shooting activation keeps its ranged weapon until it finishes.
//
// Postcondition: err wraps ErrInvalidConfiguration for an index outside the
// unit's list, unit.ErrUnitNotFound for a dead unit, or action.ErrIllegalAction
// mid-activation. On error nothing changes.
func (o *Orchestrator) SelectWeapon(id unit.ID, class catalog.WeaponClass, idx int) error {
	if err := o.ready(); err != nil {
		return err
	}
	u, err := o.gs.Units.Require(id)
	if err != nil {
		return err
	}
	list := u.RangedWeapons
	if class == catalog.Melee {
		list = u.MeleeWeapons
	}
	if idx < 0 || idx >= len(list) {
		return fmt.Errorf("%w: unit %d has %d %s weapons, index %d", ErrInvalidConfiguration, id, len(list), class, idx)
	}
	if class == catalog.Ranged && u.ShotsLeft > 0 {
		return fmt.Errorf("%w: unit %d is mid-activation", action.ErrIllegalAction, id)
	}
	if err := o.gs.Units.Update(id, func(u *unit.Unit) {
		if class == catalog.Melee {
			u.SelectedMelee = idx
		} else {
			u.SelectedRanged = idx
		}
	}); err != nil {
		return o.fail(err)
	}
	o.logger.Debug("weapon selected", zap.Int("unit", int(id)), zap.String("class", string(class)), zap.String("weapon", list[idx]))
	if _, err := o.pools.Prune(o.gs); err != nil {
		return o.fail(err)
	}
	if err := o.settle(); err != nil {
		return o.fail(err)
	}
	return nil
}

func (o *Orchestrator) ready() error {
	switch {
	case o.gs == nil:
		return fmt.Errorf("%w: Reset has not been called", ErrInvalidConfiguration)
	case o.aborted != nil:
		return fmt.Errorf("%w: %w", ErrEpisodeAborted, o.aborted)
	case o.verdict.Over():
		return ErrEpisodeOver
	}
	return nil
}

// fail aborts the episode with cause.
func (o *Orchestrator) fail(cause error) error {
	o.aborted = cause
	o.logger.Error("episode aborted",
		zap.Int("turn", o.gs.Turn),
		zap.Int("steps", o.gs.Steps),
		zap.Stringer("phase", o.gs.Phase),
		zap.Error(cause),
	)
	return fmt.Errorf("%w: %w", ErrEpisodeAborted, cause)
}

func (o *Orchestrator) reward(actor unit.Player) float64 {
	if !o.verdict.Over() || o.verdict.Winner == nil {
		return 0
	}
	if *o.verdict.Winner == actor {
		return o.opts.WinReward
	}
	return o.opts.LossReward
}

func (o *Orchestrator) info() Info {
	return Info{
		Winner:       o.verdict.Winner,
		Turn:         o.gs.Turn,
		EpisodeSteps: o.gs.Steps,
		Outcomes:     o.outcomes,
	}
}

func (o *Orchestrator) result(reward float64) StepResult {
	return StepResult{
		Observation: o.gs.Snapshot(),
		Reward:      reward,
		Terminated:  o.verdict.Terminated,
		Truncated:   o.verdict.Truncated,
		Info:        o.info(),
	}
}
