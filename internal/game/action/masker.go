package action

import (
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/pool"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Masker computes masks and decodes indices. Mask and Decode share one option
// computation, so an index is legal in the mask exactly when Decode accepts it.
type Masker struct {
	cat   *catalog.Catalog
	pools *pool.Builder
}

// NewMasker returns a Masker reading static data from cat and targets from pools.
//
// Precondition: cat and pools must be non-nil.
func NewMasker(cat *catalog.Catalog, pools *pool.Builder) *Masker {
	return &Masker{cat: cat, pools: pools}
}

// options is everything the acting unit may do right now.
type options struct {
	unit    unit.ID
	moves   [4]hexgrid.Coord
	canMove [4]bool
	shoot   []unit.ID
	charge  []pool.ChargeTarget
	fight   []unit.ID
	wait    bool
}

// Mask returns the legality vector for gs. With an empty active pool every slot is illegal.
//
// Postcondition: err is non-nil only for configuration faults.
func (m *Masker) Mask(gs *state.GameState) (Mask, error) {
	var mask Mask
	opts, ok, err := m.options(gs)
	if err != nil || !ok {
		return mask, err
	}
	for d := range opts.canMove {
		mask[SlotNorth+d] = opts.canMove[d]
	}
	for k := range opts.shoot {
		mask[SlotShoot+k] = true
	}
	mask[SlotCharge] = len(opts.charge) > 0
	mask[SlotFight] = len(opts.fight) > 0
	mask[SlotWait] = opts.wait
	return mask, nil
}

// Decode translates idx into an action of the head of gs's active pool.
//
// Postcondition: err wraps ErrIllegalAction when idx is out of [0, NumSlots)
// or masked; any other error is a configuration fault.
func (m *Masker) Decode(gs *state.GameState, idx int) (Action, error) {
	if idx < 0 || idx >= NumSlots {
		return Action{}, fmt.Errorf("%w: index %d out of range [0,%d)", ErrIllegalAction, idx, NumSlots)
	}
	opts, ok, err := m.options(gs)
	if err != nil {
		return Action{}, err
	}
	if !ok {
		return Action{}, fmt.Errorf("%w: no unit to activate in %s", ErrIllegalAction, gs.Phase)
	}
	a := Action{Index: idx, Unit: opts.unit}
	switch {
	case idx <= SlotWest:
		d := idx - SlotNorth
		if !opts.canMove[d] {
			return Action{}, m.illegal(gs, idx)
		}
		a.Intent, a.Direction, a.Dest = IntentMove, hexgrid.Direction(d), opts.moves[d]
	case idx < SlotCharge:
		k := idx - SlotShoot
		if k >= len(opts.shoot) {
			return Action{}, m.illegal(gs, idx)
		}
		a.Intent, a.Target = IntentShoot, opts.shoot[k]
	case idx == SlotCharge:
		if len(opts.charge) == 0 {
			return Action{}, m.illegal(gs, idx)
		}
		a.Intent, a.Target, a.Dest = IntentCharge, opts.charge[0].Target, opts.charge[0].Dest
	case idx == SlotFight:
		if len(opts.fight) == 0 {
			return Action{}, m.illegal(gs, idx)
		}
		a.Intent, a.Target = IntentFight, opts.fight[0]
	default:
		if !opts.wait {
			return Action{}, m.illegal(gs, idx)
		}
		a.Intent = IntentWait
	}
	return a, nil
}

func (m *Masker) illegal(gs *state.GameState, idx int) error {
	return fmt.Errorf("%w: slot %d in %s phase", ErrIllegalAction, idx, gs.Phase)
}

func (m *Masker) options(gs *state.GameState) (options, bool, error) {
	id, ok := gs.Acting()
	if !ok {
		return options{}, false, nil
	}
	u, err := gs.Units.Require(id)
	if err != nil {
		return options{}, false, err
	}
	opts := options{unit: id}
	switch gs.Phase {
	case state.Move:
		ut, err := m.cat.UnitType(u.Type)
		if err != nil {
			return options{}, false, err
		}
		for d := range opts.moves {
			dest, steps := Walk(gs, u.Pos, hexgrid.Direction(d), ut.Move)
			opts.moves[d], opts.canMove[d] = dest, steps > 0
		}
		opts.wait = true
	case state.Shoot:
		if opts.shoot, err = m.pools.ShootTargets(gs, id); err != nil {
			return options{}, false, err
		}
		opts.wait = true
	case state.Charge:
		if opts.charge, err = m.pools.ChargeTargets(gs, id); err != nil {
			return options{}, false, err
		}
		opts.wait = true
	case state.Fight:
		if opts.fight, err = m.pools.MeleeTargets(gs, id); err != nil {
			return options{}, false, err
		}
	}
	return opts, true, nil
}

// Walk steps from start in direction d up to maxSteps hexes, stopping before
// a blocked or occupied hex. It returns the final hex and the number of steps
// taken.
func Walk(gs *state.GameState, start hexgrid.Coord, d hexgrid.Direction, maxSteps int) (hexgrid.Coord, int) {
	cur, steps := start, 0
	for steps < maxSteps {
		next := hexgrid.Step(cur, d)
		if !gs.Board.Open(next) || gs.Units.Occupied(next) {
			break
		}
		cur = next
		steps++
	}
	return cur, steps
}
