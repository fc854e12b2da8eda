// Package action maps the fixed 12-slot action encoding onto semantic actions
// for the unit at the head of the active pool.
//
//	0-3   move north, south, east, west
//	4-8   shoot target slot 0-4
//	9     charge
//	10    fight
//	11    wait
package action

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/pool"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// ErrIllegalAction is returned by Decode for an index the mask forbids. It is a
// recoverable outcome, not a fault.
var ErrIllegalAction = errors.New("illegal action")

// Slot indices.
const (
	SlotNorth  = 0
	SlotSouth  = 1
	SlotEast   = 2
	SlotWest   = 3
	SlotShoot  = 4
	SlotCharge = SlotShoot + pool.MaxShootTargets
	SlotFight  = SlotCharge + 1
	SlotWait   = SlotFight + 1
	NumSlots   = SlotWait + 1
)

// Intent is the action class of a decoded action.
type Intent int

const (
	IntentMove Intent = iota
	IntentShoot
	IntentCharge
	IntentFight
	IntentWait
)

// String returns the intent name.
func (i Intent) String() string {
	switch i {
	case IntentMove:
		return "move"
	case IntentShoot:
		return "shoot"
	case IntentCharge:
		return "charge"
	case IntentFight:
		return "fight"
	case IntentWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Action is a decoded action. Fields beyond Unit and Intent are set only for
// the intents that use them.
type Action struct {
	Index  int
	Unit   unit.ID
	Intent Intent
	// Direction and Dest describe a move; Dest is also the charge destination.
	Direction hexgrid.Direction
	Dest      hexgrid.Coord
	// Target is the shoot or charge target.
	Target unit.ID
}

func (a Action) String() string {
	switch a.Intent {
	case IntentMove:
		return fmt.Sprintf("unit %d move %s to %s", a.Unit, a.Direction, a.Dest)
	case IntentShoot:
		return fmt.Sprintf("unit %d shoot unit %d", a.Unit, a.Target)
	case IntentCharge:
		return fmt.Sprintf("unit %d charge unit %d to %s", a.Unit, a.Target, a.Dest)
	default:
		return fmt.Sprintf("unit %d %s", a.Unit, a.Intent)
	}
}

// Mask is the legality vector over the encoding.
type Mask [NumSlots]bool

// Legal returns the legal indices in ascending order.
func (m Mask) Legal() []int {
	var out []int
	for i, ok := range m {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Any reports whether at least one slot is legal.
func (m Mask) Any() bool {
	for _, ok := range m {
		if ok {
			return true
		}
	}
	return false
}

func (m Mask) String() string {
	b := make([]byte, NumSlots)
	for i, ok := range m {
		b[i] = '.'
		if ok {
			b[i] = '1'
		}
	}
	return string(b)
}
