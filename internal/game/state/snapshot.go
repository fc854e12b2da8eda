package state

import (
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// UnitView is a live unit with its per-turn flags.
type UnitView struct {
	unit.Unit
	Moved    bool
	Charged  bool
	Attacked bool
	Fled     bool
}

// Snapshot is the observation handle handed to policies and encoders. It
// shares no memory with the GameState it was taken from.
type Snapshot struct {
	Phase     Phase
	FightSub  FightSubPhase
	FightSide unit.Player
	Player    unit.Player
	Turn      int
	Steps     int
	// Pool is the active pool; Pool[0] is the acting unit.
	Pool  []unit.ID
	Units []UnitView

	Cols, Rows int
	Walls      []hexgrid.Coord
}

// Unit returns the view of id.
//
// Postcondition: ok is false when id is not alive in this snapshot.
func (s Snapshot) Unit(id unit.ID) (UnitView, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return UnitView{}, false
}

// Acting returns the view of the unit at the head of the pool.
func (s Snapshot) Acting() (UnitView, bool) {
	if len(s.Pool) == 0 {
		return UnitView{}, false
	}
	return s.Unit(s.Pool[0])
}

// Enemies returns the live units not owned by p.
func (s Snapshot) Enemies(p unit.Player) []UnitView {
	var out []UnitView
	for _, u := range s.Units {
		if u.Player != p {
			out = append(out, u)
		}
	}
	return out
}
