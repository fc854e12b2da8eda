// Package state holds GameState, the single mutable record of an episode's
// progress. One orchestrator owns it; every handler and builder receives the
// same pointer for the duration of one step and never keeps it.
package state

import (
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/los"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// GameState is the phase machine's position plus handles to the unit
// directory, the board and the line-of-sight cache.
type GameState struct {
	Phase  Phase
	Player unit.Player
	Turn   int
	// Steps counts accepted actions; illegal actions do not advance it.
	Steps int

	// Pools is indexed by Phase; only Pools[Phase] is populated.
	Pools [NumPhases]Pool

	FightSub FightSubPhase
	// FightSide is the side whose units fill the pool during FightAlternating.
	FightSide unit.Player

	Units *unit.Directory
	Board *hexgrid.Board
	LoS   *los.Cache

	// Per-turn tracking. Moved, Charged and Fled are reset when a player's Move
	// phase begins; Attacked is reset when a Fight phase begins.
	Moved    Set
	Charged  Set
	Attacked Set
	Fled     Set
}

// New returns a GameState at turn 1, player 1, Move, over dir and board, with
// a fresh LoS cache. Removing a unit from dir also strips it from every pool.
//
// Precondition: dir and board must be non-nil.
func New(dir *unit.Directory, board *hexgrid.Board) *GameState {
	gs := &GameState{
		Phase:    Move,
		Player:   unit.Player1,
		Turn:     1,
		Units:    dir,
		Board:    board,
		LoS:      los.New(board, dir),
		Moved:    Set{},
		Charged:  Set{},
		Attacked: Set{},
		Fled:     Set{},
	}
	dir.OnRemove(func(id unit.ID) {
		for i := range gs.Pools {
			gs.Pools[i].Remove(id)
		}
	})
	return gs
}

// ActivePool returns the pool of the current phase.
func (gs *GameState) ActivePool() *Pool { return &gs.Pools[gs.Phase] }

// Acting returns the head of the active pool.
func (gs *GameState) Acting() (unit.ID, bool) { return gs.ActivePool().Head() }

// SetPool replaces the active phase's pool and empties the others.
func (gs *GameState) SetPool(ids []unit.ID) {
	for i := range gs.Pools {
		gs.Pools[i].Clear()
	}
	gs.Pools[gs.Phase] = NewPool(ids...)
}

// Snapshot returns a value copy of the state for external readers.
func (gs *GameState) Snapshot() Snapshot {
	s := Snapshot{
		Phase:     gs.Phase,
		FightSub:  gs.FightSub,
		FightSide: gs.FightSide,
		Player:    gs.Player,
		Turn:      gs.Turn,
		Steps:     gs.Steps,
		Pool:      gs.ActivePool().IDs(),
		Cols:      gs.Board.Cols(),
		Rows:      gs.Board.Rows(),
		Walls:     gs.Board.Walls(),
	}
	for _, u := range gs.Units.Alive() {
		s.Units = append(s.Units, UnitView{
			Unit:     u,
			Moved:    gs.Moved.Has(u.ID),
			Charged:  gs.Charged.Has(u.ID),
			Attacked: gs.Attacked.Has(u.ID),
			Fled:     gs.Fled.Has(u.ID),
		})
	}
	return s
}
