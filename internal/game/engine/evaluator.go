package engine

import (
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// Verdict is the episode's end state.
type Verdict struct {
	// Terminated is set when a side has no live units.
	Terminated bool
	// Truncated is set when the turn limit has been passed.
	Truncated bool
	// Winner is nil while the episode runs and on a draw.
	Winner *unit.Player
}

// Over reports whether the episode has ended.
func (v Verdict) Over() bool { return v.Terminated || v.Truncated }

func (v Verdict) String() string {
	switch {
	case !v.Over():
		return "running"
	case v.Winner == nil:
		return "draw"
	default:
		return fmt.Sprintf("player %d wins", *v.Winner)
	}
}

// Evaluate decides whether the episode is over. Elimination takes precedence
// over the turn limit. On truncation the side with more live units wins, then
// the side with more remaining hit points; otherwise it is a draw.
//
// Precondition: maxTurns >= 1.
func Evaluate(gs *state.GameState, maxTurns int) Verdict {
	n1, n2 := gs.Units.Count(unit.Player1), gs.Units.Count(unit.Player2)
	switch {
	case n1 == 0 && n2 == 0:
		return Verdict{Terminated: true}
	case n2 == 0:
		return Verdict{Terminated: true, Winner: player(unit.Player1)}
	case n1 == 0:
		return Verdict{Terminated: true, Winner: player(unit.Player2)}
	}
	if gs.Turn <= maxTurns {
		return Verdict{}
	}
	v := Verdict{Truncated: true}
	h1, h2 := gs.Units.HP(unit.Player1), gs.Units.HP(unit.Player2)
	switch {
	case n1 > n2, n1 == n2 && h1 > h2:
		v.Winner = player(unit.Player1)
	case n2 > n1, n1 == n2 && h2 > h1:
		v.Winner = player(unit.Player2)
	}
	return v
}

func player(p unit.Player) *unit.Player { return &p }
