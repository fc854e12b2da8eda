package ai

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/state"
)

// ErrNoLegalAction is returned when a policy is asked to choose from an
// all-false mask.
var ErrNoLegalAction = errors.New("ai: no legal action")

// Policy picks an action index for the unit at the head of the pool.
type Policy interface {
	// Choose returns an index in [0, action.NumSlots).
	//
	// Postcondition: a nil error implies mask[index] is true, except for
	// HumanPolicy which forwards whatever the operator typed.
	Choose(snap state.Snapshot, mask action.Mask) (int, error)
}

// FirstLegal returns the lowest legal index.
func FirstLegal(mask action.Mask) (int, error) {
	for i, ok := range mask {
		if ok {
			return i, nil
		}
	}
	return 0, ErrNoLegalAction
}

// RandomPolicy chooses uniformly among legal slots.
type RandomPolicy struct {
	src dice.Source
}

// NewRandomPolicy returns a RandomPolicy drawing from src.
//
// Precondition: src must be non-nil.
func NewRandomPolicy(src dice.Source) *RandomPolicy {
	if src == nil {
		panic("ai.NewRandomPolicy: src must not be nil")
	}
	return &RandomPolicy{src: src}
}

// Choose implements Policy.
func (p *RandomPolicy) Choose(_ state.Snapshot, mask action.Mask) (int, error) {
	legal := mask.Legal()
	if len(legal) == 0 {
		return 0, ErrNoLegalAction
	}
	return legal[p.src.Intn(len(legal))], nil
}

// HumanPolicy prompts on out and reads one action index per line from in.
// Lines that are not an index are re-prompted; an illegal index is passed
// through so the engine reports it.
type HumanPolicy struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewHumanPolicy returns a HumanPolicy reading from in and prompting on out.
func NewHumanPolicy(in io.Reader, out io.Writer) *HumanPolicy {
	return &HumanPolicy{in: bufio.NewScanner(in), out: out}
}

// Choose implements Policy.
func (p *HumanPolicy) Choose(snap state.Snapshot, mask action.Mask) (int, error) {
	acting, ok := snap.Acting()
	if !ok {
		return 0, ErrNoLegalAction
	}
	for {
		fmt.Fprintf(p.out, "turn %d %s p%d unit %d (%s) at %s hp %d/%d legal %v> ",
			snap.Turn, snap.Phase, snap.Player, acting.ID, acting.Type, acting.Pos,
			acting.HP, acting.MaxHP, mask.Legal())
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, fmt.Errorf("ai.HumanPolicy: reading input: %w", err)
			}
			return 0, io.EOF
		}
		idx, err := strconv.Atoi(strings.TrimSpace(p.in.Text()))
		if err != nil || idx < 0 || idx >= action.NumSlots {
			fmt.Fprintf(p.out, "enter an index in [0,%d)\n", action.NumSlots)
			continue
		}
		return idx, nil
	}
}
