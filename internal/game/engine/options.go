package engine

import (
	"errors"
	"fmt"
)

// Options are the engine knobs that do not come from the scenario.
type Options struct {
	// MaxTurns is the last full turn played before truncation.
	MaxTurns int
	// IllegalActionPenalty is the reward returned for a masked action. It should be <= 0.
	IllegalActionPenalty float64
	// WinReward and LossReward are paid on the final step, from the acting player's view.
	WinReward  float64
	LossReward float64
	// BoardCols and BoardRows size the board when the scenario has no board block.
	BoardCols int
	BoardRows int
}

// DefaultOptions returns the settings used when no configuration is supplied.
func DefaultOptions() Options {
	return Options{
		MaxTurns:             5,
		IllegalActionPenalty: -0.1,
		WinReward:            1,
		LossReward:           -1,
		BoardCols:            12,
		BoardRows:            12,
	}
}

// Validate reports every out-of-range option.
func (o Options) Validate() error {
	var errs []error
	if o.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("max turns must be >= 1, got %d", o.MaxTurns))
	}
	if o.IllegalActionPenalty > 0 {
		errs = append(errs, fmt.Errorf("illegal action penalty must be <= 0, got %g", o.IllegalActionPenalty))
	}
	if o.BoardCols < 1 || o.BoardRows < 1 {
		errs = append(errs, fmt.Errorf("board must be at least 1x1, got %dx%d", o.BoardCols, o.BoardRows))
	}
	return errors.Join(errs...)
}
