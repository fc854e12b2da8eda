package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// Every roll is logged at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Intn forwards to the wrapped Source so a Roller can stand in wherever a Source is expected.
func (r *Roller) Intn(n int) int { return r.src.Intn(n) }

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// D6 rolls and logs one six-sided die tagged with the stage it decides
// ("hit", "wound", "save").
//
// Postcondition: returns a value in [1, 6].
func (r *Roller) D6(stage string) int {
	v := D6(r.src)
	r.logger.Debug("d6", zap.String("stage", stage), zap.Int("roll", v))
	return v
}

// Quantity rolls q and logs random draws. Fixed quantities are not logged.
func (r *Roller) Quantity(what string, q Quantity) int {
	v := q.Roll(r.src)
	if q.IsRandom() {
		r.logger.Debug("quantity roll",
			zap.String("what", what),
			zap.String("expression", q.String()),
			zap.Int("total", v),
		)
	}
	return v
}
