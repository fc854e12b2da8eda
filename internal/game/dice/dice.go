// Package dice provides the randomness abstraction, dice expressions and
// roll-result types used by the hexwar combat resolver.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string // original expression string, e.g. "2D3+1"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier, floored at zero.
//
// Postcondition: return value == max(0, sum(r.Dice) + r.Modifier).
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	if total < 0 {
		return 0
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"2D3+1 → [2 3] +1 = 6"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for dice rolls.
//
// The engine is single-threaded; implementations need not be safe for
// concurrent use unless documented otherwise.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// D6 rolls a single six-sided die using src.
//
// Postcondition: returns a value in [1, 6].
func D6(src Source) int {
	return src.Intn(6) + 1
}
