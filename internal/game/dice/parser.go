package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression represents a parsed dice expression ready to be rolled.
// Precondition: Count >= 1, Sides >= 2 after successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative)
}

// Expected returns the mean of the rolled total. Totals floor at zero, so when
// the modifier can take the lowest roll below zero the floored outcomes are
// averaged over the distribution of the dice sum.
//
// Postcondition: returns a value >= 0.
func (e Expression) Expected() float64 {
	if e.Count+e.Modifier >= 0 {
		return float64(e.Count)*float64(e.Sides+1)/2 + float64(e.Modifier)
	}
	// dist[s] is the probability that the dice sum to s.
	dist := []float64{1}
	for range e.Count {
		next := make([]float64, len(dist)+e.Sides)
		for s, p := range dist {
			if p == 0 {
				continue
			}
			for face := 1; face <= e.Sides; face++ {
				next[s+face] += p / float64(e.Sides)
			}
		}
		dist = next
	}
	var mean float64
	for s, p := range dist {
		mean += p * float64(max(0, s+e.Modifier))
	}
	return mean
}

// Parse parses a dice expression string into an Expression.
// Supported forms (case-insensitive): "D6", "d3", "2D6", "D3+1", "2d6-1".
// Precondition: expr must be a non-empty string.
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	raw := strings.TrimSpace(expr)
	if raw == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	s := strings.ToLower(raw)

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		return Expression{}, fmt.Errorf("dice: missing 'd' in expression %q", raw)
	}

	// Count defaults to 1 when omitted ("D6").
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		var err error
		count, err = strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", raw, err)
		}
		if count <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", raw)
		}
	}

	rest := s[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", raw, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", raw)
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", raw, err)
		}
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Useful for package-level values and tests.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
