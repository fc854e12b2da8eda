package dice

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Quantity is a weapon characteristic that is either a fixed number ("2") or a
// dice expression ("D6", "D3+1"). Attack counts and damage values use it.
//
// The zero value is the fixed quantity 0.
type Quantity struct {
	fixed int
	expr  *Expression
}

// Fixed returns a constant Quantity.
//
// Precondition: n >= 0.
func Fixed(n int) Quantity {
	if n < 0 {
		panic("dice: Fixed precondition violated: n must be >= 0")
	}
	return Quantity{fixed: n}
}

// ParseQuantity parses either a non-negative integer or a dice expression.
//
// Postcondition: returns a Quantity whose String() round-trips the input, or an error.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Quantity{}, fmt.Errorf("dice: quantity %q must not be negative", s)
		}
		return Quantity{fixed: n}, nil
	}
	e, err := Parse(s)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{expr: &e}, nil
}

// MustQuantity parses s and panics on error.
func MustQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic("dice: MustQuantity failed for " + s + ": " + err.Error())
	}
	return q
}

// IsZero reports whether the quantity is the constant 0.
func (q Quantity) IsZero() bool { return q.expr == nil && q.fixed == 0 }

// IsRandom reports whether rolling the quantity consults a Source.
func (q Quantity) IsRandom() bool { return q.expr != nil }

// Expected returns the mean value, used wherever a non-stochastic figure is needed.
func (q Quantity) Expected() float64 {
	if q.expr != nil {
		return q.expr.Expected()
	}
	return float64(q.fixed)
}

// Max returns the largest value the quantity can take.
func (q Quantity) Max() int {
	if q.expr != nil {
		return max(0, q.expr.Count*q.expr.Sides+q.expr.Modifier)
	}
	return q.fixed
}

// Roll draws a concrete value. Fixed quantities never touch src.
//
// Postcondition: result >= 0.
func (q Quantity) Roll(src Source) int {
	if q.expr == nil {
		return q.fixed
	}
	return Roll(*q.expr, src).Total()
}

// String returns the textual form used in content files.
func (q Quantity) String() string {
	if q.expr != nil {
		return q.expr.Raw
	}
	return strconv.Itoa(q.fixed)
}

// UnmarshalYAML lets content files write quantities as scalars ("D6" or 2).
func (q *Quantity) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dice: quantity must be a scalar (line %d)", node.Line)
	}
	parsed, err := ParseQuantity(node.Value)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// MarshalYAML writes the quantity in its textual form.
func (q Quantity) MarshalYAML() (any, error) {
	return q.String(), nil
}
