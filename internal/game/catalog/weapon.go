// Package catalog holds the immutable unit-type and weapon tables. Runtime unit
// state refers to entries by id and code; nothing here is ever mutated after load.
package catalog

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/dice"
)

// WeaponClass distinguishes ranged weapons from close-combat weapons.
type WeaponClass string

const (
	// Ranged weapons are used in the shooting phase.
	Ranged WeaponClass = "ranged"
	// Melee weapons are used in the fight phase.
	Melee WeaponClass = "melee"
)

// Weapon is a weapon stat block loaded from YAML.
type Weapon struct {
	Code  string      `yaml:"code"`
	Name  string      `yaml:"name"`
	Class WeaponClass `yaml:"class"`
	// Range in hexes; melee weapons always reach adjacent hexes only.
	Range   int           `yaml:"range"`
	Attacks dice.Quantity `yaml:"attacks"`
	// ToHit is the D6 score needed to hit (BS for ranged, WS for melee).
	ToHit    int `yaml:"to_hit"`
	Strength int `yaml:"strength"`
	// AP is zero or negative; it worsens the target's armour save.
	AP     int           `yaml:"ap"`
	Damage dice.Quantity `yaml:"damage"`
}

// IsMelee reports whether the weapon is used in the fight phase.
func (w *Weapon) IsMelee() bool { return w.Class == Melee }

// Reach returns the maximum hex distance at which the weapon can attack.
func (w *Weapon) Reach() int {
	if w.IsMelee() {
		return 1
	}
	return w.Range
}

// Validate checks that the Weapon satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (w *Weapon) Validate() error {
	var errs []error
	if w.Code == "" {
		errs = append(errs, errors.New("code must not be empty"))
	}
	if w.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch w.Class {
	case Ranged:
		if w.Range < 1 {
			errs = append(errs, fmt.Errorf("ranged weapon range must be >= 1, got %d", w.Range))
		}
	case Melee:
	default:
		errs = append(errs, fmt.Errorf("class must be %q or %q, got %q", Ranged, Melee, w.Class))
	}
	if w.ToHit < 1 || w.ToHit > 6 {
		errs = append(errs, fmt.Errorf("to_hit must be 1-6, got %d", w.ToHit))
	}
	if w.Strength < 1 {
		errs = append(errs, fmt.Errorf("strength must be >= 1, got %d", w.Strength))
	}
	if w.AP > 0 {
		errs = append(errs, fmt.Errorf("ap must be <= 0, got %d", w.AP))
	}
	if w.Damage.IsZero() {
		errs = append(errs, errors.New("damage must not be zero"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("weapon %q: %w", w.Code, errors.Join(errs...))
	}
	return nil
}
