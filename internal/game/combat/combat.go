// Package combat resolves shooting and melee exchanges with the three-stage
// dice model (hit, wound, save) and exposes the matching expectation math.
//
// The probability helpers here are the single source of combat odds: target
// selection and any external reward or observation code call ExpectedDamage
// rather than re-deriving the tables.
package combat

import "github.com/cory-johannsen/hexwar/internal/game/catalog"

// NoSave is the effective save score of an attack that cannot be saved.
const NoSave = 7

// HitProbability is the chance a single attack hits: clamp(7-toHit, 0, 6)/6.
func HitProbability(toHit int) float64 {
	return float64(clamp(7-toHit, 0, 6)) / 6
}

// WoundThreshold returns the D6 score needed to wound from the strength versus
// toughness table.
//
// Precondition: strength >= 1, toughness >= 1.
// Postcondition: returns a value in [2, 6].
func WoundThreshold(strength, toughness int) int {
	switch {
	case strength >= 2*toughness:
		return 2
	case strength > toughness:
		return 3
	case strength == toughness:
		return 4
	case 2*strength <= toughness:
		return 6
	default:
		return 5
	}
}

// WoundProbability is (7 - WoundThreshold)/6.
func WoundProbability(strength, toughness int) float64 {
	return float64(7-WoundThreshold(strength, toughness)) / 6
}

// EffectiveSave applies armour penetration to the armour save, bounds it below
// by 2, and substitutes the invulnerable save when that is better.
// AP is zero or negative, so subtracting it worsens the save.
//
// Postcondition: returns a value in [2, NoSave].
func EffectiveSave(armour, invulnerable, ap int) int {
	eff := clamp(armour-ap, 2, NoSave)
	if invulnerable > 0 && invulnerable < eff {
		eff = invulnerable
	}
	return eff
}

// SaveFailProbability is (effectiveSave - 1)/6; an unsaveable attack always fails.
func SaveFailProbability(effectiveSave int) float64 {
	return float64(clamp(effectiveSave, 2, NoSave)-1) / 6
}

// ExpectedDamage returns the mean damage one attack of w deals to a unit of
// type target: hit × wound × saveFail × mean damage.
func ExpectedDamage(w *catalog.Weapon, target *catalog.UnitType) float64 {
	hit := HitProbability(w.ToHit)
	wound := WoundProbability(w.Strength, target.Toughness)
	fail := SaveFailProbability(EffectiveSave(target.Save, target.Invulnerable, w.AP))
	return hit * wound * fail * w.Damage.Expected()
}

// ExpectedVolley is ExpectedDamage scaled by the weapon's mean attack count.
func ExpectedVolley(w *catalog.Weapon, target *catalog.UnitType) float64 {
	return ExpectedDamage(w, target) * w.Attacks.Expected()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
