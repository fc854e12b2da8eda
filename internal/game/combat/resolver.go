package combat

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// ErrWeaponSelection is returned when the attacker's selected weapon index does
// not name a weapon. It is a configuration fault, never silently defaulted.
var ErrWeaponSelection = errors.New("invalid weapon selection")

// Roller is the subset of *dice.Roller the resolver needs.
type Roller interface {
	D6(stage string) int
	Quantity(what string, q dice.Quantity) int
}

// AttackRoll records the dice of a single attack.
type AttackRoll struct {
	HitRoll   int
	Hit       bool
	WoundRoll int // 0 when the attack missed
	Wounded   bool
	SaveRoll  int // 0 when no save was rolled
	Saved     bool
	Damage    int // damage applied to the target
}

// Outcome summarises an exchange between one attacker and one target.
type Outcome struct {
	AttackerID   unit.ID
	TargetID     unit.ID
	WeaponCode   string
	Rolls        []AttackRoll
	Hits         int
	Wounds       int
	DamageDealt  int
	TargetKilled bool
	// AttacksUsed is len(Rolls); attacks requested after the target died are not spent.
	AttacksUsed int
}

// SelectedWeapon returns the catalog entry of u's selected weapon of class.
//
// Postcondition: err wraps ErrWeaponSelection when the index is unset or out
// of range, or catalog.ErrUnknownWeapon when the code is not in the armory.
func SelectedWeapon(cat *catalog.Catalog, u unit.Unit, class catalog.WeaponClass) (*catalog.Weapon, error) {
	code, ok := u.WeaponCode(class)
	if !ok {
		return nil, fmt.Errorf("%w: unit %d %s index %d", ErrWeaponSelection, u.ID, class, selectedIndex(u, class))
	}
	w, err := cat.Weapon(code)
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", u.ID, err)
	}
	return w, nil
}

func selectedIndex(u unit.Unit, class catalog.WeaponClass) int {
	if class == catalog.Melee {
		return u.SelectedMelee
	}
	return u.SelectedRanged
}

// Resolve rolls up to attacks attacks from attackerID's selected weapon of class
// against targetID, applying damage through dir. Lethal damage removes the
// target inside dir.ApplyDamage; remaining attacks are then not rolled.
//
// Precondition: attacks >= 0; both units alive.
// Postcondition: on error nothing has been mutated.
func Resolve(
	dir *unit.Directory,
	cat *catalog.Catalog,
	attackerID, targetID unit.ID,
	class catalog.WeaponClass,
	attacks int,
	roll Roller,
) (Outcome, error) {
	attacker, err := dir.Require(attackerID)
	if err != nil {
		return Outcome{}, err
	}
	target, err := dir.Require(targetID)
	if err != nil {
		return Outcome{}, err
	}
	w, err := SelectedWeapon(cat, attacker, class)
	if err != nil {
		return Outcome{}, err
	}
	tt, err := cat.UnitType(target.Type)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{AttackerID: attackerID, TargetID: targetID, WeaponCode: w.Code}
	save := EffectiveSave(tt.Save, tt.Invulnerable, w.AP)
	threshold := WoundThreshold(w.Strength, tt.Toughness)

	for i := 0; i < attacks && !out.TargetKilled; i++ {
		r := rollAttack(w, threshold, save, roll)
		if r.Hit {
			out.Hits++
		}
		if r.Wounded {
			out.Wounds++
		}
		if r.Damage > 0 {
			_, killed, err := dir.ApplyDamage(targetID, r.Damage)
			if err != nil {
				return out, err
			}
			out.DamageDealt += r.Damage
			out.TargetKilled = killed
		}
		out.Rolls = append(out.Rolls, r)
	}
	out.AttacksUsed = len(out.Rolls)
	return out, nil
}

func rollAttack(w *catalog.Weapon, threshold, save int, roll Roller) AttackRoll {
	var r AttackRoll
	r.HitRoll = roll.D6("hit")
	r.Hit = r.HitRoll >= w.ToHit
	if !r.Hit {
		return r
	}
	r.WoundRoll = roll.D6("wound")
	r.Wounded = r.WoundRoll >= threshold
	if !r.Wounded {
		return r
	}
	if save < NoSave {
		r.SaveRoll = roll.D6("save")
		r.Saved = r.SaveRoll >= save
	}
	if !r.Saved {
		r.Damage = roll.Quantity("damage", w.Damage)
	}
	return r
}
