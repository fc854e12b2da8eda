// Package unit owns the runtime state of every unit on the board. The Directory
// is the only place hit points and positions live: a unit is alive exactly when
// the Directory holds it.
package unit

import (
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
)

// ID identifies a unit for the length of an episode.
type ID int

// Player identifies one of the two sides.
type Player int

const (
	Player1 Player = 1
	Player2 Player = 2
)

// Opponent returns the other side.
//
// Precondition: p is Player1 or Player2.
func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// Valid reports whether p names one of the two sides.
func (p Player) Valid() bool { return p == Player1 || p == Player2 }

// NoWeapon marks an unselected weapon slot.
const NoWeapon = -1

// Unit is the mutable runtime state of one live unit. Static stats stay in the
// catalog and are looked up by Type; weapon lists hold armory codes.
type Unit struct {
	ID     ID
	Type   string
	Player Player
	Pos    hexgrid.Coord
	HP     int
	MaxHP  int

	RangedWeapons  []string
	MeleeWeapons   []string
	SelectedRanged int // index into RangedWeapons, or NoWeapon
	SelectedMelee  int // index into MeleeWeapons, or NoWeapon

	// ShotsLeft counts the remaining shots of an in-progress shooting
	// activation; 0 when no activation is running.
	ShotsLeft int
}

// WeaponCode returns the code of the selected weapon of the given class.
//
// Postcondition: ok is false when nothing is selected or the index is out of range.
func (u Unit) WeaponCode(class catalog.WeaponClass) (code string, ok bool) {
	list, idx := u.RangedWeapons, u.SelectedRanged
	if class == catalog.Melee {
		list, idx = u.MeleeWeapons, u.SelectedMelee
	}
	if idx < 0 || idx >= len(list) {
		return "", false
	}
	return list[idx], true
}

func (u Unit) String() string {
	return fmt.Sprintf("unit %d (%s, player %d) at %s hp %d/%d", u.ID, u.Type, u.Player, u.Pos, u.HP, u.MaxHP)
}

func (u Unit) clone() Unit {
	u.RangedWeapons = append([]string(nil), u.RangedWeapons...)
	u.MeleeWeapons = append([]string(nil), u.MeleeWeapons...)
	return u
}
