package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Behavior is the faction-level target-priority hook. It is a closed set of
// variants switched on by the pool builder.
type Behavior int

const (
	// Swarm units engage the nearest enemy first.
	Swarm Behavior = iota
	// Elite units engage the enemy they expect to hurt most, relative to its remaining wounds.
	Elite
)

// String returns the content-file spelling of the behavior.
func (b Behavior) String() string {
	switch b {
	case Swarm:
		return "swarm"
	case Elite:
		return "elite"
	default:
		return "unknown"
	}
}

// UnmarshalYAML parses "swarm" or "elite"; an empty value means swarm.
func (b *Behavior) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "", "swarm":
		*b = Swarm
	case "elite":
		*b = Elite
	default:
		return fmt.Errorf("catalog: unknown behavior %q (line %d)", node.Value, node.Line)
	}
	return nil
}

// UnitType is the static stat block of one kind of unit.
type UnitType struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Faction   string   `yaml:"faction"`
	Behavior  Behavior `yaml:"behavior"`
	Move      int      `yaml:"move"`
	Toughness int      `yaml:"toughness"`
	// Save is the armour save score (2..6); 7 means no armour save.
	Save int `yaml:"save"`
	// Invulnerable is the invulnerable save score; 0 means none.
	Invulnerable int `yaml:"invulnerable"`
	Wounds       int `yaml:"wounds"`
	// Default loadout, as weapon codes. The first entry of each list is selected at reset.
	RangedWeapons []string `yaml:"ranged_weapons"`
	MeleeWeapons  []string `yaml:"melee_weapons"`
}

// ChargeReach returns how many hexes the unit may travel when charging.
func (u *UnitType) ChargeReach() int { return 2 * u.Move }

// Validate checks that the template satisfies basic invariants.
//
// Postcondition: Returns nil iff every stat is in range; returns an error on the first violation otherwise.
func (u *UnitType) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("unit type: id must not be empty")
	}
	if u.Name == "" {
		return fmt.Errorf("unit type %q: name must not be empty", u.ID)
	}
	if u.Move < 0 {
		return fmt.Errorf("unit type %q: move must be >= 0", u.ID)
	}
	if u.Toughness < 1 {
		return fmt.Errorf("unit type %q: toughness must be >= 1", u.ID)
	}
	if u.Save < 2 || u.Save > 7 {
		return fmt.Errorf("unit type %q: save must be 2-7, got %d", u.ID, u.Save)
	}
	if u.Invulnerable != 0 && (u.Invulnerable < 2 || u.Invulnerable > 6) {
		return fmt.Errorf("unit type %q: invulnerable must be 0 or 2-6, got %d", u.ID, u.Invulnerable)
	}
	if u.Wounds < 1 {
		return fmt.Errorf("unit type %q: wounds must be >= 1", u.ID)
	}
	return nil
}
