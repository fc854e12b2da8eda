// Package scenario loads the starting layout of an episode.
//
// A scenario file is YAML (JSON is accepted since it is a YAML subset):
//
//	name: skirmish
//	board: {cols: 12, rows: 12, walls: [{col: 5, row: 5}]}
//	units:
//	  - {id: 1, unit_type: intercessor, player: 1, col: 0, row: 0}
//	  - id: 2
//	    unit_type: termagant
//	    player: 2
//	    col: 5
//	    row: 5
//	    weapons: {rng_weapon_codes: [fleshborer], cc_weapon_codes: [claws]}
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
)

// Scenario is an immutable starting layout. The engine never writes to it, so
// resetting from the same value always restores the same episode start.
type Scenario struct {
	Name  string     `yaml:"name"`
	Board *Board     `yaml:"board,omitempty"`
	Units []UnitSpec `yaml:"units"`
}

// Board overrides the configured board extent and adds walls.
type Board struct {
	Cols  int             `yaml:"cols"`
	Rows  int             `yaml:"rows"`
	Walls []hexgrid.Coord `yaml:"walls"`
}

// UnitSpec places one unit.
type UnitSpec struct {
	ID       int      `yaml:"id"`
	UnitType string   `yaml:"unit_type"`
	Player   int      `yaml:"player"`
	Col      int      `yaml:"col"`
	Row      int      `yaml:"row"`
	Weapons  *Weapons `yaml:"weapons,omitempty"`
}

// Weapons overrides a unit type's default loadout. A nil list keeps the
// default for that class; an empty list carries nothing of that class.
type Weapons struct {
	Ranged []string `yaml:"rng_weapon_codes"`
	Melee  []string `yaml:"cc_weapon_codes"`
}

// Pos returns the starting hex.
func (u UnitSpec) Pos() hexgrid.Coord { return hexgrid.Coord{Col: u.Col, Row: u.Row} }

// Overrides returns the ranged and melee override lists, nil when absent.
func (u UnitSpec) Overrides() (ranged, melee []string) {
	if u.Weapons == nil {
		return nil, nil
	}
	return u.Weapons.Ranged, u.Weapons.Melee
}

// Load reads and parses the scenario file at path. It does not validate
// against a catalog; call Validate for that.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &s, nil
}

// Validate checks the scenario against cat: unit ids are positive and unique,
// players are 1 or 2, positions are distinct, every unit type exists and every
// weapon override names an armory weapon of the right class.
//
// Postcondition: returns nil iff the scenario can be placed; otherwise one
// error joining every violation.
func (s *Scenario) Validate(cat *catalog.Catalog) error {
	var errs []error
	if len(s.Units) == 0 {
		errs = append(errs, errors.New("scenario has no units"))
	}
	ids := make(map[int]bool, len(s.Units))
	cells := make(map[hexgrid.Coord]int, len(s.Units))
	for i, u := range s.Units {
		where := fmt.Sprintf("units[%d] (id %d)", i, u.ID)
		if u.ID <= 0 {
			errs = append(errs, fmt.Errorf("%s: id must be > 0", where))
		}
		if ids[u.ID] {
			errs = append(errs, fmt.Errorf("%s: duplicate id", where))
		}
		ids[u.ID] = true
		if u.Player != 1 && u.Player != 2 {
			errs = append(errs, fmt.Errorf("%s: player must be 1 or 2, got %d", where, u.Player))
		}
		if other, taken := cells[u.Pos()]; taken {
			errs = append(errs, fmt.Errorf("%s: %s already holds unit %d", where, u.Pos(), other))
		}
		cells[u.Pos()] = u.ID
		ranged, melee := u.Overrides()
		if _, _, err := cat.Loadout(u.UnitType, ranged, melee); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}
	if s.Board != nil {
		if _, err := hexgrid.NewBoard(s.Board.Cols, s.Board.Rows, s.Board.Walls); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
