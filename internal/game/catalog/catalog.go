package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownWeapon is returned when a weapon code is not in the armory.
	ErrUnknownWeapon = errors.New("unknown weapon code")
	// ErrUnknownUnitType is returned when a unit type id is not in the catalog.
	ErrUnknownUnitType = errors.New("unknown unit type")
)

// Catalog holds all unit types and the weapon armory indexed by id/code.
// It is built once and read-only afterwards.
type Catalog struct {
	units   map[string]*UnitType
	weapons map[string]*Weapon
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		units:   make(map[string]*UnitType),
		weapons: make(map[string]*Weapon),
	}
}

// RegisterWeapon validates w and adds it to the armory.
//
// Postcondition: Weapon(w.Code) returns w; returns error if invalid or already registered.
func (c *Catalog) RegisterWeapon(w *Weapon) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if _, exists := c.weapons[w.Code]; exists {
		return fmt.Errorf("catalog: weapon code %q already registered", w.Code)
	}
	c.weapons[w.Code] = w
	return nil
}

// RegisterUnitType validates u, checks its default loadout against the armory
// and adds it. Weapons must be registered first.
//
// Postcondition: UnitType(u.ID) returns u; returns error on invalid data or an unknown weapon code.
func (c *Catalog) RegisterUnitType(u *UnitType) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if _, exists := c.units[u.ID]; exists {
		return fmt.Errorf("catalog: unit type %q already registered", u.ID)
	}
	if _, err := c.resolveCodes(u.RangedWeapons, Ranged); err != nil {
		return fmt.Errorf("unit type %q: %w", u.ID, err)
	}
	if _, err := c.resolveCodes(u.MeleeWeapons, Melee); err != nil {
		return fmt.Errorf("unit type %q: %w", u.ID, err)
	}
	c.units[u.ID] = u
	return nil
}

// Weapon returns the weapon for code.
//
// Postcondition: err wraps ErrUnknownWeapon iff code is not registered.
func (c *Catalog) Weapon(code string) (*Weapon, error) {
	w, ok := c.weapons[code]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWeapon, code)
	}
	return w, nil
}

// UnitType returns the unit type with id.
//
// Postcondition: err wraps ErrUnknownUnitType iff id is not registered.
func (c *Catalog) UnitType(id string) (*UnitType, error) {
	u, ok := c.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnitType, id)
	}
	return u, nil
}

// UnitTypeIDs returns all registered unit type ids, sorted.
func (c *Catalog) UnitTypeIDs() []string {
	out := make([]string, 0, len(c.units))
	for id := range c.units {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WeaponCount returns the number of weapons in the armory.
func (c *Catalog) WeaponCount() int { return len(c.weapons) }

// Loadout resolves the weapon codes a unit carries: the type's default lists,
// each replaced by the matching override when that override is non-nil.
//
// Postcondition: every returned code exists in the armory with the right class,
// or err wraps ErrUnknownWeapon / ErrUnknownUnitType.
func (c *Catalog) Loadout(typeID string, ranged, melee []string) (rangedCodes, meleeCodes []string, err error) {
	u, err := c.UnitType(typeID)
	if err != nil {
		return nil, nil, err
	}
	rangedCodes, meleeCodes = u.RangedWeapons, u.MeleeWeapons
	if ranged != nil {
		rangedCodes = ranged
	}
	if melee != nil {
		meleeCodes = melee
	}
	if _, err := c.resolveCodes(rangedCodes, Ranged); err != nil {
		return nil, nil, err
	}
	if _, err := c.resolveCodes(meleeCodes, Melee); err != nil {
		return nil, nil, err
	}
	return append([]string(nil), rangedCodes...), append([]string(nil), meleeCodes...), nil
}

func (c *Catalog) resolveCodes(codes []string, class WeaponClass) ([]*Weapon, error) {
	out := make([]*Weapon, 0, len(codes))
	for _, code := range codes {
		w, err := c.Weapon(code)
		if err != nil {
			return nil, err
		}
		if w.Class != class {
			return nil, fmt.Errorf("weapon %q is %s, listed as %s", code, w.Class, class)
		}
		out = append(out, w)
	}
	return out, nil
}

// LoadDir loads every *.yaml file in weaponsDir as a list of weapons and every
// *.yaml file in unitsDir as a list of unit types, in that order.
//
// Precondition: both directories are readable.
// Postcondition: returns a fully validated Catalog or the first error encountered.
func LoadDir(weaponsDir, unitsDir string) (*Catalog, error) {
	c := New()
	err := eachYAML(weaponsDir, func(path string, data []byte) error {
		var ws []*Weapon
		if err := yaml.Unmarshal(data, &ws); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, w := range ws {
			if err := c.RegisterWeapon(w); err != nil {
				return fmt.Errorf("loading %q: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = eachYAML(unitsDir, func(path string, data []byte) error {
		var us []*UnitType
		if err := yaml.Unmarshal(data, &us); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		for _, u := range us {
			if err := c.RegisterUnitType(u); err != nil {
				return fmt.Errorf("loading %q: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func eachYAML(dir string, fn func(path string, data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("catalog: reading dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("catalog: reading %q: %w", path, err)
		}
		if err := fn(path, data); err != nil {
			return err
		}
	}
	return nil
}
