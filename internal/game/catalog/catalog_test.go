package catalog_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/dice"
)

const weaponsYAML = `
- code: bolter
  name: Boltgun
  class: ranged
  range: 8
  attacks: 2
  to_hit: 3
  strength: 4
  ap: 0
  damage: 1
- code: plasma
  name: Plasma gun
  class: ranged
  range: 8
  attacks: D3
  to_hit: 3
  strength: 8
  ap: -3
  damage: 2
- code: chainsword
  name: Chainsword
  class: melee
  attacks: 4
  to_hit: 3
  strength: 4
  ap: -1
  damage: 1
`

const unitsYAML = `
- id: intercessor
  name: Intercessor
  faction: marines
  behavior: elite
  move: 3
  toughness: 4
  save: 3
  wounds: 2
  ranged_weapons: [bolter, plasma]
  melee_weapons: [chainsword]
- id: gaunt
  name: Termagant
  faction: swarm
  move: 3
  toughness: 3
  save: 5
  wounds: 1
  melee_weapons: [chainsword]
`

func writeContent(t *testing.T, weapons, units string) (string, string) {
	t.Helper()
	wdir, udir := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wdir, "weapons.yaml"), []byte(weapons), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(udir, "units.yaml"), []byte(units), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(udir, "README.txt"), []byte("ignored"), 0644))
	return wdir, udir
}

func TestLoadDir(t *testing.T) {
	wdir, udir := writeContent(t, weaponsYAML, unitsYAML)
	c, err := catalog.LoadDir(wdir, udir)
	require.NoError(t, err)

	assert.Equal(t, 3, c.WeaponCount())
	assert.Equal(t, []string{"gaunt", "intercessor"}, c.UnitTypeIDs())

	u, err := c.UnitType("intercessor")
	require.NoError(t, err)
	assert.Equal(t, catalog.Elite, u.Behavior)
	assert.Equal(t, 6, u.ChargeReach())

	g, err := c.UnitType("gaunt")
	require.NoError(t, err)
	assert.Equal(t, catalog.Swarm, g.Behavior, "missing behavior defaults to swarm")

	p, err := c.Weapon("plasma")
	require.NoError(t, err)
	assert.Equal(t, "D3", p.Attacks.String())
	assert.Equal(t, -3, p.AP)
	assert.Equal(t, 8, p.Reach())

	cs, err := c.Weapon("chainsword")
	require.NoError(t, err)
	assert.Equal(t, 1, cs.Reach())
}

func TestLoadDir_UnknownDefaultWeaponIsFatal(t *testing.T) {
	wdir, udir := writeContent(t, weaponsYAML, `
- id: broken
  name: Broken
  move: 3
  toughness: 4
  save: 3
  wounds: 1
  ranged_weapons: [lascannon]
`)
	_, err := catalog.LoadDir(wdir, udir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrUnknownWeapon))
	assert.Contains(t, err.Error(), "lascannon")
}

func TestLoadDir_WrongClassIsRejected(t *testing.T) {
	wdir, udir := writeContent(t, weaponsYAML, `
- id: confused
  name: Confused
  move: 3
  toughness: 4
  save: 3
  wounds: 1
  ranged_weapons: [chainsword]
`)
	_, err := catalog.LoadDir(wdir, udir)
	assert.Error(t, err)
}

func TestLoadDir_BadBehavior(t *testing.T) {
	wdir, udir := writeContent(t, weaponsYAML, `
- id: x
  name: X
  behavior: sneaky
  move: 3
  toughness: 4
  save: 3
  wounds: 1
`)
	_, err := catalog.LoadDir(wdir, udir)
	assert.Error(t, err)
}

func TestLoadDir_MissingDir(t *testing.T) {
	_, err := catalog.LoadDir("/nonexistent/weapons", "/nonexistent/units")
	assert.Error(t, err)
}

func TestLoadout_Overrides(t *testing.T) {
	wdir, udir := writeContent(t, weaponsYAML, unitsYAML)
	c, err := catalog.LoadDir(wdir, udir)
	require.NoError(t, err)

	r, m, err := c.Loadout("intercessor", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"bolter", "plasma"}, r)
	assert.Equal(t, []string{"chainsword"}, m)

	r, _, err = c.Loadout("intercessor", []string{"plasma"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"plasma"}, r)

	_, _, err = c.Loadout("intercessor", []string{"meltagun"}, nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownWeapon)

	_, _, err = c.Loadout("ork", nil, nil)
	assert.ErrorIs(t, err, catalog.ErrUnknownUnitType)
}

func TestWeapon_Validate(t *testing.T) {
	w := &catalog.Weapon{Code: "x", Name: "X", Class: catalog.Ranged, Range: 0, ToHit: 7, Strength: 0, AP: 1}
	err := w.Validate()
	require.Error(t, err)
	for _, frag := range []string{"range", "to_hit", "strength", "ap", "damage"} {
		assert.Contains(t, err.Error(), frag)
	}

	ok := &catalog.Weapon{Code: "k", Name: "Knife", Class: catalog.Melee, ToHit: 4, Strength: 3, Damage: dice.Fixed(1)}
	assert.NoError(t, ok.Validate())
}

func TestRegister_Duplicates(t *testing.T) {
	c := catalog.New()
	w := &catalog.Weapon{Code: "k", Name: "Knife", Class: catalog.Melee, ToHit: 4, Strength: 3, Damage: dice.Fixed(1)}
	require.NoError(t, c.RegisterWeapon(w))
	assert.Error(t, c.RegisterWeapon(w))

	u := &catalog.UnitType{ID: "a", Name: "A", Move: 1, Toughness: 3, Save: 4, Wounds: 1, MeleeWeapons: []string{"k"}}
	require.NoError(t, c.RegisterUnitType(u))
	assert.Error(t, c.RegisterUnitType(u))
}
