package unit

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
)

// ErrUnitNotFound is returned for ids that are not in the directory, i.e. dead
// or never placed.
var ErrUnitNotFound = errors.New("unit not found")

// Directory is the authoritative store of live units. It keeps units in a dense
// slice ordered by insertion with a sparse id index and a position index.
// Removal is the only representation of death.
//
// Directory is not safe for concurrent use; the engine owns it exclusively.
type Directory struct {
	dense    []Unit
	index    map[ID]int
	occupied map[hexgrid.Coord]ID

	onRemove []func(ID)
	onMove   []func(id ID, from, to hexgrid.Coord)
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{
		index:    make(map[ID]int),
		occupied: make(map[hexgrid.Coord]ID),
	}
}

// OnRemove registers fn to run inside every Remove, after the unit is gone.
func (d *Directory) OnRemove(fn func(ID)) { d.onRemove = append(d.onRemove, fn) }

// OnMove registers fn to run inside every position change.
func (d *Directory) OnMove(fn func(id ID, from, to hexgrid.Coord)) {
	d.onMove = append(d.onMove, fn)
}

// Get returns a copy of the live unit with id.
//
// Postcondition: ok is true iff the unit is alive.
func (d *Directory) Get(id ID) (Unit, bool) {
	i, ok := d.index[id]
	if !ok {
		return Unit{}, false
	}
	return d.dense[i].clone(), true
}

// Require is Get with an error naming the missing id.
//
// Postcondition: err wraps ErrUnitNotFound iff the unit is not alive.
func (d *Directory) Require(id ID) (Unit, error) {
	u, ok := d.Get(id)
	if !ok {
		return Unit{}, fmt.Errorf("%w: %d", ErrUnitNotFound, id)
	}
	return u, nil
}

// IsAlive reports whether id is present (and therefore has HP > 0).
func (d *Directory) IsAlive(id ID) bool {
	_, ok := d.index[id]
	return ok
}

// Put inserts u or replaces the unit with the same id.
//
// Precondition: u.HP > 0, u.Player is valid, and u.Pos is not held by another unit.
// Postcondition: Get(u.ID) returns u; move listeners fire when an existing unit's position changes.
func (d *Directory) Put(u Unit) error {
	if u.HP <= 0 {
		return fmt.Errorf("unit: Put %d with hp %d: dead units are removed, not stored", u.ID, u.HP)
	}
	if !u.Player.Valid() {
		return fmt.Errorf("unit: Put %d: invalid player %d", u.ID, u.Player)
	}
	if other, taken := d.occupied[u.Pos]; taken && other != u.ID {
		return fmt.Errorf("unit: Put %d: %s already occupied by unit %d", u.ID, u.Pos, other)
	}
	u = u.clone()
	i, exists := d.index[u.ID]
	if !exists {
		d.index[u.ID] = len(d.dense)
		d.dense = append(d.dense, u)
		d.occupied[u.Pos] = u.ID
		return nil
	}
	from := d.dense[i].Pos
	d.dense[i] = u
	if from != u.Pos {
		delete(d.occupied, from)
		d.occupied[u.Pos] = u.ID
		d.notifyMove(u.ID, from, u.Pos)
	}
	return nil
}

// Remove deletes the unit, fires remove listeners and reports whether it was present.
//
// Postcondition: IsAlive(id) is false.
func (d *Directory) Remove(id ID) bool {
	i, ok := d.index[id]
	if !ok {
		return false
	}
	delete(d.occupied, d.dense[i].Pos)
	copy(d.dense[i:], d.dense[i+1:])
	d.dense = d.dense[:len(d.dense)-1]
	delete(d.index, id)
	for j := i; j < len(d.dense); j++ {
		d.index[d.dense[j].ID] = j
	}
	for _, fn := range d.onRemove {
		fn(id)
	}
	return true
}

// Move relocates a live unit.
//
// Precondition: to is not occupied by another unit.
// Postcondition: move listeners have run when the position changed.
func (d *Directory) Move(id ID, to hexgrid.Coord) error {
	i, ok := d.index[id]
	if !ok {
		return fmt.Errorf("unit: Move: %w: %d", ErrUnitNotFound, id)
	}
	from := d.dense[i].Pos
	if from == to {
		return nil
	}
	if other, taken := d.occupied[to]; taken {
		return fmt.Errorf("unit: Move %d: %s already occupied by unit %d", id, to, other)
	}
	d.dense[i].Pos = to
	delete(d.occupied, from)
	d.occupied[to] = id
	d.notifyMove(id, from, to)
	return nil
}

// ApplyDamage subtracts amount from the unit's HP and removes it in the same
// call when HP drops to zero or below.
//
// Precondition: amount >= 0.
// Postcondition: killed is true iff the unit was removed; hpLeft is 0 when killed.
func (d *Directory) ApplyDamage(id ID, amount int) (hpLeft int, killed bool, err error) {
	if amount < 0 {
		panic("unit: ApplyDamage precondition violated: amount must be >= 0")
	}
	i, ok := d.index[id]
	if !ok {
		return 0, false, fmt.Errorf("unit: ApplyDamage: %w: %d", ErrUnitNotFound, id)
	}
	d.dense[i].HP -= amount
	if d.dense[i].HP <= 0 {
		d.Remove(id)
		return 0, true, nil
	}
	return d.dense[i].HP, false, nil
}

// Update applies fn to the stored unit. Position changes are routed through the
// occupancy index and move listeners; HP dropping to zero removes the unit.
//
// Postcondition: returns ErrUnitNotFound if id is not alive; on error from the
// position check the stored unit is unchanged.
func (d *Directory) Update(id ID, fn func(*Unit)) error {
	i, ok := d.index[id]
	if !ok {
		return fmt.Errorf("unit: Update: %w: %d", ErrUnitNotFound, id)
	}
	next := d.dense[i].clone()
	fn(&next)
	next.ID = id
	if next.HP <= 0 {
		d.Remove(id)
		return nil
	}
	return d.Put(next)
}

// Alive returns copies of all live units in insertion order.
func (d *Directory) Alive() []Unit {
	out := make([]Unit, len(d.dense))
	for i, u := range d.dense {
		out[i] = u.clone()
	}
	return out
}

// AliveOf returns copies of the live units of player p in insertion order.
func (d *Directory) AliveOf(p Player) []Unit {
	var out []Unit
	for _, u := range d.dense {
		if u.Player == p {
			out = append(out, u.clone())
		}
	}
	return out
}

// Count returns the number of live units of player p.
func (d *Directory) Count(p Player) int {
	n := 0
	for _, u := range d.dense {
		if u.Player == p {
			n++
		}
	}
	return n
}

// HP returns the total remaining hit points of player p.
func (d *Directory) HP(p Player) int {
	n := 0
	for _, u := range d.dense {
		if u.Player == p {
			n += u.HP
		}
	}
	return n
}

// Len returns the number of live units.
func (d *Directory) Len() int { return len(d.dense) }

// At returns the id of the unit occupying c.
func (d *Directory) At(c hexgrid.Coord) (ID, bool) {
	id, ok := d.occupied[c]
	return id, ok
}

// Occupied reports whether any unit stands on c.
func (d *Directory) Occupied(c hexgrid.Coord) bool {
	_, ok := d.occupied[c]
	return ok
}

func (d *Directory) notifyMove(id ID, from, to hexgrid.Coord) {
	for _, fn := range d.onMove {
		fn(id, from, to)
	}
}
