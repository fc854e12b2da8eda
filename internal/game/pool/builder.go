// Package pool computes activation pools: the ordered units eligible to act in
// the current phase, and each unit's ordered targets.
//
// The builder reads unit state only through the GameState's directory and
// static stats only through the catalog. It never mutates either.
package pool

import (
	"fmt"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/combat"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// MaxShootTargets is the number of shoot slots in the action encoding.
const MaxShootTargets = 5

// ChargeTarget is an enemy a unit can reach this Charge phase and the hex it
// would end on.
type ChargeTarget struct {
	Target unit.ID
	Dest   hexgrid.Coord
	Steps  int
}

// Builder evaluates eligibility against a catalog.
type Builder struct {
	cat *catalog.Catalog
}

// NewBuilder returns a Builder over cat.
//
// Precondition: cat must be non-nil.
func NewBuilder(cat *catalog.Catalog) *Builder {
	return &Builder{cat: cat}
}

// Build returns the live units eligible in gs's current phase, in directory
// order. In the Fight phase the sub-phase and side filters apply.
//
// Postcondition: err is non-nil only for configuration faults (unknown unit
// type or out-of-range weapon selection).
func (b *Builder) Build(gs *state.GameState) ([]unit.ID, error) {
	var ids []unit.ID
	for _, u := range gs.Units.Alive() {
		ok, err := b.eligible(gs, u)
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// Eligible reports whether id would be in a pool built now. Dead ids are never eligible.
func (b *Builder) Eligible(gs *state.GameState, id unit.ID) (bool, error) {
	u, ok := gs.Units.Get(id)
	if !ok {
		return false, nil
	}
	return b.eligible(gs, u)
}

// Prune drops ids from the active pool that are dead or no longer eligible.
// It never adds ids.
func (b *Builder) Prune(gs *state.GameState) (int, error) {
	var firstErr error
	n := gs.ActivePool().Retain(func(id unit.ID) bool {
		ok, err := b.Eligible(gs, id)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return ok
	})
	return n, firstErr
}

func (b *Builder) eligible(gs *state.GameState, u unit.Unit) (bool, error) {
	switch gs.Phase {
	case state.Move:
		return u.Player == gs.Player && !gs.Moved.Has(u.ID), nil

	case state.Shoot:
		if u.Player != gs.Player || gs.Fled.Has(u.ID) {
			return false, nil
		}
		w, err := b.weapon(u, catalog.Ranged)
		if err != nil || w == nil || w.Attacks.Max() == 0 {
			return false, err
		}
		targets, err := b.ShootTargets(gs, u.ID)
		return len(targets) > 0, err

	case state.Charge:
		if u.Player != gs.Player || gs.Fled.Has(u.ID) || gs.Charged.Has(u.ID) {
			return false, nil
		}
		if AdjacentToEnemy(gs, u) {
			return false, nil
		}
		targets, err := b.ChargeTargets(gs, u.ID)
		return len(targets) > 0, err

	case state.Fight:
		if gs.Attacked.Has(u.ID) {
			return false, nil
		}
		switch gs.FightSub {
		case state.FightChargers:
			if u.Player != gs.Player || !gs.Charged.Has(u.ID) {
				return false, nil
			}
		case state.FightAlternating:
			if u.Player != gs.FightSide {
				return false, nil
			}
		default:
			return false, nil
		}
		targets, err := b.MeleeTargets(gs, u.ID)
		return len(targets) > 0, err
	}
	return false, nil
}

// ShootTargets returns up to MaxShootTargets live enemies of id that are within
// its selected ranged weapon's range and in line of sight, in the attacker's
// priority order. Slot k of the shoot action addresses element k.
func (b *Builder) ShootTargets(gs *state.GameState, id unit.ID) ([]unit.ID, error) {
	u, err := gs.Units.Require(id)
	if err != nil {
		return nil, err
	}
	w, err := b.weapon(u, catalog.Ranged)
	if err != nil || w == nil {
		return nil, err
	}
	var cands []candidate
	for _, e := range gs.Units.AliveOf(u.Player.Opponent()) {
		r, err := gs.LoS.Get(u.ID, e.ID)
		if err != nil {
			return nil, err
		}
		if r.HasLoS && r.Distance <= w.Range {
			cands = append(cands, candidate{target: e, dist: r.Distance})
		}
	}
	ranked, err := b.rank(u, w, cands)
	if err != nil {
		return nil, err
	}
	if len(ranked) > MaxShootTargets {
		ranked = ranked[:MaxShootTargets]
	}
	return ids(ranked), nil
}

// MeleeTargets returns the live enemies adjacent to id in priority order for
// its selected melee weapon. A unit without a melee weapon has no targets.
func (b *Builder) MeleeTargets(gs *state.GameState, id unit.ID) ([]unit.ID, error) {
	u, err := gs.Units.Require(id)
	if err != nil {
		return nil, err
	}
	w, err := b.weapon(u, catalog.Melee)
	if err != nil || w == nil {
		return nil, err
	}
	var cands []candidate
	for _, e := range gs.Units.AliveOf(u.Player.Opponent()) {
		if hexgrid.Adjacent(u.Pos, e.Pos) {
			cands = append(cands, candidate{target: e, dist: 1})
		}
	}
	ranked, err := b.rank(u, w, cands)
	if err != nil {
		return nil, err
	}
	return ids(ranked), nil
}

// ChargeTargets returns the enemies id can end adjacent to by walking at most
// its charge reach around walls and other units, in priority order for its
// selected melee weapon. Each carries the nearest free hex next to the enemy
// (ties broken by column, then row).
func (b *Builder) ChargeTargets(gs *state.GameState, id unit.ID) ([]ChargeTarget, error) {
	u, err := gs.Units.Require(id)
	if err != nil {
		return nil, err
	}
	w, err := b.weapon(u, catalog.Melee)
	if err != nil || w == nil {
		return nil, err
	}
	ut, err := b.cat.UnitType(u.Type)
	if err != nil {
		return nil, err
	}
	reach := gs.Board.Distances(u.Pos, ut.ChargeReach(), func(c hexgrid.Coord) bool {
		return gs.Units.Occupied(c)
	})

	dests := make(map[unit.ID]ChargeTarget)
	var cands []candidate
	for _, e := range gs.Units.AliveOf(u.Player.Opponent()) {
		best, found := ChargeTarget{Target: e.ID}, false
		for _, n := range hexgrid.Neighbors(e.Pos) {
			steps, ok := reach[n]
			if !ok || n == u.Pos {
				continue
			}
			if !found || steps < best.Steps || (steps == best.Steps && coordLess(n, best.Dest)) {
				best.Dest, best.Steps, found = n, steps, true
			}
		}
		if found {
			dests[e.ID] = best
			cands = append(cands, candidate{target: e, dist: hexgrid.Distance(u.Pos, e.Pos)})
		}
	}
	ranked, err := b.rank(u, w, cands)
	if err != nil {
		return nil, err
	}
	out := make([]ChargeTarget, len(ranked))
	for i, c := range ranked {
		out[i] = dests[c.target.ID]
	}
	return out, nil
}

// AdjacentToEnemy reports whether any live enemy of u stands next to it.
func AdjacentToEnemy(gs *state.GameState, u unit.Unit) bool {
	for _, e := range gs.Units.AliveOf(u.Player.Opponent()) {
		if hexgrid.Adjacent(u.Pos, e.Pos) {
			return true
		}
	}
	return false
}

// weapon returns u's selected weapon of class, or nil when none is selected.
func (b *Builder) weapon(u unit.Unit, class catalog.WeaponClass) (*catalog.Weapon, error) {
	idx := u.SelectedRanged
	if class == catalog.Melee {
		idx = u.SelectedMelee
	}
	if idx == unit.NoWeapon {
		return nil, nil
	}
	w, err := combat.SelectedWeapon(b.cat, u, class)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return w, nil
}

func coordLess(a, c hexgrid.Coord) bool {
	if a.Col != c.Col {
		return a.Col < c.Col
	}
	return a.Row < c.Row
}
