package ai

import (
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/hexgrid"
	"github.com/cory-johannsen/hexwar/internal/game/state"
)

// World is what a policy knows at one decision point: the snapshot, the
// legal mask and the acting unit.
//
// Invariant: Self is the head of Snap.Pool.
type World struct {
	Snap state.Snapshot
	Mask action.Mask
	Self state.UnitView
}

// NewWorld builds the decision context for the unit at the head of the pool.
//
// Postcondition: ok is false when the pool is empty.
func NewWorld(snap state.Snapshot, mask action.Mask) (*World, bool) {
	self, ok := snap.Acting()
	if !ok {
		return nil, false
	}
	return &World{Snap: snap, Mask: mask, Self: self}, true
}

// Enemies returns the live enemies of the acting unit.
func (w *World) Enemies() []state.UnitView { return w.Snap.Enemies(w.Self.Player) }

// Allies returns the acting unit's live teammates, excluding itself.
func (w *World) Allies() []state.UnitView {
	var out []state.UnitView
	for _, u := range w.Snap.Units {
		if u.Player == w.Self.Player && u.ID != w.Self.ID {
			out = append(out, u)
		}
	}
	return out
}

// NearestEnemy returns the closest live enemy; ties go to the lower id.
//
// Postcondition: ok is false when no enemy is alive.
func (w *World) NearestEnemy() (state.UnitView, bool) {
	var best state.UnitView
	found := false
	bestDist := 0
	for _, e := range w.Enemies() {
		d := hexgrid.Distance(w.Self.Pos, e.Pos)
		if !found || d < bestDist || (d == bestDist && e.ID < best.ID) {
			best, bestDist, found = e, d, true
		}
	}
	return best, found
}

// Legal reports whether any slot of the given action is open.
func (w *World) Legal(act string) bool {
	for _, s := range w.slotsFor(act) {
		if w.Mask[s] {
			return true
		}
	}
	return false
}

// slotsFor returns the candidate slots for an operator action in preference
// order. Movement slots are ordered by how they change the distance to the
// nearest enemy.
func (w *World) slotsFor(act string) []int {
	switch act {
	case ActionShoot:
		out := make([]int, 0, action.SlotCharge-action.SlotShoot)
		for s := action.SlotShoot; s < action.SlotCharge; s++ {
			out = append(out, s)
		}
		return out
	case ActionCharge:
		return []int{action.SlotCharge}
	case ActionFight:
		return []int{action.SlotFight}
	case ActionWait:
		return []int{action.SlotWait}
	case ActionAdvance, ActionRetreat:
		return w.moveSlots(act == ActionAdvance)
	default:
		return nil
	}
}

// moveSlots returns the move slots whose first step changes the distance to
// the nearest enemy in the wanted direction, best first.
func (w *World) moveSlots(closer bool) []int {
	target, ok := w.NearestEnemy()
	if !ok {
		return nil
	}
	type option struct{ slot, gain int }
	here := hexgrid.Distance(w.Self.Pos, target.Pos)
	var opts []option
	for s := action.SlotNorth; s <= action.SlotWest; s++ {
		next := hexgrid.Step(w.Self.Pos, hexgrid.Direction(s))
		gain := here - hexgrid.Distance(next, target.Pos)
		if !closer {
			gain = -gain
		}
		if gain > 0 {
			opts = append(opts, option{slot: s, gain: gain})
		}
	}
	slices.SortStableFunc(opts, func(a, b option) int { return b.gain - a.gain })
	out := make([]int, len(opts))
	for i, o := range opts {
		out[i] = o.slot
	}
	return out
}

// LTable renders the world as the Lua table handed to precondition hooks:
//
//	ctx.phase, ctx.turn, ctx.player
//	ctx.unit    {id, type, hp, hp_max, col, row, moved, charged, fled, attacked}
//	ctx.enemies array of {id, type, hp, hp_max, col, row, distance}
//	ctx.allies  number of live teammates
//	ctx.nearest distance to the nearest enemy, -1 when none
//	ctx.legal   {shoot, charge, fight, advance, retreat, wait}
func (w *World) LTable(L *lua.LState) *lua.LTable {
	ctx := L.NewTable()
	L.SetField(ctx, "phase", lua.LString(w.Snap.Phase.String()))
	L.SetField(ctx, "turn", lua.LNumber(w.Snap.Turn))
	L.SetField(ctx, "player", lua.LNumber(w.Snap.Player))

	self := unitTable(L, w.Self)
	L.SetField(self, "moved", lua.LBool(w.Self.Moved))
	L.SetField(self, "charged", lua.LBool(w.Self.Charged))
	L.SetField(self, "fled", lua.LBool(w.Self.Fled))
	L.SetField(self, "attacked", lua.LBool(w.Self.Attacked))
	L.SetField(ctx, "unit", self)

	enemies := L.NewTable()
	for _, e := range w.Enemies() {
		t := unitTable(L, e)
		L.SetField(t, "distance", lua.LNumber(hexgrid.Distance(w.Self.Pos, e.Pos)))
		enemies.Append(t)
	}
	L.SetField(ctx, "enemies", enemies)
	L.SetField(ctx, "allies", lua.LNumber(len(w.Allies())))

	nearest := -1
	if e, ok := w.NearestEnemy(); ok {
		nearest = hexgrid.Distance(w.Self.Pos, e.Pos)
	}
	L.SetField(ctx, "nearest", lua.LNumber(nearest))

	legal := L.NewTable()
	for _, act := range []string{ActionShoot, ActionCharge, ActionFight, ActionAdvance, ActionRetreat, ActionWait} {
		L.SetField(legal, act, lua.LBool(w.Legal(act)))
	}
	L.SetField(ctx, "legal", legal)
	return ctx
}

func unitTable(L *lua.LState, u state.UnitView) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LNumber(u.ID))
	L.SetField(t, "type", lua.LString(u.Type))
	L.SetField(t, "hp", lua.LNumber(u.HP))
	L.SetField(t, "hp_max", lua.LNumber(u.MaxHP))
	L.SetField(t, "col", lua.LNumber(u.Pos.Col))
	L.SetField(t, "row", lua.LNumber(u.Pos.Row))
	return t
}
