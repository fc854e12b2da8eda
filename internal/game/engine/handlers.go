package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/hexwar/internal/game/action"
	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/combat"
	"github.com/cory-johannsen/hexwar/internal/game/pool"
	"github.com/cory-johannsen/hexwar/internal/game/state"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

// execute runs the handler for a's intent. Each handler drains the acting
// unit from the pool when its activation is complete.
func (o *Orchestrator) execute(a action.Action) error {
	switch a.Intent {
	case action.IntentMove:
		return o.move(a)
	case action.IntentShoot:
		return o.shoot(a)
	case action.IntentCharge:
		return o.charge(a)
	case action.IntentFight:
		return o.fight(a)
	case action.IntentWait:
		return o.wait(a)
	default:
		return fmt.Errorf("engine: unknown intent %d", a.Intent)
	}
}

func (o *Orchestrator) move(a action.Action) error {
	gs := o.gs
	u, err := gs.Units.Require(a.Unit)
	if err != nil {
		return err
	}
	engaged := pool.AdjacentToEnemy(gs, u)
	if err := gs.Units.Move(a.Unit, a.Dest); err != nil {
		return err
	}
	gs.Moved.Add(a.Unit)
	u.Pos = a.Dest
	if engaged && !pool.AdjacentToEnemy(gs, u) {
		gs.Fled.Add(a.Unit)
	}
	gs.ActivePool().Remove(a.Unit)
	o.logger.Debug("unit moved",
		zap.Int("unit", int(a.Unit)),
		zap.Stringer("direction", a.Direction),
		zap.Stringer("to", a.Dest),
		zap.Bool("fled", gs.Fled.Has(a.Unit)),
	)
	return nil
}

// shoot fires one attack. The first shot of an activation rolls the weapon's
// attack count into ShotsLeft.
func (o *Orchestrator) shoot(a action.Action) error {
	gs := o.gs
	u, err := gs.Units.Require(a.Unit)
	if err != nil {
		return err
	}
	shots := u.ShotsLeft
	if shots == 0 {
		w, err := combat.SelectedWeapon(o.cat, u, catalog.Ranged)
		if err != nil {
			return err
		}
		shots = o.roll.Quantity("shots", w.Attacks)
	}
	if shots > 0 {
		out, err := combat.Resolve(gs.Units, o.cat, a.Unit, a.Target, catalog.Ranged, 1, o.roll)
		if err != nil {
			return err
		}
		o.record(out)
		shots--
	}
	targets, err := o.pools.ShootTargets(gs, a.Unit)
	if err != nil {
		return err
	}
	if shots <= 0 || len(targets) == 0 {
		shots = 0
		gs.ActivePool().Remove(a.Unit)
	}
	return gs.Units.Update(a.Unit, func(u *unit.Unit) { u.ShotsLeft = shots })
}

func (o *Orchestrator) charge(a action.Action) error {
	gs := o.gs
	if err := gs.Units.Move(a.Unit, a.Dest); err != nil {
		return err
	}
	gs.Charged.Add(a.Unit)
	gs.ActivePool().Remove(a.Unit)
	o.logger.Debug("unit charged",
		zap.Int("unit", int(a.Unit)),
		zap.Int("target", int(a.Target)),
		zap.Stringer("to", a.Dest),
	)
	return nil
}

// fight rolls the selected melee weapon's attacks once and spends them on the
// adjacent enemies in priority order, moving on whenever a target dies.
func (o *Orchestrator) fight(a action.Action) error {
	gs := o.gs
	u, err := gs.Units.Require(a.Unit)
	if err != nil {
		return err
	}
	w, err := combat.SelectedWeapon(o.cat, u, catalog.Melee)
	if err != nil {
		return err
	}
	attacks := o.roll.Quantity("attacks", w.Attacks)
	target := a.Target
	for attacks > 0 {
		out, err := combat.Resolve(gs.Units, o.cat, a.Unit, target, catalog.Melee, attacks, o.roll)
		if err != nil {
			return err
		}
		o.record(out)
		attacks -= out.AttacksUsed
		if !out.TargetKilled || attacks == 0 {
			break
		}
		next, err := o.pools.MeleeTargets(gs, a.Unit)
		if err != nil {
			return err
		}
		if len(next) == 0 {
			break
		}
		target = next[0]
	}
	gs.Attacked.Add(a.Unit)
	o.drainFighter(a.Unit)
	return nil
}

func (o *Orchestrator) wait(a action.Action) error {
	gs := o.gs
	if gs.Phase == state.Shoot {
		if err := gs.Units.Update(a.Unit, func(u *unit.Unit) { u.ShotsLeft = 0 }); err != nil {
			return err
		}
	}
	gs.ActivePool().Remove(a.Unit)
	o.logger.Debug("unit waited", zap.Int("unit", int(a.Unit)), zap.Stringer("phase", gs.Phase))
	return nil
}

// drainFighter ends a fight activation. While sides alternate, the rest of the
// side's pool is dropped so the other side acts next.
func (o *Orchestrator) drainFighter(id unit.ID) {
	gs := o.gs
	if gs.FightSub == state.FightAlternating {
		gs.ActivePool().Clear()
		return
	}
	gs.ActivePool().Remove(id)
}

func (o *Orchestrator) record(out combat.Outcome) {
	o.outcomes = append(o.outcomes, out)
	o.logger.Debug("attack resolved",
		zap.Int("attacker", int(out.AttackerID)),
		zap.Int("target", int(out.TargetID)),
		zap.String("weapon", out.WeaponCode),
		zap.Int("hits", out.Hits),
		zap.Int("wounds", out.Wounds),
		zap.Int("damage", out.DamageDealt),
	)
	if out.TargetKilled {
		o.logger.Info("unit destroyed",
			zap.Int("unit", int(out.TargetID)),
			zap.Int("by", int(out.AttackerID)),
			zap.String("weapon", out.WeaponCode),
		)
	}
}
