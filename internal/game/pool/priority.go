package pool

import (
	"cmp"
	"slices"

	"github.com/cory-johannsen/hexwar/internal/game/catalog"
	"github.com/cory-johannsen/hexwar/internal/game/combat"
	"github.com/cory-johannsen/hexwar/internal/game/unit"
)

type candidate struct {
	target unit.Unit
	dist   int
	score  float64
}

// rank orders cands by the attacker type's behavior.
//
// Swarm: nearest first, then lowest id.
// Elite: highest expected damage per remaining wound first, then nearest, then lowest id.
func (b *Builder) rank(attacker unit.Unit, w *catalog.Weapon, cands []candidate) ([]candidate, error) {
	at, err := b.cat.UnitType(attacker.Type)
	if err != nil {
		return nil, err
	}
	if at.Behavior == catalog.Elite {
		for i := range cands {
			tt, err := b.cat.UnitType(cands[i].target.Type)
			if err != nil {
				return nil, err
			}
			cands[i].score = combat.ExpectedDamage(w, tt) / float64(cands[i].target.HP)
		}
	}
	slices.SortFunc(cands, func(x, y candidate) int {
		if at.Behavior == catalog.Elite {
			if c := cmp.Compare(y.score, x.score); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(x.dist, y.dist); c != 0 {
			return c
		}
		return cmp.Compare(x.target.ID, y.target.ID)
	})
	return cands, nil
}

func ids(cands []candidate) []unit.ID {
	out := make([]unit.ID, len(cands))
	for i, c := range cands {
		out[i] = c.target.ID
	}
	return out
}
