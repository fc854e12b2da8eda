package state

// Phase is one of the four phases a player's turn passes through.
type Phase int

const (
	Move Phase = iota
	Shoot
	Charge
	Fight
)

// NumPhases is the number of phases in a player's cycle.
const NumPhases = 4

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Move:
		return "move"
	case Shoot:
		return "shoot"
	case Charge:
		return "charge"
	case Fight:
		return "fight"
	default:
		return "unknown"
	}
}

// FightSubPhase orders activations inside a Fight phase.
type FightSubPhase int

const (
	// FightNone is the value outside the Fight phase.
	FightNone FightSubPhase = iota
	// FightChargers activates the active player's units that charged this turn.
	FightChargers
	// FightAlternating alternates single activations between the sides,
	// starting with the player who is not active.
	FightAlternating
)

// String returns the sub-phase name.
func (f FightSubPhase) String() string {
	switch f {
	case FightNone:
		return "none"
	case FightChargers:
		return "chargers"
	case FightAlternating:
		return "alternating"
	default:
		return "unknown"
	}
}
