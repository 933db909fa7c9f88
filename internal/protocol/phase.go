package protocol

// Phase is the coarse stage of a game session. The server is the only
// authority that advances it; clients merely reflect the broadcast value.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseStarting Phase = "starting"
	PhasePlaying  Phase = "playing"
	PhaseRoundEnd Phase = "round_end"
	PhaseFinished Phase = "finished"
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Terminal reports whether no further phase can follow.
func (p Phase) Terminal() bool {
	return p == PhaseFinished
}

// CanTransitionTo checks if a transition from the current phase to the
// target phase is legal. round_end cycles back to playing for the next
// round until the server declares the game finished.
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseWaiting:  {PhaseStarting, PhasePlaying},
		PhaseStarting: {PhasePlaying},
		PhasePlaying:  {PhaseRoundEnd, PhaseFinished},
		PhaseRoundEnd: {PhasePlaying, PhaseFinished},
		PhaseFinished: {},
	}

	allowed, ok := validTransitions[p]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}
