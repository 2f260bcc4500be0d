package model

// Phase is the authoritative game phase
type Phase string

const (
	PhaseLobby       Phase = "LOBBY"
	PhaseRoles       Phase = "ROLES"
	PhaseQuestioning Phase = "QUESTIONING"
	PhaseVote        Phase = "VOTE"
	PhaseReveal      Phase = "REVEAL"
	PhaseScoring     Phase = "SCORING"
	PhaseEnd         Phase = "END"
	PhasePaused      Phase = "PAUSED"
)

// validTransitions is the directed phase transition table. PAUSED is reachable
// from every phase and resumes back to the phase it interrupted.
var validTransitions = map[Phase][]Phase{
	PhaseLobby:       {PhaseRoles, PhasePaused},
	PhaseRoles:       {PhaseQuestioning, PhasePaused},
	PhaseQuestioning: {PhaseVote, PhasePaused},
	PhaseVote:        {PhaseReveal, PhasePaused},
	PhaseReveal:      {PhaseScoring, PhasePaused},
	PhaseScoring:     {PhaseRoles, PhaseEnd, PhasePaused},
	PhaseEnd:         {PhaseLobby, PhasePaused},
	PhasePaused:      {PhaseLobby, PhaseRoles, PhaseQuestioning, PhaseVote, PhaseReveal, PhaseScoring, PhaseEnd},
}

// CanTransition reports whether moving from one phase to another is allowed
// by the transition table.
func CanTransition(from, to Phase) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
