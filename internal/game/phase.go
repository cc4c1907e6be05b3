package game

// Phase is a room's current stage in the round lifecycle. Exactly one phase
// is active at any instant; every transition bumps the room's timer
// generation so that older timer tasks become stale.
type Phase string

const (
	PhaseLobby     Phase = "lobby"
	PhaseCountdown Phase = "countdown"
	PhaseGuessing  Phase = "guessing"
	PhaseResults   Phase = "results"
	PhaseBetween   Phase = "between"
	PhasePaused    Phase = "paused"
	PhaseFinished  Phase = "finished"
)
