package model

// Phase is the room's position in the per-round state machine.
type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseIntro    Phase = "INTRO"
	PhaseScenario Phase = "SCENARIO"
	PhaseReveal   Phase = "REVEAL"
	PhaseOutcomes Phase = "OUTCOMES"
	PhaseWinner   Phase = "WINNER"
	PhaseGameOver Phase = "GAME_OVER"
)

// validTransitions is the one legal phase graph. Every phase may also end the
// game; GAME_OVER is terminal.
var validTransitions = map[Phase][]Phase{
	PhaseLobby:    {PhaseIntro, PhaseGameOver},
	PhaseIntro:    {PhaseScenario, PhaseGameOver},
	PhaseScenario: {PhaseReveal, PhaseGameOver},
	PhaseReveal:   {PhaseOutcomes, PhaseGameOver},
	PhaseOutcomes: {PhaseWinner, PhaseGameOver},
	PhaseWinner:   {PhaseScenario, PhaseGameOver},
	PhaseGameOver: {},
}

func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo reports whether moving from p to target is allowed.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range validTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Difficulty of a round's scenario, derived from the round number.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// DifficultyForRound maps round numbers onto the fixed difficulty curve:
// rounds 1-2 are easy, 3-4 medium, 5 and beyond hard.
func DifficultyForRound(number int) Difficulty {
	switch {
	case number <= 2:
		return DifficultyEasy
	case number <= 4:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}
