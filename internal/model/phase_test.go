package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseTransitions(t *testing.T) {
	allPhases := []Phase{
		PhaseLobby, PhaseIntro, PhaseScenario, PhaseReveal,
		PhaseOutcomes, PhaseWinner, PhaseGameOver,
	}

	allowed := map[Phase][]Phase{
		PhaseLobby:    {PhaseIntro, PhaseGameOver},
		PhaseIntro:    {PhaseScenario, PhaseGameOver},
		PhaseScenario: {PhaseReveal, PhaseGameOver},
		PhaseReveal:   {PhaseOutcomes, PhaseGameOver},
		PhaseOutcomes: {PhaseWinner, PhaseGameOver},
		PhaseWinner:   {PhaseScenario, PhaseGameOver},
		PhaseGameOver: {},
	}

	for from, targets := range allowed {
		ok := make(map[Phase]bool)
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range allPhases {
			assert.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestEveryActivePhaseCanEndGame(t *testing.T) {
	for _, p := range []Phase{PhaseLobby, PhaseIntro, PhaseScenario, PhaseReveal, PhaseOutcomes, PhaseWinner} {
		assert.True(t, p.CanTransitionTo(PhaseGameOver), "%s should be able to end", p)
	}
}

func TestGameOverIsTerminal(t *testing.T) {
	for _, p := range []Phase{PhaseLobby, PhaseIntro, PhaseScenario, PhaseReveal, PhaseOutcomes, PhaseWinner, PhaseGameOver} {
		assert.False(t, PhaseGameOver.CanTransitionTo(p), "GAME_OVER -> %s should be rejected", p)
	}
}

func TestDifficultyForRound(t *testing.T) {
	tests := []struct {
		round int
		want  Difficulty
	}{
		{1, DifficultyEasy},
		{2, DifficultyEasy},
		{3, DifficultyMedium},
		{4, DifficultyMedium},
		{5, DifficultyHard},
		{6, DifficultyHard},
		{12, DifficultyHard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DifficultyForRound(tt.round), "round %d", tt.round)
	}
}
