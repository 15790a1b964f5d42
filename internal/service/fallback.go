package service

import (
	"fmt"

	"virusbreach/internal/model"
)

// Deterministic fallback content. Every generator call lands here after a
// failed retry, so a room can play a full game with the generation API down.

const fallbackScenarioText = "Your classmate's social media account was just hacked and is now " +
	"posting suspicious links to everyone in your university group chat. Several students have " +
	"already clicked the links and are reporting strange activity on their accounts. What do you do?"

func fallbackScenario(difficulty model.Difficulty, topic string) *model.Scenario {
	return &model.Scenario{
		Text:       fallbackScenarioText,
		Difficulty: difficulty,
		Topic:      topic,
	}
}

func fallbackOutcome(teamName string) model.Outcome {
	return model.Outcome{
		Text: fmt.Sprintf("The narrator pauses dramatically... but the connection to the AI was lost. "+
			"The host will have to judge %s's response manually this time.", teamName),
		Rating: "partial",
	}
}

func fallbackWinners() WinnerResult {
	return WinnerResult{
		WinnerTeamIDs: []string{},
		Reasoning:     "The AI could not determine a winner this round — the host decides.",
	}
}

func fallbackTaunts(teams []TauntTeam, winnerIDs []string) map[string]string {
	won := make(map[string]bool, len(winnerIDs))
	for _, id := range winnerIDs {
		won[id] = true
	}
	taunts := make(map[string]string, len(teams))
	for _, t := range teams {
		if won[t.TeamID] {
			taunts[t.TeamID] = fmt.Sprintf("%s: \"Not bad... for a human.\"", t.VirusName)
		} else {
			taunts[t.TeamID] = fmt.Sprintf("%s: \"I've seen better. Much better.\"", t.VirusName)
		}
	}
	return taunts
}

func fallbackSummary(t SummaryTeam) TeamSummary {
	rating := "Walking Vulnerability"
	switch {
	case t.Points >= 3:
		rating = "Digital Fortress"
	case t.Points >= 1:
		rating = "Needs a Firewall"
	}
	return TeamSummary{
		Summary: fmt.Sprintf("%s survived the breach with %d points. The AI narrator has no further comment at this time.",
			t.VirusName, t.Points),
		Rating: rating,
	}
}

func fallbackSummaries(teams []SummaryTeam) map[string]TeamSummary {
	out := make(map[string]TeamSummary, len(teams))
	for _, t := range teams {
		out[t.TeamID] = fallbackSummary(t)
	}
	return out
}
