package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"virusbreach/internal/model"
)

func projectionRoom() *model.Room {
	round := model.NewRound()
	round.Number = 1
	round.Scenario = &model.Scenario{Text: "scenario", Difficulty: model.DifficultyEasy, Topic: "phishing"}
	round.Answers["team-0"] = "answer zero"
	round.Answers["team-1"] = "answer one"
	round.Outcomes["team-0"] = model.Outcome{Text: "outcome zero", Rating: "good"}
	round.Taunts["team-0"] = "taunt zero"

	return &model.Room{
		Code:       "ABCD",
		HostConnID: "host",
		Phase:      model.PhaseScenario,
		Config:     model.RoomConfig{}.Normalize(),
		Teams: []*model.Team{
			{ID: "team-0", VirusName: "TROJAN", VirusColor: "#ff0040", PlayerID: "conn-a", PlayerName: "Alice", Points: 1},
			{ID: "team-1", VirusName: "WORM", VirusColor: "#00ff41", PlayerID: "conn-b", PlayerName: "Bob"},
			{ID: "team-2", VirusName: "RANSOMWARE", VirusColor: "#ff6600"},
		},
		Players: map[string]*model.Player{
			"conn-a": {Name: "Alice", TeamID: "team-0", Connected: true},
			"conn-b": {Name: "Bob", TeamID: "team-1", Connected: true},
			"conn-c": {Name: "Carol", Connected: true},
		},
		CurrentRound: round,
	}
}

func TestHostViewSeesEverything(t *testing.T) {
	room := projectionRoom()
	view := projectHostView(room)

	assert.Equal(t, "ABCD", view.RoomCode)
	assert.Equal(t, model.PhaseScenario, view.Phase)
	require.Len(t, view.Teams, 3)
	assert.Equal(t, "Alice", view.Teams[0].Players[0].Name)
	assert.Empty(t, view.Teams[2].Players)

	require.Len(t, view.WaitingPlayers, 1)
	assert.Equal(t, "Carol", view.WaitingPlayers[0].Name)

	// Host sees all answers even before the reveal.
	assert.Len(t, view.CurrentRound.Answers, 2)
}

func TestPlayerViewHidesOtherAnswersBeforeReveal(t *testing.T) {
	room := projectionRoom()
	view := projectPlayerView(room, "conn-a")

	assert.Equal(t, "team-0", view.MyTeamID)
	assert.Equal(t, "Alice", view.MyName)

	require.Len(t, view.CurrentRound.Answers, 1)
	assert.Equal(t, "answer zero", view.CurrentRound.Answers["team-0"])
	assert.Empty(t, view.CurrentRound.Outcomes)
	assert.Empty(t, view.CurrentRound.Taunts)
}

func TestPlayerViewRevealsAllFromRevealOnward(t *testing.T) {
	for _, phase := range []model.Phase{model.PhaseReveal, model.PhaseOutcomes, model.PhaseWinner, model.PhaseGameOver} {
		room := projectionRoom()
		room.Phase = phase
		view := projectPlayerView(room, "conn-a")

		assert.Len(t, view.CurrentRound.Answers, 2, "phase %s", phase)
		assert.Len(t, view.CurrentRound.Outcomes, 1, "phase %s", phase)
		assert.Len(t, view.CurrentRound.Taunts, 1, "phase %s", phase)
	}
}

func TestPlayerViewNeverExposesSeating(t *testing.T) {
	room := projectionRoom()
	view := projectPlayerView(room, "conn-c")

	assert.Empty(t, view.MyTeamID)
	for _, tv := range view.Teams {
		// Occupancy is visible, identity of the typist is not.
		assert.NotContains(t, []string{"Alice", "Bob"}, tv.Name)
	}
	assert.True(t, view.Teams[0].HasPlayer)
	assert.False(t, view.Teams[2].HasPlayer)
}

func TestViewsAreSnapshots(t *testing.T) {
	room := projectionRoom()
	view := projectHostView(room)

	room.CurrentRound.Answers["team-0"] = "mutated"
	assert.Equal(t, "answer zero", view.CurrentRound.Answers["team-0"])
}
