package service

import "virusbreach/internal/model"

// View projection. Views are deep-copied snapshots built under the room lock
// so they can be marshaled after the lock is released. The host sees
// everything; a player's view is filtered to what their seat is allowed to
// know at the current phase.

// projectHostView builds the unredacted room snapshot for the host display.
// Caller holds the room lock.
func projectHostView(room *model.Room) *model.HostView {
	teams := make([]model.HostTeamView, 0, len(room.Teams))
	for _, t := range room.Teams {
		tv := model.HostTeamView{
			ID:      t.ID,
			Virus:   model.VirusIdentity{Name: t.VirusName, Color: t.VirusColor},
			Players: []model.SeatedPlayer{},
			Score:   t.Points,
		}
		if t.Assigned() {
			tv.Players = append(tv.Players, model.SeatedPlayer{
				ConnID: t.PlayerID,
				Name:   t.PlayerName,
				Role:   "typist",
			})
		}
		teams = append(teams, tv)
	}

	waiting := make([]model.SeatedPlayer, 0)
	for connID, p := range room.Players {
		if p.TeamID == "" && p.Connected {
			waiting = append(waiting, model.SeatedPlayer{ConnID: connID, Name: p.Name, Role: "waiting"})
		}
	}

	history := make([]*model.Round, 0, len(room.RoundHistory))
	for _, r := range room.RoundHistory {
		history = append(history, copyRound(r))
	}

	return &model.HostView{
		RoomCode:       room.Code,
		Phase:          room.Phase,
		Config:         room.Config,
		Teams:          teams,
		WaitingPlayers: waiting,
		CurrentRound:   copyRound(room.CurrentRound),
		RoundHistory:   history,
	}
}

// projectPlayerView builds the redacted snapshot for one player connection.
// Caller holds the room lock.
func projectPlayerView(room *model.Room, connID string) *model.PlayerView {
	teams := make([]model.PlayerTeamView, 0, len(room.Teams))
	for _, t := range room.Teams {
		teams = append(teams, model.PlayerTeamView{
			ID:         t.ID,
			Name:       t.VirusName,
			VirusName:  t.VirusName,
			VirusColor: t.VirusColor,
			Points:     t.Points,
			HasPlayer:  t.Assigned(),
		})
	}

	view := &model.PlayerView{
		RoomCode: room.Code,
		Phase:    room.Phase,
		Config:   room.Config,
		Teams:    teams,
	}
	var myTeamID string
	if p, ok := room.Players[connID]; ok {
		view.MyName = p.Name
		view.MyTeamID = p.TeamID
		myTeamID = p.TeamID
	}
	view.CurrentRound = projectPlayerRound(room, myTeamID)
	return view
}

// projectPlayerRound filters the current round for a viewer on myTeamID.
// Until answers are revealed a player sees only their own team's submission;
// from REVEAL onward every answer, outcome and taunt is public.
func projectPlayerRound(room *model.Room, myTeamID string) model.PlayerRoundView {
	round := room.CurrentRound
	view := model.PlayerRoundView{
		Number:      round.Number,
		Scenario:    copyScenario(round.Scenario),
		Answers:     make(map[string]string),
		Outcomes:    make(map[string]model.Outcome),
		Winners:     append([]string{}, round.Winners...),
		Taunts:      make(map[string]string),
		TimerEndsAt: round.TimerEndsAt,
	}

	revealed := answersRevealed(room.Phase)
	for teamID, answer := range round.Answers {
		if revealed || teamID == myTeamID {
			view.Answers[teamID] = answer
		}
	}
	if revealed {
		for teamID, o := range round.Outcomes {
			view.Outcomes[teamID] = o
		}
		for teamID, t := range round.Taunts {
			view.Taunts[teamID] = t
		}
	}
	return view
}

// answersRevealed reports whether the phase has passed the reveal boundary.
func answersRevealed(p model.Phase) bool {
	switch p {
	case model.PhaseReveal, model.PhaseOutcomes, model.PhaseWinner, model.PhaseGameOver:
		return true
	}
	return false
}

func copyRound(r *model.Round) *model.Round {
	if r == nil {
		return nil
	}
	out := &model.Round{
		Number:          r.Number,
		Scenario:        copyScenario(r.Scenario),
		Answers:         make(map[string]string, len(r.Answers)),
		Outcomes:        make(map[string]model.Outcome, len(r.Outcomes)),
		Winners:         append([]string{}, r.Winners...),
		WinnerReasoning: r.WinnerReasoning,
		Taunts:          make(map[string]string, len(r.Taunts)),
		TimerEndsAt:     r.TimerEndsAt,
	}
	for k, v := range r.Answers {
		out.Answers[k] = v
	}
	for k, v := range r.Outcomes {
		out.Outcomes[k] = v
	}
	for k, v := range r.Taunts {
		out.Taunts[k] = v
	}
	return out
}

func copyScenario(s *model.Scenario) *model.Scenario {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
