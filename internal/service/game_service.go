package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"virusbreach/internal/model"
	"virusbreach/internal/registry"
)

// Wire event names pushed to clients.
const (
	EventStateUpdate   = "game:state-update"
	EventScenario      = "game:scenario"
	EventTeamSubmitted = "game:team-submitted"
	EventTyping        = "game:typing-indicator"
	EventTimesUp       = "game:times-up"
	EventAllAnswers    = "game:all-answers"
	EventOutcome       = "game:outcome"
	EventWinner        = "game:winner"
	EventScoreboard    = "game:scoreboard"
	EventVirusTaunt    = "game:virus-taunt"
	EventGameOver      = "game:over"
	EventError         = "game:error"
)

// ScoreEntry is one team's line on the scoreboard payload.
type ScoreEntry struct {
	TeamID    string `json:"teamId"`
	VirusName string `json:"virusName"`
	Points    int    `json:"points"`
}

// outMsg is a pending delivery, built under the room lock and sent after.
type outMsg struct {
	connID  string
	event   string
	payload interface{}
}

// GameService drives the per-room state machine. Validation and mutation
// happen under the room lock; the lock is released around generator calls and
// the phase is re-checked afterwards, so stale async work is discarded instead
// of corrupting a room that moved on.
type GameService struct {
	registry  *registry.Registry
	generator Generator
	bc        Broadcaster
	sched     *roundScheduler
}

func NewGameService(reg *registry.Registry, gen Generator, bc Broadcaster) *GameService {
	return &GameService{
		registry:  reg,
		generator: gen,
		bc:        bc,
		sched:     newRoundScheduler(),
	}
}

// CreateRoom opens a lobby hosted by hostConnID and pushes the initial state.
func (s *GameService) CreateRoom(hostConnID string, cfg model.RoomConfig) (*model.Room, error) {
	room, err := s.registry.CreateRoom(hostConnID, cfg)
	if err != nil {
		return nil, err
	}
	room.Lock()
	msgs := s.stateMessages(room)
	room.Unlock()
	s.send(msgs)
	return room, nil
}

// RequestState reattaches a host connection to an existing room by code and
// rebroadcasts the full state. The previous host connection, if any, is
// superseded.
func (s *GameService) RequestState(connID, code string) error {
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return model.ErrRoomNotFound
	}
	room.Lock()
	room.HostConnID = connID
	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()
	s.registry.IndexConnection(connID, room.Code)
	s.send(msgs)
	return nil
}

// JoinPlayer seats a new player in the lobby. Joining mid-game is rejected;
// returning players use RejoinPlayer instead.
func (s *GameService) JoinPlayer(connID, code, name string) error {
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return model.ErrRoomNotFound
	}
	name = model.NormalizeName(name)
	if name == "" {
		return fmt.Errorf("display name required")
	}

	room.Lock()
	if room.Phase != model.PhaseLobby {
		room.Unlock()
		return model.ErrGameInProgress
	}
	room.Players[connID] = &model.Player{Name: name, Connected: true}
	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()

	s.registry.IndexConnection(connID, room.Code)
	s.send(msgs)
	return nil
}

// RejoinPlayer reconnects a player by display name, carrying their team seat
// and score over to the new connection. An unknown name falls back to a fresh
// join while the room is still in the lobby; once play has started it is an
// error.
func (s *GameService) RejoinPlayer(connID, code, name string) error {
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return model.ErrRoomNotFound
	}
	name = model.NormalizeName(name)
	if name == "" {
		return fmt.Errorf("display name required")
	}

	room.Lock()
	oldConnID, player := room.PlayerByName(name)
	if player == nil {
		if room.Phase != model.PhaseLobby {
			room.Unlock()
			return model.ErrPlayerNotFound
		}
		room.Players[connID] = &model.Player{Name: name, Connected: true}
		room.Touch()
		msgs := s.stateMessages(room)
		room.Unlock()
		s.registry.IndexConnection(connID, room.Code)
		s.send(msgs)
		return nil
	}

	delete(room.Players, oldConnID)
	player.Connected = true
	room.Players[connID] = player
	if player.TeamID != "" {
		if team := room.TeamByID(player.TeamID); team != nil {
			team.PlayerID = connID
			team.Connected = true
		}
	}
	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()

	s.registry.RemoveConnectionIndex(oldConnID)
	s.registry.IndexConnection(connID, room.Code)
	s.send(msgs)
	return nil
}

// AssignTeam seats a waiting player on a team slot, or back to waiting when
// teamID is empty. Only allowed in the lobby. Seating onto an occupied slot
// displaces the current typist back to waiting.
func (s *GameService) AssignTeam(hostConnID, playerConnID, teamID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}

	room.Lock()
	if room.Phase != model.PhaseLobby {
		room.Unlock()
		return model.ErrGameInProgress
	}
	player, ok := room.Players[playerConnID]
	if !ok {
		room.Unlock()
		return model.ErrPlayerNotFound
	}

	// Vacate the player's current slot first.
	if player.TeamID != "" {
		if prev := room.TeamByID(player.TeamID); prev != nil && prev.PlayerID == playerConnID {
			prev.PlayerID = ""
			prev.PlayerName = ""
			prev.Connected = false
		}
		player.TeamID = ""
	}

	if teamID != "" {
		team := room.TeamByID(teamID)
		if team == nil {
			room.Unlock()
			return model.ErrInvalidTeamReference
		}
		if team.Assigned() {
			if prevPlayer, ok := room.Players[team.PlayerID]; ok {
				prevPlayer.TeamID = ""
			}
		}
		team.PlayerID = playerConnID
		team.PlayerName = player.Name
		team.Connected = player.Connected
		player.TeamID = teamID
	}

	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()
	s.send(msgs)
	return nil
}

// StartGame moves the lobby into the intro once enough teams are seated.
func (s *GameService) StartGame(hostConnID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}

	room.Lock()
	if !room.Phase.CanTransitionTo(model.PhaseIntro) {
		defer room.Unlock()
		return model.NewTransitionError(room.Phase, model.PhaseIntro)
	}
	if len(room.AssignedTeams()) < model.MinTeamsToStart {
		room.Unlock()
		return model.ErrNotEnoughTeams
	}
	room.Phase = model.PhaseIntro
	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()

	log.Printf("room %s: game started", room.Code)
	s.send(msgs)
	return nil
}

// NextScenario advances into the next round, or into the endgame when the
// configured round count is exhausted. The phase moves to SCENARIO before the
// slow generation call so a second concurrent advance fails fast.
func (s *GameService) NextScenario(ctx context.Context, hostConnID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}

	room.Lock()
	if !room.Phase.CanTransitionTo(model.PhaseScenario) {
		defer room.Unlock()
		return model.NewTransitionError(room.Phase, model.PhaseScenario)
	}
	// Only a legal advance may auto-finish; a stray next-scenario mid-round
	// must not cut the final round short.
	if room.CurrentRound.Number >= room.Config.NumRounds {
		return s.finishGameLocked(ctx, room)
	}
	if room.CurrentRound.Number > 0 {
		room.RoundHistory = append(room.RoundHistory, room.CurrentRound)
	}
	round := model.NewRound()
	round.Number = room.CurrentRound.Number + 1
	room.CurrentRound = round
	room.Phase = model.PhaseScenario
	room.Touch()
	roundNumber := round.Number
	difficulty := model.DifficultyForRound(roundNumber)
	previousTopics := append([]string{}, room.PreviousTopics...)
	timerSec := room.Config.TimerDurationSec
	code := room.Code
	room.Unlock()

	scenario := s.generator.GenerateScenario(ctx, difficulty, previousTopics)

	room.Lock()
	if room.Phase != model.PhaseScenario || room.CurrentRound.Number != roundNumber {
		room.Unlock()
		return nil // room moved on while generating
	}
	room.CurrentRound.Scenario = scenario
	room.PreviousTopics = append(room.PreviousTopics, scenario.Topic)
	endsAt := time.Now().Add(time.Duration(timerSec) * time.Second)
	room.CurrentRound.TimerEndsAt = endsAt.UnixMilli()
	room.Touch()
	msgs := s.stateMessages(room)
	msgs = append(msgs, s.fanout(room, EventScenario, map[string]interface{}{
		"scenario":    scenario,
		"roundNumber": roundNumber,
		"timerEndsAt": room.CurrentRound.TimerEndsAt,
	})...)
	room.Unlock()

	s.sched.Start(code, time.Until(endsAt), func() {
		s.onTimerExpired(code, roundNumber)
	})
	log.Printf("room %s: round %d scenario (%s)", code, roundNumber, difficulty)
	s.send(msgs)
	return nil
}

// SubmitAnswer records a team's answer for the current scenario. The first
// submission per team wins; when every seated team has answered the round
// advances to the reveal early and the timer is cancelled.
func (s *GameService) SubmitAnswer(connID, text string) error {
	room, err := s.connRoom(connID)
	if err != nil {
		return err
	}

	room.Lock()
	player, ok := room.Players[connID]
	if !ok {
		room.Unlock()
		return model.ErrPlayerNotFound
	}
	if player.TeamID == "" {
		room.Unlock()
		return model.ErrNotOnTeam
	}
	if room.Phase != model.PhaseScenario {
		defer room.Unlock()
		return fmt.Errorf("submit in phase %s: %w", room.Phase, model.ErrInvalidTransition)
	}
	if _, done := room.CurrentRound.Answers[player.TeamID]; done {
		room.Unlock()
		return model.ErrAlreadySubmitted
	}

	room.CurrentRound.Answers[player.TeamID] = model.NormalizeAnswer(text)
	room.Touch()

	if room.AllAnswersIn() {
		code := room.Code
		msgs := s.revealLocked(room)
		room.Unlock()
		s.sched.Stop(code)
		s.send(msgs)
		return nil
	}

	msgs := s.fanout(room, EventTeamSubmitted, map[string]string{"teamId": player.TeamID})
	msgs = append(msgs, s.stateMessages(room)...)
	room.Unlock()
	s.send(msgs)
	return nil
}

// HandleTyping forwards a live typing indicator for the sender's team to the
// host display. Best effort; senders without a team are ignored and nothing
// here ever errors back to the caller.
func (s *GameService) HandleTyping(connID string, isTyping bool) {
	room, err := s.connRoom(connID)
	if err != nil {
		return
	}
	room.Lock()
	player, ok := room.Players[connID]
	if !ok || player.TeamID == "" {
		room.Unlock()
		return
	}
	hostConnID := room.HostConnID
	payload := map[string]interface{}{"teamId": player.TeamID, "isTyping": isTyping}
	room.Unlock()

	if hostConnID != "" {
		s.bc.SendToConn(hostConnID, EventTyping, payload)
	}
}

// onTimerExpired fires when the answer window closes. Unanswered teams get the
// no-response marker and the round advances to the reveal. A timer that fires
// after the round already advanced is a no-op.
func (s *GameService) onTimerExpired(code string, roundNumber int) {
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return
	}
	room.Lock()
	if room.Phase != model.PhaseScenario || room.CurrentRound.Number != roundNumber {
		room.Unlock()
		return
	}
	for _, t := range room.AssignedTeams() {
		if _, done := room.CurrentRound.Answers[t.ID]; !done {
			room.CurrentRound.Answers[t.ID] = model.NoResponseMarker
		}
	}
	room.Touch()
	msgs := s.fanout(room, EventTimesUp, map[string]int{"roundNumber": roundNumber})
	msgs = append(msgs, s.revealLocked(room)...)
	room.Unlock()

	log.Printf("room %s: round %d timer expired", code, roundNumber)
	s.send(msgs)
}

// revealLocked transitions SCENARIO -> REVEAL and builds the all-answers
// broadcast. Caller holds the room lock and has already filled in any missing
// answers.
func (s *GameService) revealLocked(room *model.Room) []outMsg {
	room.Phase = model.PhaseReveal
	room.CurrentRound.TimerEndsAt = 0

	answers := make(map[string]string, len(room.CurrentRound.Answers))
	for k, v := range room.CurrentRound.Answers {
		answers[k] = v
	}
	msgs := s.fanout(room, EventAllAnswers, map[string]interface{}{
		"roundNumber": room.CurrentRound.Number,
		"answers":     answers,
	})
	return append(msgs, s.stateMessages(room)...)
}

// ProcessAnswers starts the paced outcome narration for the revealed answers.
// The transition to OUTCOMES happens synchronously; narration, winner picking
// and taunts run on their own goroutine so the caller is not held for the
// whole sequence.
func (s *GameService) ProcessAnswers(ctx context.Context, hostConnID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}

	room.Lock()
	if !room.Phase.CanTransitionTo(model.PhaseOutcomes) {
		defer room.Unlock()
		return model.NewTransitionError(room.Phase, model.PhaseOutcomes)
	}
	room.Phase = model.PhaseOutcomes
	room.Touch()

	roundNumber := room.CurrentRound.Number
	scenarioText := ""
	if room.CurrentRound.Scenario != nil {
		scenarioText = room.CurrentRound.Scenario.Text
	}
	type job struct {
		teamID, teamName, answer string
	}
	jobs := make([]job, 0, len(room.Teams))
	for _, t := range room.AssignedTeams() {
		jobs = append(jobs, job{t.ID, t.VirusName, room.CurrentRound.Answers[t.ID]})
	}
	msgs := s.stateMessages(room)
	room.Unlock()
	s.send(msgs)

	go func() {
		for i, j := range jobs {
			if i > 0 {
				time.Sleep(model.OutcomeRevealWait)
			}
			outcome := s.generator.GenerateOutcome(ctx, scenarioText, j.teamName, j.answer)

			room.Lock()
			if room.Phase != model.PhaseOutcomes || room.CurrentRound.Number != roundNumber {
				room.Unlock()
				return
			}
			room.CurrentRound.Outcomes[j.teamID] = outcome
			room.Touch()
			msgs := s.fanout(room, EventOutcome, map[string]interface{}{
				"teamId":  j.teamID,
				"outcome": outcome,
			})
			room.Unlock()
			s.send(msgs)
		}
		s.pickWinner(ctx, room, roundNumber)
	}()
	return nil
}

// pickWinner judges the narrated round, awards points and moves to WINNER,
// then layers the virus taunts on top.
func (s *GameService) pickWinner(ctx context.Context, room *model.Room, roundNumber int) {
	room.Lock()
	if room.Phase != model.PhaseOutcomes || room.CurrentRound.Number != roundNumber {
		room.Unlock()
		return
	}
	scenarioText := ""
	if room.CurrentRound.Scenario != nil {
		scenarioText = room.CurrentRound.Scenario.Text
	}
	entries := make([]TeamOutcome, 0, len(room.Teams))
	tauntTeams := make([]TauntTeam, 0, len(room.Teams))
	for _, t := range room.AssignedTeams() {
		o := room.CurrentRound.Outcomes[t.ID]
		answer := room.CurrentRound.Answers[t.ID]
		entries = append(entries, TeamOutcome{
			TeamID:      t.ID,
			TeamName:    t.VirusName,
			Answer:      answer,
			OutcomeText: o.Text,
			Rating:      o.Rating,
		})
		tauntTeams = append(tauntTeams, TauntTeam{TeamID: t.ID, VirusName: t.VirusName, Answer: answer})
	}
	room.Unlock()

	result := s.generator.PickWinners(ctx, scenarioText, entries)

	// Re-filter here so no Generator implementation can award a point to a
	// team that did not play the round.
	result.WinnerTeamIDs = filterWinnerIDs(result.WinnerTeamIDs, entries)

	room.Lock()
	if room.Phase != model.PhaseOutcomes || room.CurrentRound.Number != roundNumber {
		room.Unlock()
		return
	}
	room.CurrentRound.Winners = result.WinnerTeamIDs
	room.CurrentRound.WinnerReasoning = result.Reasoning
	for _, id := range result.WinnerTeamIDs {
		if t := room.TeamByID(id); t != nil {
			t.Points++
		}
	}
	room.Phase = model.PhaseWinner
	room.Touch()
	msgs := s.winnerMessages(room)
	room.Unlock()
	s.send(msgs)

	taunts := s.generator.GenerateTaunts(ctx, tauntTeams, result.WinnerTeamIDs, roundNumber)

	room.Lock()
	if room.Phase != model.PhaseWinner || room.CurrentRound.Number != roundNumber {
		room.Unlock()
		return
	}
	room.CurrentRound.Taunts = taunts
	room.Touch()
	msgs = s.fanout(room, EventVirusTaunt, map[string]interface{}{"taunts": taunts})
	msgs = append(msgs, s.stateMessages(room)...)
	room.Unlock()
	s.send(msgs)
}

// RevealWinner rebroadcasts the stored winner and scoreboard. Only meaningful
// while the room sits in WINNER; used by host displays that reloaded mid
// celebration.
func (s *GameService) RevealWinner(hostConnID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}
	room.Lock()
	if room.Phase != model.PhaseWinner {
		defer room.Unlock()
		return model.NewTransitionError(room.Phase, model.PhaseWinner)
	}
	msgs := s.winnerMessages(room)
	room.Unlock()
	s.send(msgs)
	return nil
}

// EndGame terminates the room from any phase, then narrates the final
// summaries. GAME_OVER is terminal, so the summary generation needs no phase
// re-check.
func (s *GameService) EndGame(ctx context.Context, hostConnID string) error {
	room, err := s.hostRoom(hostConnID)
	if err != nil {
		return err
	}
	room.Lock()
	return s.finishGameLocked(ctx, room)
}

// finishGameLocked does the endgame sequence. Called with the room lock held;
// releases it.
func (s *GameService) finishGameLocked(ctx context.Context, room *model.Room) error {
	if room.Phase == model.PhaseGameOver {
		room.Unlock()
		return model.NewTransitionError(model.PhaseGameOver, model.PhaseGameOver)
	}
	if room.CurrentRound.Number > 0 {
		room.RoundHistory = append(room.RoundHistory, room.CurrentRound)
		room.CurrentRound = model.NewRound()
		room.CurrentRound.Number = room.RoundHistory[len(room.RoundHistory)-1].Number
	}
	room.Phase = model.PhaseGameOver
	room.Touch()
	code := room.Code

	teams := make([]SummaryTeam, 0, len(room.Teams))
	for _, t := range room.AssignedTeams() {
		teams = append(teams, SummaryTeam{TeamID: t.ID, VirusName: t.VirusName, Points: t.Points})
	}
	history := make([]*model.Round, 0, len(room.RoundHistory))
	for _, r := range room.RoundHistory {
		history = append(history, copyRound(r))
	}
	msgs := s.stateMessages(room)
	room.Unlock()

	s.sched.Stop(code)
	s.send(msgs)
	log.Printf("room %s: game over", code)

	summaries := s.generator.GenerateSummary(ctx, teams, history)

	room.Lock()
	scores := scoreboard(room)
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Points > scores[j].Points })
	msgs = s.fanout(room, EventGameOver, map[string]interface{}{
		"summaries":    summaries,
		"finalScores":  scores,
		"roundHistory": history,
	})
	room.Unlock()
	s.send(msgs)
	return nil
}

// HandleDisconnect marks a dropped connection. Player records survive for
// rejoin-by-name; a dropped host unbinds from the room, which stays alive
// until the host reattaches through RequestState.
func (s *GameService) HandleDisconnect(connID string) {
	code, ok := s.registry.LookupByConnection(connID)
	s.registry.RemoveConnectionIndex(connID)
	if !ok {
		return
	}
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return
	}

	room.Lock()
	if room.HostConnID == connID {
		room.HostConnID = ""
	}
	if player, found := room.Players[connID]; found {
		player.Connected = false
		if player.TeamID != "" {
			if team := room.TeamByID(player.TeamID); team != nil && team.PlayerID == connID {
				team.Connected = false
			}
		}
	}
	room.Touch()
	msgs := s.stateMessages(room)
	room.Unlock()
	s.send(msgs)
}

// hostRoom resolves a host connection to its room.
func (s *GameService) hostRoom(hostConnID string) (*model.Room, error) {
	room, ok := s.registry.LookupByHost(hostConnID)
	if !ok {
		return nil, model.ErrNotHost
	}
	return room, nil
}

// connRoom resolves any indexed connection to its room.
func (s *GameService) connRoom(connID string) (*model.Room, error) {
	code, ok := s.registry.LookupByConnection(connID)
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	room, ok := s.registry.LookupByCode(code)
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room, nil
}

// stateMessages builds the per-connection state updates: the unredacted view
// for the host, a filtered view per connected player. Caller holds the room
// lock.
func (s *GameService) stateMessages(room *model.Room) []outMsg {
	msgs := make([]outMsg, 0, len(room.Players)+1)
	if room.HostConnID != "" {
		msgs = append(msgs, outMsg{room.HostConnID, EventStateUpdate, projectHostView(room)})
	}
	for connID, p := range room.Players {
		if p.Connected {
			msgs = append(msgs, outMsg{connID, EventStateUpdate, projectPlayerView(room, connID)})
		}
	}
	return msgs
}

// fanout addresses one event to the host and every connected player. Caller
// holds the room lock.
func (s *GameService) fanout(room *model.Room, event string, payload interface{}) []outMsg {
	msgs := make([]outMsg, 0, len(room.Players)+1)
	if room.HostConnID != "" {
		msgs = append(msgs, outMsg{room.HostConnID, event, payload})
	}
	for connID, p := range room.Players {
		if p.Connected {
			msgs = append(msgs, outMsg{connID, event, payload})
		}
	}
	return msgs
}

// winnerMessages builds the winner announcement plus scoreboard plus state.
// Caller holds the room lock.
func (s *GameService) winnerMessages(room *model.Room) []outMsg {
	msgs := s.fanout(room, EventWinner, map[string]interface{}{
		"winnerTeamIds": room.CurrentRound.Winners,
		"reasoning":     room.CurrentRound.WinnerReasoning,
	})
	msgs = append(msgs, s.fanout(room, EventScoreboard, map[string]interface{}{
		"teams": scoreboard(room),
	})...)
	return append(msgs, s.stateMessages(room)...)
}

func scoreboard(room *model.Room) []ScoreEntry {
	out := make([]ScoreEntry, 0, len(room.Teams))
	for _, t := range room.AssignedTeams() {
		out = append(out, ScoreEntry{TeamID: t.ID, VirusName: t.VirusName, Points: t.Points})
	}
	return out
}

func (s *GameService) send(msgs []outMsg) {
	for _, m := range msgs {
		s.bc.SendToConn(m.connID, m.event, m.payload)
	}
}
