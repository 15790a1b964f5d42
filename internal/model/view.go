package model

// Projected views. Each view is a read model derived fresh from a Room on
// every broadcast; building one never mutates the Room.

// SeatedPlayer is a connected client as shown on the host display.
type SeatedPlayer struct {
	ConnID string `json:"connId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// VirusIdentity is a team's themed identity.
type VirusIdentity struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// HostTeamView is one roster slot as the host sees it: identity, typist and
// score.
type HostTeamView struct {
	ID      string         `json:"id"`
	Virus   VirusIdentity  `json:"virus"`
	Players []SeatedPlayer `json:"players"`
	Score   int            `json:"score"`
}

// HostView reveals everything: full roster, waiting players, the complete
// current round and the whole history.
type HostView struct {
	RoomCode       string         `json:"roomCode"`
	Phase          Phase          `json:"phase"`
	Config         RoomConfig     `json:"config"`
	Teams          []HostTeamView `json:"teams"`
	WaitingPlayers []SeatedPlayer `json:"waitingPlayers"`
	CurrentRound   *Round         `json:"currentRound"`
	RoundHistory   []*Round       `json:"roundHistory"`
}

// PlayerTeamView shows team identity and score but never who is typing for
// whom.
type PlayerTeamView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	VirusName  string `json:"virusName"`
	VirusColor string `json:"virusColor"`
	Points     int    `json:"points"`
	HasPlayer  bool   `json:"hasPlayer"`
}

// PlayerRoundView is the current round with answers filtered to what the
// viewer is allowed to see at the current phase.
type PlayerRoundView struct {
	Number      int                `json:"number"`
	Scenario    *Scenario          `json:"scenario"`
	Answers     map[string]string  `json:"answers"`
	Outcomes    map[string]Outcome `json:"outcomes"`
	Winners     []string           `json:"winners"`
	Taunts      map[string]string  `json:"taunts"`
	TimerEndsAt int64              `json:"timerEndsAt,omitempty"`
}

// PlayerView is the per-player slice of room state. Before REVEAL a player
// sees only their own team's answer; from REVEAL onward all answers are
// public.
type PlayerView struct {
	RoomCode     string           `json:"roomCode"`
	Phase        Phase            `json:"phase"`
	Config       RoomConfig       `json:"config"`
	Teams        []PlayerTeamView `json:"teams"`
	MyTeamID     string           `json:"myTeamId,omitempty"`
	MyName       string           `json:"myName,omitempty"`
	CurrentRound PlayerRoundView  `json:"currentRound"`
}
