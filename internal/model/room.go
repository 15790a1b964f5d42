package model

import (
	"strings"
	"sync"
	"time"
)

// Gameplay limits shared by the registry and the state machine.
const (
	MaxTeams          = 6
	MinTeamsToStart   = 2
	MaxNameLength     = 20
	MaxAnswerLength   = 500
	RoomCodeLength    = 4
	DefaultTimerSec   = 60
	DefaultNumRounds  = 5
	NoResponseMarker  = "[No response submitted]"
	OutcomeRevealWait = 2 * time.Second
)

// RoomConfig is fixed at creation and immutable during play.
type RoomConfig struct {
	TimerDurationSec int `json:"timerDuration"`
	NumRounds        int `json:"numRounds"`
}

// Normalize fills in defaults for zero-valued fields.
func (c RoomConfig) Normalize() RoomConfig {
	if c.TimerDurationSec <= 0 {
		c.TimerDurationSec = DefaultTimerSec
	}
	if c.NumRounds <= 0 {
		c.NumRounds = DefaultNumRounds
	}
	return c
}

// Team is a fixed roster slot with a virus identity and a score. At most one
// player, the team's typist, is assigned at a time.
type Team struct {
	ID         string `json:"id"`
	VirusName  string `json:"virusName"`
	VirusColor string `json:"virusColor"`
	PlayerID   string `json:"playerId,omitempty"`
	PlayerName string `json:"playerName,omitempty"`
	Points     int    `json:"points"`
	Connected  bool   `json:"connected"`
}

// Assigned reports whether a typist currently holds this slot.
func (t *Team) Assigned() bool {
	return t.PlayerID != ""
}

// Player is a joined client, keyed in Room.Players by connection identity.
// Players are never deleted; disconnects only flip Connected.
type Player struct {
	Name      string `json:"name"`
	TeamID    string `json:"teamId,omitempty"`
	Connected bool   `json:"connected"`
}

// Scenario is one generated round prompt.
type Scenario struct {
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	Topic      string     `json:"topic"`
}

// Outcome is the narrated consequence of one team's answer.
type Outcome struct {
	Text   string `json:"text"`
	Rating string `json:"rating"`
}

// Round is one scenario cycle. Answers, outcomes and taunts are keyed by
// team id.
type Round struct {
	Number          int                `json:"number"`
	Scenario        *Scenario          `json:"scenario"`
	Answers         map[string]string  `json:"answers"`
	Outcomes        map[string]Outcome `json:"outcomes"`
	Winners         []string           `json:"winners"`
	WinnerReasoning string             `json:"winnerReasoning,omitempty"`
	Taunts          map[string]string  `json:"taunts"`
	TimerEndsAt     int64              `json:"timerEndsAt,omitempty"` // unix millis, 0 when no timer
}

// NewRound returns an empty round with the number-0 sentinel, meaning no round
// has been played yet.
func NewRound() *Round {
	return &Round{
		Answers:  make(map[string]string),
		Outcomes: make(map[string]Outcome),
		Winners:  make([]string, 0),
		Taunts:   make(map[string]string),
	}
}

// Room is one isolated game session. All mutation happens under mu; the state
// machine releases it around content-generation calls and re-checks the phase
// afterwards, so a room is only ever written by one operation at a time.
type Room struct {
	mu sync.Mutex

	Code       string
	HostConnID string
	Phase      Phase
	Config     RoomConfig

	Teams   []*Team
	Players map[string]*Player

	CurrentRound   *Round
	RoundHistory   []*Round
	PreviousTopics []string

	CreatedAt  time.Time
	LastActive time.Time
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

// Touch records activity for the idle reaper. Callers hold the room lock.
func (r *Room) Touch() {
	r.LastActive = time.Now()
}

// TeamByID returns the team for id, or nil.
func (r *Room) TeamByID(id string) *Team {
	for _, t := range r.Teams {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AssignedTeams returns the teams that currently have a typist, in roster
// order.
func (r *Room) AssignedTeams() []*Team {
	out := make([]*Team, 0, len(r.Teams))
	for _, t := range r.Teams {
		if t.Assigned() {
			out = append(out, t)
		}
	}
	return out
}

// AllAnswersIn reports whether every assigned team has an answer recorded for
// the current round.
func (r *Room) AllAnswersIn() bool {
	for _, t := range r.AssignedTeams() {
		if _, ok := r.CurrentRound.Answers[t.ID]; !ok {
			return false
		}
	}
	return true
}

// PlayerByName finds an existing player record by display name, returning its
// connection id key. Rejoins match case-sensitively by name because a new
// connection means a new identity.
func (r *Room) PlayerByName(name string) (string, *Player) {
	for connID, p := range r.Players {
		if p.Name == name {
			return connID, p
		}
	}
	return "", nil
}

// NormalizeName trims and caps a submitted display name.
func NormalizeName(name string) string {
	return truncateRunes(strings.TrimSpace(name), MaxNameLength)
}

// NormalizeAnswer trims and caps answer text, substituting the no-response
// marker for empty submissions so the narrator can roast the silence.
func NormalizeAnswer(text string) string {
	text = truncateRunes(strings.TrimSpace(text), MaxAnswerLength)
	if text == "" {
		return NoResponseMarker
	}
	return text
}

// truncateRunes caps s at max runes, never splitting a multi-byte character.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
