package model

import (
	"errors"
	"fmt"
)

// Game errors surfaced to the originating connection as a game:error message.
// None of these crash the process.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrGameInProgress       = errors.New("game already in progress")
	ErrNotHost              = errors.New("only the host can do that")
	ErrNotOnTeam            = errors.New("not assigned to a team")
	ErrAlreadySubmitted     = errors.New("already submitted")
	ErrNotEnoughTeams       = fmt.Errorf("need at least %d teams with players", MinTeamsToStart)
	ErrInvalidTeamReference = errors.New("invalid team reference")
	ErrPlayerNotFound       = errors.New("player not found")

	// ErrGeneratorUnavailable exists for completeness; every generator call
	// has a deterministic fallback, so it should never reach a client.
	ErrGeneratorUnavailable = errors.New("content generator unavailable")

	// ErrInvalidTransition is the match target for TransitionError.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// TransitionError reports a phase-guard violation. It identifies both phases
// because an illegal transition signals a client/server desync that must not
// be silently ignored.
type TransitionError struct {
	From Phase
	To   Phase
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NewTransitionError builds the error for an attempted From -> To move.
func NewTransitionError(from, to Phase) error {
	return &TransitionError{From: from, To: to}
}
