package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a couple session has not been initialized.
	ErrSessionNotFound = errors.New("couple session not found")
	// ErrParticipantNotFound is returned when a user tries to act before joining.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrQuestionNotFound indicates the question content could not be loaded.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrRoundNotFound indicates the round finished, was disposed, or never existed.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundOwnership is returned when a user acts on another player's round.
	ErrRoundOwnership = errors.New("round belongs to another player")
	// ErrUnsupportedRoundKind indicates a question carries an unknown kind.
	ErrUnsupportedRoundKind = errors.New("unsupported round kind")
	// ErrUnsupportedAction indicates an action type the round does not accept.
	ErrUnsupportedAction = errors.New("unsupported action for round")
)
