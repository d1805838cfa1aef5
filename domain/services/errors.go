package services

import "errors"

// Caller-distinguishable failure kinds. All are recoverable by the caller;
// the HTTP layer maps each to a stable status and message.
var (
	// ErrAlreadyLocked rejects any proposal or confirmation for a
	// participant who has already completed a draw.
	ErrAlreadyLocked = errors.New("participant has already completed a draw")

	// ErrSessionNotFound rejects confirmation against an unknown session token.
	ErrSessionNotFound = errors.New("draw session not found")

	// ErrSessionAlreadyUsed rejects a second confirmation of the same session.
	ErrSessionAlreadyUsed = errors.New("draw session already used")

	// ErrInvalidChoice rejects a chosen index outside the session's candidates.
	ErrInvalidChoice = errors.New("invalid choice index")

	// ErrOutOfStock signals a race lost to a concurrent redemption that
	// exhausted the chosen tier. The transaction aborts with no partial state.
	ErrOutOfStock = errors.New("tier out of stock")

	// ErrValidation rejects malformed or missing input.
	ErrValidation = errors.New("validation failed")
)
