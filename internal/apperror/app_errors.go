package apperror

import (
	"errors"
	"fmt"
)

// Error categories. Every error surfaced to a player wraps exactly one of them.
var (
	ErrValidation  = errors.New("validation failed")
	ErrConcurrency = errors.New("still processing previous request")
	ErrNotFound    = errors.New("not found")
)

var (
	ErrNotYourTurn         = fmt.Errorf("%w: it's not your turn", ErrValidation)
	ErrWrongStatus         = fmt.Errorf("%w: action is not allowed in the current game status", ErrValidation)
	ErrCardNotInHand       = fmt.Errorf("%w: card is not in hand", ErrValidation)
	ErrCardNotOnDeck       = fmt.Errorf("%w: card is not on top of a deck", ErrValidation)
	ErrNotDrawn            = fmt.Errorf("%w: draw a card first", ErrValidation)
	ErrAlreadyDrawn        = fmt.Errorf("%w: card already drawn this turn", ErrValidation)
	ErrGroupsMismatch      = fmt.Errorf("%w: groups do not match the hand", ErrValidation)
	ErrPlayerInactive      = fmt.Errorf("%w: player is not active in this round", ErrValidation)
	ErrAlreadyDeclared     = fmt.Errorf("%w: player already declared", ErrValidation)
	ErrAlreadyQueued       = fmt.Errorf("%w: player is already waiting for a table", ErrValidation)
	ErrAlreadySeated       = fmt.Errorf("%w: player already has an active table", ErrValidation)
	ErrInsufficientFunds   = fmt.Errorf("%w: insufficient balance", ErrValidation)
	ErrUnknownTableType    = fmt.Errorf("%w: unknown table type", ErrValidation)
	ErrInvalidCard         = fmt.Errorf("%w: invalid card code", ErrValidation)
	ErrTableFull           = fmt.Errorf("%w: table is full", ErrValidation)
	ErrLockTimeout         = fmt.Errorf("%w: lock acquire timeout", ErrConcurrency)
	ErrActionInProgress    = fmt.Errorf("%w: previous action is still in progress", ErrConcurrency)
	ErrNoActiveTable       = fmt.Errorf("%w: no active table", ErrNotFound)
	ErrPlayerNotAtTable    = fmt.Errorf("%w: player is not seated at the table", ErrNotFound)
	ErrUnknownGameStatus   = errors.New("unknown game status")
	ErrUnknownAction       = errors.New("unknown scheduled action")
	ErrTableStateCorrupted = errors.New("table state is corrupted")
)

const (
	CodeValidation  = "validation"
	CodeConcurrency = "busy"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal"
)

// Code maps an error to the code sent to the client.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrConcurrency):
		return CodeConcurrency
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}
