package entity

import (
	"fmt"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
)

// Status is the game status of a table.
type Status uint8

const (
	StatusWaiting Status = iota
	StatusRoundStarted
	StatusDealCards
	StatusDrawCard
	StatusDiscardCard
	StatusDeclareCards
	StatusRoundEnded
	StatusGameEnded
)

var statusNames = [...]string{
	StatusWaiting:      "waiting",
	StatusRoundStarted: "roundStarted",
	StatusDealCards:    "dealCards",
	StatusDrawCard:     "drawCard",
	StatusDiscardCard:  "discardCard",
	StatusDeclareCards: "declareCards",
	StatusRoundEnded:   "roundEnded",
	StatusGameEnded:    "gameEnded",
}

func (that Status) String() string {
	if int(that) < len(statusNames) {
		return statusNames[that]
	}
	return fmt.Sprintf("Status(%d)", uint8(that))
}

func (that Status) MarshalText() ([]byte, error) {
	if int(that) >= len(statusNames) {
		return nil, fmt.Errorf("%w: %d", apperror.ErrUnknownGameStatus, uint8(that))
	}
	return []byte(statusNames[that]), nil
}

func (that *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*that = Status(status)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", apperror.ErrUnknownGameStatus, text)
}

// InRound reports whether cards are out and a round is being played.
func (that Status) InRound() bool {
	switch that {
	case StatusDealCards, StatusDrawCard, StatusDiscardCard, StatusDeclareCards:
		return true
	case StatusWaiting, StatusRoundStarted, StatusRoundEnded, StatusGameEnded:
		return false
	default:
		return false
	}
}

// CanStartRound reports whether the waiting→roundStarted transition is allowed.
func (that Status) CanStartRound() bool {
	return that == StatusWaiting || that == StatusRoundEnded
}
