package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

// Message is an inbound action of a connected player.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound message.
type Event struct {
	Event   entity.Event `json:"event"`
	Payload any          `json:"payload,omitempty"`
}

// ActionPayload carries the arguments of every inbound action; each action reads its own fields.
type ActionPayload struct {
	TableType string     `json:"tableType,omitempty"`
	Card      string     `json:"card,omitempty"`
	Groups    [][]string `json:"groups,omitempty"`
}

type errorPayload struct {
	Action string `json:"action"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

func (that ActionPayload) card() (entity.Card, error) {
	return entity.ParseCard(that.Card)
}

func (that ActionPayload) groups() ([]entity.Cards, error) {
	groups := make([]entity.Cards, 0, len(that.Groups))
	for _, codes := range that.Groups {
		group := make(entity.Cards, 0, len(codes))
		for _, code := range codes {
			card, err := entity.ParseCard(code)
			if err != nil {
				return nil, err
			}
			group = append(group, card)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func decodePayload(msg *Message) (ActionPayload, error) {
	var payload ActionPayload
	if len(msg.Payload) == 0 {
		return payload, nil
	}

	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("%w: malformed payload: %w", apperror.ErrValidation, err)
	}

	return payload, nil
}
