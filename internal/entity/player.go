package entity

// Player is a seat at a table. PlayerID is the seat slot and defines turn order.
type Player struct {
	PlayerID   string      `json:"playerId"`
	UserID     string      `json:"userId"`
	Cards      Cards       `json:"cards"`
	Groups     []CardGroup `json:"cardsGroups"`
	Active     bool        `json:"active"`
	Late       bool        `json:"late"`
	Drop       bool        `json:"drop"`
	SoftDrop   bool        `json:"softDrop"`
	Declare    bool        `json:"declare"`
	Drawn      bool        `json:"drawn"`
	TurnNo     int         `json:"turnNo"`
	Score      int         `json:"score"`
	IsDecValid bool        `json:"isDecValid"`
}

func NewPlayer(slot, userID string, late bool) *Player {
	return &Player{
		PlayerID: slot,
		UserID:   userID,
		Late:     late,
	}
}

// ResetRound clears every per-round field and activates the seat.
func (that *Player) ResetRound() {
	that.Cards = nil
	that.Groups = nil
	that.Active = true
	that.Late = false
	that.Drop = false
	that.SoftDrop = false
	that.Declare = false
	that.Drawn = false
	that.TurnNo = 0
	that.Score = 0
	that.IsDecValid = false
}

// InRound reports whether the player still competes in the current round.
func (that *Player) InRound() bool {
	return that.Active && !that.Late && !that.Drop && !that.SoftDrop
}

// SetGroups stores the player's partition of the hand. Groups must cover the hand exactly.
func (that *Player) SetGroups(groups []CardGroup) bool {
	if !FlattenGroups(groups).SameMultiset(that.Cards) {
		return false
	}
	that.Groups = groups
	return true
}

// RemoveCard takes the card out of the hand and out of whichever group holds it.
func (that *Player) RemoveCard(card Card) bool {
	cards, ok := that.Cards.Remove(card)
	if !ok {
		return false
	}
	that.Cards = cards

	for i := range that.Groups {
		if rest, found := that.Groups[i].Cards.Remove(card); found {
			that.Groups[i].Cards = rest
			that.Groups[i].GroupState = GroupUndefined
			that.Groups[i].Valid = false
			break
		}
	}

	return true
}

// AddCard puts a drawn card in the hand and in a trailing ungrouped group.
func (that *Player) AddCard(card Card) {
	that.Cards = append(that.Cards, card)
	if len(that.Groups) > 0 {
		that.Groups = append(that.Groups, CardGroup{Cards: Cards{card}})
	}
}
