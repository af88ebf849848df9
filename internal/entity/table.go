package entity

import (
	"time"
)

const MaxSeats = 6

// SeatSlots is the fixed slot alphabet; slot order is turn order.
var SeatSlots = [MaxSeats]string{"A", "B", "C", "D", "E", "F"}

type Table struct {
	ID               string    `json:"tableId"`
	TableType        string    `json:"tableType"`
	MaxPlayers       int       `json:"maxPlayers"`
	PointValue       float64   `json:"pointValue"`
	RoundID          string    `json:"roundId"`
	RoundNo          int       `json:"roundNo"`
	Status           Status    `json:"gameStatus"`
	CurrentTurn      string    `json:"currentTurn"`
	TurnNo           int       `json:"turnNo"`
	DeclaredNo       int       `json:"declaredNo"`
	JoinNo           int       `json:"joinNo"`
	Timeout          time.Time `json:"timeout"`
	ClosedDeck       Cards     `json:"closedDeckCards"`
	OpenDeck         Cards     `json:"openDeckCards"`
	WildCard         Card      `json:"wildCard"`
	DeclareCard      Card      `json:"declareCard"`
	FirstDeclared    string    `json:"firstDeclaredPlayer"`
	Winner           string    `json:"winner"`
	Players          []*Player `json:"players"`
	LeftPlayers      []*Player `json:"leftPlayers"`
	DroppedScore     int       `json:"droppedScore"`
	CommissionAmount float64   `json:"commissionAmount"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewTable(id string, tableType TableType, now time.Time) *Table {
	return &Table{
		ID:         id,
		TableType:  tableType.ID,
		MaxPlayers: tableType.MaxPlayers,
		PointValue: tableType.PointValue,
		Status:     StatusWaiting,
		CreatedAt:  now,
	}
}

func (that *Table) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Table) IsEnded() bool {
	return that.Status == StatusGameEnded
}

func (that *Table) PlayerBySlot(slot string) *Player {
	for _, player := range that.Players {
		if player.PlayerID == slot {
			return player
		}
	}
	return nil
}

func (that *Table) PlayerByUser(userID string) *Player {
	for _, player := range that.Players {
		if player.UserID == userID {
			return player
		}
	}
	return nil
}

// RoundPlayers returns the players still competing in the round.
func (that *Table) RoundPlayers() []*Player {
	out := make([]*Player, 0, len(that.Players))
	for _, player := range that.Players {
		if player.InRound() {
			out = append(out, player)
		}
	}
	return out
}

func (that *Table) UserIDs() []string {
	out := make([]string, 0, len(that.Players))
	for _, player := range that.Players {
		out = append(out, player.UserID)
	}
	return out
}

// FreeSeats is the number of seats left.
func (that *Table) FreeSeats() int {
	return that.MaxPlayers - len(that.Players)
}

// FreeSlot returns the first unused slot.
func (that *Table) FreeSlot() (string, bool) {
	for _, slot := range SeatSlots[:that.MaxPlayers] {
		if that.PlayerBySlot(slot) == nil {
			return slot, true
		}
	}
	return "", false
}

// Seat adds a user to the first free slot.
func (that *Table) Seat(userID string) (*Player, bool) {
	slot, ok := that.FreeSlot()
	if !ok {
		return nil, false
	}

	player := NewPlayer(slot, userID, that.Status.InRound())
	if that.Status == StatusRoundStarted {
		// cards are not dealt yet, the seat joins this round
		player.ResetRound()
	}
	that.Players = append(that.Players, player)
	that.sortPlayers()

	return player, true
}

// Unseat removes the user's seat and returns it.
func (that *Table) Unseat(userID string) *Player {
	for i, player := range that.Players {
		if player.UserID == userID {
			that.Players = append(that.Players[:i], that.Players[i+1:]...)
			return player
		}
	}
	return nil
}

func slotIndex(slot string) int {
	for i, s := range SeatSlots {
		if s == slot {
			return i
		}
	}
	return len(SeatSlots)
}

func (that *Table) sortPlayers() {
	players := that.Players
	for i := 1; i < len(players); i++ {
		for j := i; j > 0 && slotIndex(players[j].PlayerID) < slotIndex(players[j-1].PlayerID); j-- {
			players[j], players[j-1] = players[j-1], players[j]
		}
	}
}

// NextRoundSlot returns the slot after `from` (in seat order) of a player still in the round.
// `from` need not be seated any more: the search starts after where its seat was.
func (that *Table) NextRoundSlot(from string) (string, bool) {
	n := len(that.Players)
	if n == 0 {
		return "", false
	}

	// players are kept in slot order
	start := -1
	for i, player := range that.Players {
		if slotIndex(player.PlayerID) > slotIndex(from) {
			break
		}
		start = i
	}

	for step := 1; step <= n; step++ {
		player := that.Players[(start+step+n)%n]
		if player.InRound() && player.PlayerID != from {
			return player.PlayerID, true
		}
	}

	return "", false
}

// DrawClosed pops the top of the closed deck.
func (that *Table) DrawClosed() (Card, bool) {
	card := that.ClosedDeck.Top()
	if card == "" {
		return "", false
	}
	that.ClosedDeck = that.ClosedDeck[:len(that.ClosedDeck)-1]
	return card, true
}

// DrawOpen pops the top of the open deck.
func (that *Table) DrawOpen() (Card, bool) {
	card := that.OpenDeck.Top()
	if card == "" {
		return "", false
	}
	that.OpenDeck = that.OpenDeck[:len(that.OpenDeck)-1]
	return card, true
}
