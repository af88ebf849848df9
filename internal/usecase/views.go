package usecase

import (
	"time"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

// SeatView is what every player at the table may see about a seat.
type SeatView struct {
	PlayerID  string `json:"playerId"`
	UserID    string `json:"userId"`
	Active    bool   `json:"active"`
	Late      bool   `json:"late"`
	Drop      bool   `json:"drop"`
	SoftDrop  bool   `json:"softDrop"`
	Declare   bool   `json:"declare"`
	CardCount int    `json:"cardCount"`
	Score     int    `json:"score"`
}

// TableView is the public state of a table. Hands stay hidden; the closed deck is announced
// by its top card and count.
type TableView struct {
	TableID       string        `json:"tableId"`
	TableType     string        `json:"tableType"`
	RoundID       string        `json:"roundId"`
	RoundNo       int           `json:"roundNo"`
	Status        entity.Status `json:"gameStatus"`
	CurrentTurn   string        `json:"currentTurn"`
	TurnNo        int           `json:"turnNo"`
	Timeout       time.Time     `json:"timeout"`
	OpenTop       entity.Card   `json:"openDeckTop"`
	ClosedTop     entity.Card   `json:"closedDeckTop"`
	ClosedCount   int           `json:"closedDeckCount"`
	WildCard      entity.Card   `json:"wildCard"`
	FirstDeclared string        `json:"firstDeclaredPlayer"`
	Players       []SeatView    `json:"players"`
}

// HandView is a table seen by one of its players.
type HandView struct {
	TableView
	PlayerID string             `json:"playerId"`
	Cards    entity.Cards       `json:"cards"`
	Groups   []entity.CardGroup `json:"cardsGroups"`
}

func newTableView(table *entity.Table) TableView {
	players := make([]SeatView, 0, len(table.Players))
	for _, player := range table.Players {
		players = append(players, SeatView{
			PlayerID:  player.PlayerID,
			UserID:    player.UserID,
			Active:    player.Active,
			Late:      player.Late,
			Drop:      player.Drop,
			SoftDrop:  player.SoftDrop,
			Declare:   player.Declare,
			CardCount: len(player.Cards),
			Score:     player.Score,
		})
	}

	return TableView{
		TableID:       table.ID,
		TableType:     table.TableType,
		RoundID:       table.RoundID,
		RoundNo:       table.RoundNo,
		Status:        table.Status,
		CurrentTurn:   table.CurrentTurn,
		TurnNo:        table.TurnNo,
		Timeout:       table.Timeout,
		OpenTop:       table.OpenDeck.Top(),
		ClosedTop:     table.ClosedDeck.Top(),
		ClosedCount:   len(table.ClosedDeck),
		WildCard:      table.WildCard,
		FirstDeclared: table.FirstDeclared,
		Players:       players,
	}
}

func newHandView(table *entity.Table, player *entity.Player) HandView {
	return HandView{
		TableView: newTableView(table),
		PlayerID:  player.PlayerID,
		Cards:     player.Cards,
		Groups:    player.Groups,
	}
}

type drawPayload struct {
	PlayerID string      `json:"playerId"`
	Card     entity.Card `json:"card,omitempty"`
	FromOpen bool        `json:"fromOpenDeck"`
	OpenTop  entity.Card `json:"openDeckTop"`
}

type discardPayload struct {
	PlayerID    string      `json:"playerId"`
	Card        entity.Card `json:"card"`
	OpenTop     entity.Card `json:"openDeckTop"`
	CurrentTurn string      `json:"currentTurn"`
}

type groupPayload struct {
	Groups []entity.CardGroup `json:"cardsGroups"`
	Score  int                `json:"score"`
}

type declarePayload struct {
	PlayerID string             `json:"playerId"`
	Valid    bool               `json:"valid"`
	Groups   []entity.CardGroup `json:"cardsGroups"`
	Score    int                `json:"score"`
	Timeout  time.Time          `json:"timeout"`
}

type scorePayload struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

type reshufflePayload struct {
	ClosedCount int         `json:"closedDeckCount"`
	OpenTop     entity.Card `json:"openDeckTop"`
}

type leftPayload struct {
	PlayerID string `json:"playerId"`
	UserID   string `json:"userId"`
}

// RoundResult is the payload of roundEnded.
type RoundResult struct {
	TableID    string                     `json:"tableId"`
	RoundID    string                     `json:"roundId"`
	Winner     string                     `json:"winner"`
	WildCard   entity.Card                `json:"wildCard"`
	Commission float64                    `json:"commissionAmount"`
	Players    []entity.RoundPlayerRecord `json:"players"`
	NextAt     time.Time                  `json:"nextAt"`
}

type queuePayload struct {
	TableType string    `json:"tableType"`
	ExpiresAt time.Time `json:"expiresAt"`
}
