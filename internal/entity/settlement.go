package entity

import "time"

type Balance struct {
	Amount   float64 `json:"balance"`
	Reserved float64 `json:"reserved"`
}

// Available is the part of the balance not held by other tables.
func (that Balance) Available() float64 {
	return that.Amount - that.Reserved
}

type SettlementEntry struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// Settlement is the money movement of one finished round. Negative amounts are debits.
type Settlement struct {
	TableID    string            `json:"tableId"`
	RoundID    string            `json:"roundId"`
	Entries    []SettlementEntry `json:"entries"`
	Commission float64           `json:"commission"`
}

type Outcome string

const (
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
	OutcomeDropped Outcome = "dropped"
	OutcomeInvalid Outcome = "invalidDeclare"
	OutcomeLeft    Outcome = "left"
	OutcomeSatOut  Outcome = "satOut"
)

type RoundPlayerRecord struct {
	UserID   string      `json:"userId"`
	PlayerID string      `json:"playerId"`
	Cards    Cards       `json:"cards"`
	Groups   []CardGroup `json:"cardsGroups"`
	Score    int         `json:"score"`
	Amount   float64     `json:"amount"`
	Outcome  Outcome     `json:"outcome"`
}

type RoundRecord struct {
	TableID    string              `json:"tableId"`
	RoundID    string              `json:"roundId"`
	RoundNo    int                 `json:"roundNo"`
	WildCard   Card                `json:"wildCard"`
	Winner     string              `json:"winner"`
	Commission float64             `json:"commission"`
	Players    []RoundPlayerRecord `json:"players"`
	EndedAt    time.Time           `json:"endedAt"`
}

type TableRecord struct {
	TableID   string    `json:"tableId"`
	TableType string    `json:"tableType"`
	Rounds    int       `json:"rounds"`
	Players   []string  `json:"players"`
	CreatedAt time.Time `json:"createdAt"`
	EndedAt   time.Time `json:"endedAt"`
}
