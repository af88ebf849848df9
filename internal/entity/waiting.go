package entity

import "time"

// TableType describes a kind of table players queue for.
type TableType struct {
	ID         string  `yaml:"id" json:"id"`
	MaxPlayers int     `yaml:"max-players" json:"maxPlayers"`
	PointValue float64 `yaml:"point-value" json:"pointValue"`
	MinBalance float64 `yaml:"min-balance" json:"minBalance"`
}

// WaitingPlayer is an entry of the waiting pool.
type WaitingPlayer struct {
	UserID    string    `json:"userId"`
	TableType string    `json:"tableType"`
	JoinedAt  time.Time `json:"joinedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (that WaitingPlayer) IsExpired(now time.Time) bool {
	return !now.Before(that.ExpiresAt)
}
