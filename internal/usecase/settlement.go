package usecase

import (
	"math"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
)

func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func outcomeOf(table *entity.Table, player *entity.Player, left bool) entity.Outcome {
	switch {
	case !player.Active || player.Late:
		return entity.OutcomeSatOut
	case player.PlayerID == table.Winner && !player.Drop && !player.SoftDrop:
		return entity.OutcomeWon
	case left:
		return entity.OutcomeLeft
	case player.SoftDrop:
		return entity.OutcomeInvalid
	case player.Drop:
		return entity.OutcomeDropped
	default:
		return entity.OutcomeLost
	}
}

// endRound scores the round, prepares the settlement and arms either the next round or the
// end of the game.
func (that *Engine) endRound(table *entity.Table, out *outcome) error {
	if table.Winner == "" {
		if remaining := table.RoundPlayers(); len(remaining) == 1 {
			table.Winner = remaining[0].PlayerID
			remaining[0].Score = 0
		}
	}

	records := make([]entity.RoundPlayerRecord, 0, len(table.Players)+len(table.LeftPlayers))
	winner := -1
	pot := 0.0

	add := func(player *entity.Player, left bool) {
		record := entity.RoundPlayerRecord{
			UserID:   player.UserID,
			PlayerID: player.PlayerID,
			Cards:    player.Cards,
			Groups:   player.Groups,
			Score:    player.Score,
			Outcome:  outcomeOf(table, player, left),
		}

		switch record.Outcome {
		case entity.OutcomeWon:
			winner = len(records)
		case entity.OutcomeSatOut:
			record.Score = 0
		case entity.OutcomeLost, entity.OutcomeDropped, entity.OutcomeInvalid, entity.OutcomeLeft:
			record.Amount = -roundMoney(float64(player.Score) * table.PointValue)
			pot -= record.Amount
		}

		records = append(records, record)
	}

	for _, player := range table.Players {
		add(player, false)
	}
	for _, player := range table.LeftPlayers {
		add(player, true)
	}

	settlement := &entity.Settlement{TableID: table.ID, RoundID: table.RoundID}

	if winner >= 0 {
		commission := roundMoney(pot * that.conf.CommissionRate)
		records[winner].Amount = roundMoney(pot - commission)
		table.CommissionAmount = commission
		settlement.Commission = commission

		for _, record := range records {
			if record.Amount != 0 {
				settlement.Entries = append(settlement.Entries, entity.SettlementEntry{
					UserID: record.UserID,
					Amount: record.Amount,
				})
			}
		}
	}

	table.Status = entity.StatusRoundEnded
	table.CurrentTurn = ""
	table.TurnNo++

	next, delay := scheduler.ActionNextRound, that.conf.RoundEndDelay
	if len(table.Players) < 2 || (that.conf.MaxRounds > 0 && table.RoundNo >= that.conf.MaxRounds) {
		next, delay = scheduler.ActionGameEnd, that.conf.GameEndDelay
	}
	table.Timeout = that.now().Add(delay)

	out.settlement = settlement
	out.round = &entity.RoundRecord{
		TableID:    table.ID,
		RoundID:    table.RoundID,
		RoundNo:    table.RoundNo,
		WildCard:   table.WildCard,
		Winner:     table.Winner,
		Commission: table.CommissionAmount,
		Players:    records,
		EndedAt:    that.now(),
	}

	out.broadcast(table, entity.EventRoundEnded, RoundResult{
		TableID:    table.ID,
		RoundID:    table.RoundID,
		Winner:     table.Winner,
		WildCard:   table.WildCard,
		Commission: table.CommissionAmount,
		Players:    records,
		NextAt:     table.Timeout,
	})
	out.schedule(table, next, delay)

	return nil
}
