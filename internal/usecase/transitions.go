package usecase

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/rummy"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
)

// startRound moves a waiting or finished-round table to roundStarted and arms the deal.
func (that *Engine) startRound(table *entity.Table, out *outcome) error {
	if !table.Status.CanStartRound() || len(table.Players) < 2 {
		out.stale = true
		return nil
	}

	table.RoundID = uuid.NewString()
	table.RoundNo++
	table.Status = entity.StatusRoundStarted
	table.TurnNo++
	table.CurrentTurn = ""
	table.DeclaredNo = 0
	table.JoinNo = 0
	table.ClosedDeck = nil
	table.OpenDeck = nil
	table.WildCard = ""
	table.DeclareCard = ""
	table.FirstDeclared = ""
	table.Winner = ""
	table.LeftPlayers = nil
	table.DroppedScore = 0
	table.CommissionAmount = 0
	table.Timeout = that.now().Add(that.conf.RoundStartDelay)

	for _, player := range table.Players {
		player.ResetRound()
	}

	out.broadcast(table, entity.EventRoundStarted, newTableView(table))
	out.schedule(table, scheduler.ActionDealCards, that.conf.RoundStartDelay)

	return nil
}

func (that *Engine) dealCards(table *entity.Table, out *outcome) error {
	if table.Status != entity.StatusRoundStarted {
		out.stale = true
		return nil
	}

	players := table.RoundPlayers()
	if len(players) < 2 {
		return that.endGame(table, out)
	}

	deal, err := that.dealer.Deal(len(players), that.conf.HandSize)
	if err != nil {
		return fmt.Errorf("failed to deal: %w", err)
	}

	for i, player := range players {
		player.Cards = deal.Hands[i]
		player.Groups = nil
	}

	table.ClosedDeck = deal.ClosedDeck
	table.OpenDeck = entity.Cards{deal.OpenCard}
	table.WildCard = deal.WildCard
	table.Status = entity.StatusDealCards
	table.CurrentTurn = players[(table.RoundNo-1)%len(players)].PlayerID

	for _, player := range players {
		out.emit([]string{player.UserID}, entity.EventDealCards, newHandView(table, player))
	}

	return that.play(table, out)
}

// play opens the turn of table.CurrentTurn.
func (that *Engine) play(table *entity.Table, out *outcome) error {
	current := table.PlayerBySlot(table.CurrentTurn)
	if current == nil {
		return fmt.Errorf("%w: current turn %q has no seat", apperror.ErrTableStateCorrupted, table.CurrentTurn)
	}

	current.Drawn = false
	table.Status = entity.StatusDrawCard
	table.TurnNo++
	table.Timeout = that.now().Add(that.conf.TurnTimeout)

	out.broadcast(table, entity.EventTurnChanged, newTableView(table))
	out.schedule(table, scheduler.ActionTurnTimeout, that.conf.TurnTimeout)

	return nil
}

// advance passes the turn to the next player still in the round, or ends the round when
// one player is left.
func (that *Engine) advance(table *entity.Table, out *outcome) error {
	if len(table.RoundPlayers()) < 2 {
		return that.endRound(table, out)
	}

	next, ok := table.NextRoundSlot(table.CurrentTurn)
	if !ok {
		return that.endRound(table, out)
	}
	table.CurrentTurn = next

	return that.play(table, out)
}

func checkTurn(table *entity.Table, player *entity.Player, status entity.Status) error {
	if table.Status != status {
		return apperror.ErrWrongStatus
	}
	if !player.InRound() {
		return apperror.ErrPlayerInactive
	}
	if table.CurrentTurn != player.PlayerID {
		return apperror.ErrNotYourTurn
	}
	return nil
}

func (that *Engine) draw(table *entity.Table, player *entity.Player, card entity.Card, out *outcome) error {
	if err := checkTurn(table, player, entity.StatusDrawCard); err != nil {
		return err
	}
	if player.Drawn {
		return apperror.ErrAlreadyDrawn
	}

	if card == "" {
		return apperror.ErrCardNotOnDeck
	}

	var fromOpen bool
	switch card {
	case table.OpenDeck.Top():
		table.DrawOpen()
		fromOpen = true
	case table.ClosedDeck.Top():
		table.DrawClosed()
	default:
		return apperror.ErrCardNotOnDeck
	}

	player.AddCard(card)
	player.Drawn = true
	table.Status = entity.StatusDiscardCard

	public := drawPayload{PlayerID: player.PlayerID, FromOpen: fromOpen, OpenTop: table.OpenDeck.Top()}
	if fromOpen {
		public.Card = card
	}
	private := public
	private.Card = card

	out.emit([]string{player.UserID}, entity.EventDrawRes, private)
	out.emit(othersOf(table, player), entity.EventDrawRes, public)

	return nil
}

func (that *Engine) discard(table *entity.Table, player *entity.Player, card entity.Card, out *outcome) error {
	if err := checkTurn(table, player, entity.StatusDiscardCard); err != nil {
		return err
	}
	if !player.Drawn || len(player.Cards) != that.conf.HandSize+1 {
		return apperror.ErrNotDrawn
	}
	if !player.RemoveCard(card) {
		return apperror.ErrCardNotInHand
	}

	table.OpenDeck = append(table.OpenDeck, card)
	player.Drawn = false
	player.TurnNo++

	that.reshuffleIfEmpty(table, out)

	next, _ := table.NextRoundSlot(player.PlayerID)
	out.broadcast(table, entity.EventDiscardRes, discardPayload{
		PlayerID:    player.PlayerID,
		Card:        card,
		OpenTop:     card,
		CurrentTurn: next,
	})

	return that.advance(table, out)
}

func (that *Engine) reshuffleIfEmpty(table *entity.Table, out *outcome) {
	if len(table.ClosedDeck) > 0 {
		return
	}

	table.ClosedDeck, table.OpenDeck = that.dealer.Reshuffle(table.OpenDeck)

	out.broadcast(table, entity.EventReshuffle, reshufflePayload{
		ClosedCount: len(table.ClosedDeck),
		OpenTop:     table.OpenDeck.Top(),
	})
}

func toGroups(groups []entity.Cards) []entity.CardGroup {
	out := make([]entity.CardGroup, 0, len(groups))
	for _, cards := range groups {
		out = append(out, entity.CardGroup{Cards: cards})
	}
	return out
}

// applyGroups validates and stores a partition that must cover the player's hand.
func applyGroups(player *entity.Player, groups []entity.Cards, wildCard entity.Card) (rummy.Validation, error) {
	validation := rummy.ValidateHand(toGroups(groups), wildCard)
	if !player.SetGroups(validation.Groups) {
		return rummy.Validation{}, apperror.ErrGroupsMismatch
	}
	return validation, nil
}

func (that *Engine) group(table *entity.Table, player *entity.Player, groups []entity.Cards, out *outcome) error {
	if !table.Status.InRound() {
		return apperror.ErrWrongStatus
	}
	if !player.InRound() {
		return apperror.ErrPlayerInactive
	}
	if player.Declare {
		return apperror.ErrAlreadyDeclared
	}

	validation, err := applyGroups(player, groups, table.WildCard)
	if err != nil {
		return err
	}

	out.emit([]string{player.UserID}, entity.EventGroupRes, groupPayload{
		Groups: player.Groups,
		Score:  rummy.Score(validation, table.WildCard, that.conf.MaxScore),
	})

	return nil
}

func (that *Engine) declare(
	table *entity.Table, player *entity.Player, card entity.Card, groups []entity.Cards, out *outcome,
) error {
	if err := checkTurn(table, player, entity.StatusDiscardCard); err != nil {
		return err
	}
	if !player.Drawn || len(player.Cards) != that.conf.HandSize+1 {
		return apperror.ErrNotDrawn
	}
	if !player.RemoveCard(card) {
		return apperror.ErrCardNotInHand
	}

	validation, err := applyGroups(player, groups, table.WildCard)
	if err != nil {
		return err
	}

	player.Declare = true
	player.Drawn = false

	if !validation.Valid() {
		player.SoftDrop = true
		player.Score = that.conf.MaxScore
		table.DroppedScore += player.Score
		table.OpenDeck = append(table.OpenDeck, card)

		out.broadcast(table, entity.EventDeclareRes, declarePayload{
			PlayerID: player.PlayerID,
			Valid:    false,
			Groups:   player.Groups,
			Score:    player.Score,
		})

		return that.advance(table, out)
	}

	player.IsDecValid = true
	player.Score = 0

	table.DeclareCard = card
	table.FirstDeclared = player.PlayerID
	table.Winner = player.PlayerID
	table.Status = entity.StatusDeclareCards
	table.JoinNo = len(table.RoundPlayers())
	table.DeclaredNo = 1
	table.TurnNo++
	table.Timeout = that.now().Add(that.conf.DeclareTimeout)

	out.broadcast(table, entity.EventDeclareRes, declarePayload{
		PlayerID: player.PlayerID,
		Valid:    true,
		Groups:   player.Groups,
		Timeout:  table.Timeout,
	})

	if table.DeclaredNo >= table.JoinNo {
		return that.endRound(table, out)
	}

	out.schedule(table, scheduler.ActionFinishDeclare, that.conf.DeclareTimeout)

	return nil
}

// settleDeclaration validates and scores the hand of a player who did not declare first.
func (that *Engine) settleDeclaration(table *entity.Table, player *entity.Player, validation rummy.Validation) {
	player.Groups = validation.Groups
	player.Declare = true
	player.IsDecValid = validation.Valid()
	player.Score = rummy.Score(validation, table.WildCard, that.conf.MaxScore)
	table.DeclaredNo++
}

func (that *Engine) finishDeclare(table *entity.Table, player *entity.Player, groups []entity.Cards, out *outcome) error {
	if table.Status != entity.StatusDeclareCards {
		return apperror.ErrWrongStatus
	}
	if !player.InRound() {
		return apperror.ErrPlayerInactive
	}
	if player.Declare {
		return apperror.ErrAlreadyDeclared
	}

	validation, err := applyGroups(player, groups, table.WildCard)
	if err != nil {
		return err
	}

	that.settleDeclaration(table, player, validation)

	out.broadcast(table, entity.EventFinishRes, scorePayload{PlayerID: player.PlayerID, Score: player.Score})

	if table.DeclaredNo >= table.JoinNo {
		return that.endRound(table, out)
	}

	return nil
}

func (that *Engine) finishDeclareTimeout(table *entity.Table, out *outcome) error {
	if table.Status != entity.StatusDeclareCards {
		out.stale = true
		return nil
	}

	for _, player := range table.RoundPlayers() {
		if player.Declare {
			continue
		}

		validation := rummy.ValidateHand(rummy.HandGroups(player), table.WildCard)
		that.settleDeclaration(table, player, validation)

		out.broadcast(table, entity.EventFinishRes, scorePayload{PlayerID: player.PlayerID, Score: player.Score})
	}

	return that.endRound(table, out)
}

// dropPlayer takes the player out of the round with the drop penalty. A drawn card goes back
// on the open deck.
func (that *Engine) dropPlayer(table *entity.Table, player *entity.Player, out *outcome) {
	score := that.conf.MiddleDropScore
	if player.TurnNo == 0 && !player.Drawn {
		score = that.conf.FirstDropScore
	}

	if player.Drawn && len(player.Cards) > 0 {
		last := player.Cards[len(player.Cards)-1]
		player.RemoveCard(last)
		table.OpenDeck = append(table.OpenDeck, last)
	}

	player.Drop = true
	player.Drawn = false
	player.Score = score
	table.DroppedScore += score

	out.broadcast(table, entity.EventDropRes, scorePayload{PlayerID: player.PlayerID, Score: score})
}

func (that *Engine) drop(table *entity.Table, player *entity.Player, out *outcome) error {
	if table.Status != entity.StatusDrawCard && table.Status != entity.StatusDiscardCard {
		return apperror.ErrWrongStatus
	}
	if !player.InRound() {
		return apperror.ErrPlayerInactive
	}

	that.dropPlayer(table, player, out)

	if table.CurrentTurn == player.PlayerID || len(table.RoundPlayers()) < 2 {
		return that.advance(table, out)
	}

	return nil
}

func (that *Engine) turnTimeout(table *entity.Table, out *outcome) error {
	if table.Status != entity.StatusDrawCard && table.Status != entity.StatusDiscardCard {
		out.stale = true
		return nil
	}

	player := table.PlayerBySlot(table.CurrentTurn)
	if player == nil || !player.InRound() {
		return fmt.Errorf("%w: turn of %q timed out without a seat", apperror.ErrTableStateCorrupted, table.CurrentTurn)
	}

	that.dropPlayer(table, player, out)

	return that.advance(table, out)
}

func (that *Engine) leave(table *entity.Table, player *entity.Player, out *outcome) error {
	if table.IsEnded() {
		return apperror.ErrWrongStatus
	}

	if table.Status.InRound() && player.InRound() {
		return that.leaveRound(table, player, out)
	}

	// a dropped player still owes the drop score for this round
	if table.Status.InRound() && player.Active && !player.Late {
		table.LeftPlayers = append(table.LeftPlayers, player)
	}

	that.unseat(table, player, out)

	if len(table.Players) < 2 && table.Status != entity.StatusWaiting {
		if table.Status.InRound() {
			return that.endRound(table, out)
		}
		return that.endGame(table, out)
	}

	return nil
}

// leaveRound keeps the leaving player in leftPlayers so the round can still be scored.
func (that *Engine) leaveRound(table *entity.Table, player *entity.Player, out *outcome) error {
	wasTurn := table.CurrentTurn == player.PlayerID

	switch table.Status {
	case entity.StatusDeclareCards:
		if !player.Declare {
			player.Score = that.conf.MaxScore
			player.Drop = true
			table.DroppedScore += player.Score
			table.JoinNo--
		}
	case entity.StatusDealCards, entity.StatusDrawCard, entity.StatusDiscardCard:
		that.dropPlayer(table, player, out)
	case entity.StatusWaiting, entity.StatusRoundStarted, entity.StatusRoundEnded, entity.StatusGameEnded:
	}

	table.LeftPlayers = append(table.LeftPlayers, player)
	that.unseat(table, player, out)

	if table.Status == entity.StatusDeclareCards {
		if len(table.RoundPlayers()) < 2 || table.DeclaredNo >= table.JoinNo {
			return that.endRound(table, out)
		}
		return nil
	}

	if wasTurn || len(table.RoundPlayers()) < 2 {
		return that.advance(table, out)
	}

	return nil
}

func (that *Engine) unseat(table *entity.Table, player *entity.Player, out *outcome) {
	out.broadcast(table, entity.EventPlayerLeftTable, leftPayload{PlayerID: player.PlayerID, UserID: player.UserID})

	table.Unseat(player.UserID)
	out.released = append(out.released, player.UserID)
	out.openSeats = true
}

func (that *Engine) nextRound(table *entity.Table, out *outcome) error {
	if table.Status != entity.StatusRoundEnded {
		out.stale = true
		return nil
	}

	if len(table.Players) < 2 {
		return that.endGame(table, out)
	}

	return that.startRound(table, out)
}

func (that *Engine) gameEnd(table *entity.Table, out *outcome) error {
	if table.Status != entity.StatusRoundEnded {
		out.stale = true
		return nil
	}

	return that.endGame(table, out)
}

// endGame deletes the table and frees its players.
func (that *Engine) endGame(table *entity.Table, out *outcome) error {
	table.Status = entity.StatusGameEnded
	table.TurnNo++

	out.broadcast(table, entity.EventGameEnd, newTableView(table))

	out.deleted = true
	out.released = append(out.released, table.UserIDs()...)
	out.record = &entity.TableRecord{
		TableID:   table.ID,
		TableType: table.TableType,
		Rounds:    table.RoundNo,
		Players:   table.UserIDs(),
		CreatedAt: table.CreatedAt,
		EndedAt:   that.now(),
	}

	return nil
}

func othersOf(table *entity.Table, player *entity.Player) []string {
	out := make([]string, 0, len(table.Players))
	for _, other := range table.Players {
		if other.UserID != player.UserID {
			out = append(out, other.UserID)
		}
	}
	return out
}
