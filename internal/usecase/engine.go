package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/config"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/repository"
	"github.com/rocketscienceinc/rummy-backend/internal/rummy"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
)

// Notifier delivers events to connected users. Delivery is best effort and must not block.
type Notifier interface {
	Emit(ctx context.Context, userIDs []string, event entity.Event, payload any)
}

type locker interface {
	Acquire(ctx context.Context, key string) (string, error)
	Release(ctx context.Context, key, token string) (bool, error)
	IsLocked(ctx context.Context, key string) (bool, error)
}

type walletService interface {
	CheckBalance(ctx context.Context, userID string) (entity.Balance, error)
	SettleRound(ctx context.Context, settlement entity.Settlement) error
}

type historyService interface {
	RecordRound(ctx context.Context, record entity.RoundRecord) error
	RecordTable(ctx context.Context, record entity.TableRecord) error
}

// Engine runs the table session state machine. Every table mutation happens inside one
// acquire/release bracket of the table lock against a freshly loaded table.
type Engine struct {
	logger *slog.Logger
	conf   config.Game
	busy   time.Duration

	locker    locker
	tables    repository.TableRepository
	users     repository.UserRepository
	scheduler scheduler.Scheduler
	notifier  Notifier
	wallet    walletService
	history   historyService
	dealer    *rummy.Dealer

	now func() time.Time
}

func NewEngine(
	logger *slog.Logger,
	conf *config.Config,
	locker locker,
	tables repository.TableRepository,
	users repository.UserRepository,
	sched scheduler.Scheduler,
	notifier Notifier,
	wallet walletService,
	history historyService,
	dealer *rummy.Dealer,
) *Engine {
	return &Engine{
		logger: logger.With("component", "engine"),
		conf:   conf.Game,
		busy:   conf.Lock.TTL,

		locker:    locker,
		tables:    tables,
		users:     users,
		scheduler: sched,
		notifier:  notifier,
		wallet:    wallet,
		history:   history,
		dealer:    dealer,

		now: time.Now,
	}
}

type notification struct {
	userIDs []string
	event   entity.Event
	payload any
}

type delayedJob struct {
	job   scheduler.Job
	delay time.Duration
}

// outcome collects everything a transition wants done once the table is written and unlocked.
type outcome struct {
	stale   bool
	deleted bool

	openSeats  bool
	closeSeats bool

	claimed  []string
	released []string

	events []notification
	jobs   []delayedJob

	settlement *entity.Settlement
	round      *entity.RoundRecord
	record     *entity.TableRecord
}

func (that *outcome) emit(userIDs []string, event entity.Event, payload any) {
	that.events = append(that.events, notification{userIDs: userIDs, event: event, payload: payload})
}

func (that *outcome) broadcast(table *entity.Table, event entity.Event, payload any) {
	that.emit(table.UserIDs(), event, payload)
}

func (that *outcome) schedule(table *entity.Table, action scheduler.Action, delay time.Duration) {
	that.jobs = append(that.jobs, delayedJob{
		job: scheduler.Job{
			TableID: table.ID,
			Action:  action,
			Fence:   fenceOf(table),
		},
		delay: delay,
	})
}

func fenceOf(table *entity.Table) scheduler.Fence {
	return scheduler.Fence{
		TurnNo:      table.TurnNo,
		RoundID:     table.RoundID,
		CurrentTurn: table.CurrentTurn,
	}
}

type transition func(table *entity.Table, out *outcome) error

// withTable is the lock bracket: acquire, load, apply, write, release. Events, timers and
// external calls run only after the release.
func (that *Engine) withTable(ctx context.Context, tableID string, apply transition) error {
	out, err := that.locked(ctx, tableID, apply)
	if err != nil {
		return err
	}

	that.dispatch(ctx, out)

	return nil
}

func (that *Engine) locked(ctx context.Context, tableID string, apply transition) (*outcome, error) {
	log := that.logger.With("method", "locked", "tableID", tableID)

	key := repository.TableLockKey(tableID)

	token, err := that.locker.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}

	defer func() {
		released, relErr := that.locker.Release(context.WithoutCancel(ctx), key, token)
		if relErr != nil {
			log.Error("failed to release table lock", "error", relErr)
			return
		}
		if !released {
			log.Warn("table lock expired before release")
		}
	}()

	table, err := that.tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to load table: %w", err)
	}

	out := &outcome{}
	if err = apply(table, out); err != nil {
		that.releaseUsers(ctx, tableID, out.claimed)
		return nil, err
	}

	if out.stale {
		return out, nil
	}

	if out.deleted {
		err = that.tables.Delete(ctx, table)
	} else {
		err = that.tables.Update(ctx, table)
	}
	if err != nil {
		if errors.Is(err, repository.ErrTableNotFound) {
			log.Error("table vanished while locked", "error", err)
		}
		that.releaseUsers(ctx, tableID, out.claimed)
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	that.releaseUsers(ctx, tableID, out.released)

	if !out.deleted {
		that.updateSeats(ctx, table, out)
	}

	return out, nil
}

// updateSeats keeps the open-table index in line with the free seats of the table.
func (that *Engine) updateSeats(ctx context.Context, table *entity.Table, out *outcome) {
	var err error

	switch {
	case out.closeSeats:
		err = that.tables.CloseSeats(ctx, table)
	case out.openSeats:
		err = that.tables.OpenSeats(ctx, table)
	}

	if err != nil {
		that.logger.Error("failed to update open seats", "tableID", table.ID, "error", err)
	}
}

func (that *Engine) releaseUsers(ctx context.Context, tableID string, userIDs []string) {
	for _, userID := range userIDs {
		if err := that.users.ReleaseTable(context.WithoutCancel(ctx), userID, tableID); err != nil {
			that.logger.Error("failed to release user", "tableID", tableID, "userID", userID, "error", err)
		}
	}
}

func (that *Engine) dispatch(ctx context.Context, out *outcome) {
	ctx = context.WithoutCancel(ctx)

	for _, event := range out.events {
		that.notifier.Emit(ctx, event.userIDs, event.event, event.payload)
	}

	for _, job := range out.jobs {
		that.scheduler.Schedule(job.job, job.delay)
	}

	if out.settlement != nil && len(out.settlement.Entries) > 0 {
		if err := that.wallet.SettleRound(ctx, *out.settlement); err != nil {
			that.logger.Error("failed to settle round", "roundID", out.settlement.RoundID, "error", err)
		}
	}

	if out.round != nil {
		if err := that.history.RecordRound(ctx, *out.round); err != nil {
			that.logger.Error("failed to record round", "roundID", out.round.RoundID, "error", err)
		}
	}

	if out.record != nil {
		if err := that.history.RecordTable(ctx, *out.record); err != nil {
			that.logger.Error("failed to record table", "tableID", out.record.TableID, "error", err)
		}
	}
}

type playerTransition func(table *entity.Table, player *entity.Player, out *outcome) error

// withPlayer runs a player action. A second action of the same user is refused while the
// first one is still running.
func (that *Engine) withPlayer(ctx context.Context, userID string, apply playerTransition) error {
	ok, err := that.users.MarkBusy(ctx, userID, that.busy)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrActionInProgress
	}

	defer func() {
		if clearErr := that.users.ClearBusy(context.WithoutCancel(ctx), userID); clearErr != nil {
			that.logger.Error("failed to clear busy flag", "userID", userID, "error", clearErr)
		}
	}()

	tableID, err := that.users.GetTableID(ctx, userID)
	if err != nil {
		return err
	}

	return that.withTable(ctx, tableID, func(table *entity.Table, out *outcome) error {
		player := table.PlayerByUser(userID)
		if player == nil {
			return apperror.ErrPlayerNotAtTable
		}

		return apply(table, player, out)
	})
}

// Draw takes the top card of the closed or the open deck.
func (that *Engine) Draw(ctx context.Context, userID string, card entity.Card) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.draw(table, player, card, out)
	})
}

// Discard ends the turn by putting a card from the hand on the open deck.
func (that *Engine) Discard(ctx context.Context, userID string, card entity.Card) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.discard(table, player, card, out)
	})
}

// Group stores the player's partition of the hand.
func (that *Engine) Group(ctx context.Context, userID string, groups []entity.Cards) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.group(table, player, groups, out)
	})
}

// Declare closes the player's hand with card and claims the round.
func (that *Engine) Declare(ctx context.Context, userID string, card entity.Card, groups []entity.Cards) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.declare(table, player, card, groups, out)
	})
}

// FinishDeclare submits the groups of a player after someone else declared.
func (that *Engine) FinishDeclare(ctx context.Context, userID string, groups []entity.Cards) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.finishDeclare(table, player, groups, out)
	})
}

func (that *Engine) Drop(ctx context.Context, userID string) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.drop(table, player, out)
	})
}

func (that *Engine) Leave(ctx context.Context, userID string) error {
	return that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		return that.leave(table, player, out)
	})
}

// Reconnect sends the caller its private view of the table.
func (that *Engine) Reconnect(ctx context.Context, userID string) (*HandView, error) {
	var view HandView

	err := that.withPlayer(ctx, userID, func(table *entity.Table, player *entity.Player, out *outcome) error {
		view = newHandView(table, player)
		out.stale = true
		out.emit([]string{userID}, entity.EventReconnectGame, view)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &view, nil
}

// StartRound starts a round on a waiting or finished-round table with at least two players.
func (that *Engine) StartRound(ctx context.Context, tableID string) error {
	return that.withTable(ctx, tableID, that.startRound)
}

// RunJob is the scheduler handler. A job whose table is gone or whose fence no longer matches
// the table is dropped.
func (that *Engine) RunJob(ctx context.Context, job scheduler.Job) error {
	log := that.logger.With("method", "RunJob", "tableID", job.TableID, "action", job.Action.String())

	err := that.withTable(ctx, job.TableID, func(table *entity.Table, out *outcome) error {
		if fenceOf(table) != job.Fence {
			log.Debug("stale job", "fence", job.Fence, "current", fenceOf(table))
			out.stale = true
			return nil
		}

		switch job.Action {
		case scheduler.ActionStartRound:
			return that.startRound(table, out)
		case scheduler.ActionDealCards:
			return that.dealCards(table, out)
		case scheduler.ActionTurnTimeout:
			return that.turnTimeout(table, out)
		case scheduler.ActionFinishDeclare:
			return that.finishDeclareTimeout(table, out)
		case scheduler.ActionNextRound:
			return that.nextRound(table, out)
		case scheduler.ActionGameEnd:
			return that.gameEnd(table, out)
		default:
			return fmt.Errorf("%w: %s", apperror.ErrUnknownAction, job.Action)
		}
	})

	if errors.Is(err, repository.ErrTableNotFound) {
		log.Debug("table is gone")
		return nil
	}

	return err
}
