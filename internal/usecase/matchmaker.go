package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/config"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/repository"
)

type tableSeater interface {
	CreateTable(ctx context.Context, tableType entity.TableType, userIDs []string) (Seating, error)
	SeatPlayers(ctx context.Context, tableID string, userIDs []string) (Seating, error)
}

// Matchmaker turns the waiting pool into seated players.
type Matchmaker struct {
	logger     *slog.Logger
	conf       config.Matchmaker
	tableTypes []entity.TableType

	locker   locker
	pool     repository.PoolRepository
	tables   repository.TableRepository
	users    repository.UserRepository
	wallet   walletService
	seater   tableSeater
	notifier Notifier

	now func() time.Time
}

func NewMatchmaker(
	logger *slog.Logger,
	conf *config.Config,
	locker locker,
	pool repository.PoolRepository,
	tables repository.TableRepository,
	users repository.UserRepository,
	wallet walletService,
	seater tableSeater,
	notifier Notifier,
) *Matchmaker {
	return &Matchmaker{
		logger:     logger.With("component", "matchmaker"),
		conf:       conf.Matchmaker,
		tableTypes: conf.TableTypes,

		locker:   locker,
		pool:     pool,
		tables:   tables,
		users:    users,
		wallet:   wallet,
		seater:   seater,
		notifier: notifier,

		now: time.Now,
	}
}

func (that *Matchmaker) tableType(id string) (entity.TableType, error) {
	for _, tableType := range that.tableTypes {
		if tableType.ID == id {
			return tableType, nil
		}
	}
	return entity.TableType{}, fmt.Errorf("%w: %s", apperror.ErrUnknownTableType, id)
}

// Enqueue puts the user in the waiting pool of a table type.
func (that *Matchmaker) Enqueue(ctx context.Context, userID, tableTypeID string) (*entity.WaitingPlayer, error) {
	tableType, err := that.tableType(tableTypeID)
	if err != nil {
		return nil, err
	}

	_, err = that.users.GetTableID(ctx, userID)
	if err == nil {
		return nil, apperror.ErrAlreadySeated
	}
	if !errors.Is(err, apperror.ErrNoActiveTable) {
		return nil, fmt.Errorf("failed to check active table: %w", err)
	}

	balance, err := that.wallet.CheckBalance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if balance.Available() < tableType.MinBalance {
		return nil, apperror.ErrInsufficientFunds
	}

	now := that.now()
	player := entity.WaitingPlayer{
		UserID:    userID,
		TableType: tableType.ID,
		JoinedAt:  now,
		ExpiresAt: now.Add(that.conf.WaitTimeout),
	}

	added, err := that.pool.Add(ctx, player)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, apperror.ErrAlreadyQueued
	}

	that.notifier.Emit(ctx, []string{userID}, entity.EventQueued, queuePayload{
		TableType: player.TableType,
		ExpiresAt: player.ExpiresAt,
	})

	return &player, nil
}

// Cancel takes the user out of the waiting pool.
func (that *Matchmaker) Cancel(ctx context.Context, userID, tableTypeID string) error {
	if _, err := that.tableType(tableTypeID); err != nil {
		return err
	}

	removed, err := that.pool.Remove(ctx, tableTypeID, userID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("waiting player %w", apperror.ErrNotFound)
	}

	return nil
}

// Run matches players every poll interval until ctx is done.
func (that *Matchmaker) Run(ctx context.Context) {
	ticker := time.NewTicker(that.conf.PollInterval)
	defer ticker.Stop()

	that.logger.Info("matchmaker started", "interval", that.conf.PollInterval.String())

	for {
		select {
		case <-ctx.Done():
			that.logger.Info("matchmaker stopped")
			return
		case <-ticker.C:
			that.RunOnce(ctx)
		}
	}
}

// RunOnce makes one matching pass over every table type.
func (that *Matchmaker) RunOnce(ctx context.Context) {
	for _, tableType := range that.tableTypes {
		if err := that.match(ctx, tableType); err != nil {
			that.logger.Error("matching failed", "tableType", tableType.ID, "error", err)
		}
	}
}

// match runs under the queue lock so a user leaves the pool exactly once.
func (that *Matchmaker) match(ctx context.Context, tableType entity.TableType) error {
	log := that.logger.With("method", "match", "tableType", tableType.ID)

	key := repository.QueueLockKey(tableType.ID)

	token, err := that.locker.Acquire(ctx, key)
	if errors.Is(err, apperror.ErrConcurrency) {
		log.Debug("queue is busy, pass skipped")
		return nil
	}
	if err != nil {
		return err
	}

	defer func() {
		if _, relErr := that.locker.Release(context.WithoutCancel(ctx), key, token); relErr != nil {
			log.Error("failed to release queue lock", "error", relErr)
		}
	}()

	waiting, err := that.pool.List(ctx, tableType.ID)
	if err != nil {
		return err
	}

	now := that.now()

	var (
		ready []entity.WaitingPlayer
		done  []string
	)

	for _, player := range waiting {
		if player.IsExpired(now) {
			done = append(done, player.UserID)
			that.notifier.Emit(ctx, []string{player.UserID}, entity.EventMatchExpired, queuePayload{
				TableType: player.TableType,
				ExpiresAt: player.ExpiresAt,
			})
			continue
		}
		ready = append(ready, player)
	}

	slices.SortFunc(ready, func(a, b entity.WaitingPlayer) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})

	queue := make([]string, 0, len(ready))
	for _, player := range ready {
		queue = append(queue, player.UserID)
	}

	queue, matched, err := that.fillOpenTables(ctx, tableType, queue)
	done = append(done, matched...)
	if err != nil {
		log.Error("failed to fill open tables", "error", err)
	}

	for len(queue) >= 2 {
		size := min(tableType.MaxPlayers, len(queue))
		batch := queue[:size]

		seating, createErr := that.seater.CreateTable(ctx, tableType, batch)
		if createErr != nil {
			log.Error("failed to create table", "error", createErr)
			break
		}

		settled := slices.Concat(seating.Seated, seating.Rejected)
		done = append(done, settled...)

		// users the table could not take stay at the head of the queue
		queue = append(without(batch, settled), queue[size:]...)
	}

	if len(done) == 0 {
		return nil
	}

	removed, err := that.pool.Remove(ctx, tableType.ID, done...)
	if err != nil {
		return err
	}

	log.Info("pool updated", "removed", removed, "waiting", len(queue))

	return nil
}

// fillOpenTables offers the queue to tables that still have free seats.
func (that *Matchmaker) fillOpenTables(
	ctx context.Context, tableType entity.TableType, queue []string,
) ([]string, []string, error) {
	var matched []string

	if len(queue) == 0 {
		return queue, matched, nil
	}

	tableIDs, err := that.tables.OpenTables(ctx, tableType.ID)
	if err != nil {
		return queue, matched, err
	}

	for _, tableID := range tableIDs {
		if len(queue) == 0 {
			break
		}

		locked, err := that.locker.IsLocked(ctx, repository.TableLockKey(tableID))
		if err != nil || locked {
			continue
		}

		table, err := that.tables.GetByID(ctx, tableID)
		if err != nil || table.IsEnded() || table.FreeSeats() <= 0 {
			continue
		}

		offer := queue[:min(table.FreeSeats(), len(queue))]

		seating, err := that.seater.SeatPlayers(ctx, tableID, offer)
		if err != nil {
			that.logger.Warn("failed to seat players", "tableID", tableID, "error", err)
			continue
		}

		settled := slices.Concat(seating.Seated, seating.Rejected)
		matched = append(matched, settled...)
		queue = without(queue, settled)
	}

	return queue, matched, nil
}

func without(list, drop []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if !slices.Contains(drop, item) {
			out = append(out, item)
		}
	}
	return out
}
