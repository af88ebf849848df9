package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
	"github.com/rocketscienceinc/rummy-backend/internal/scheduler"
)

// Seating reports what happened to the users offered to a table. Rejected users already
// play at another table; users in neither list were not seated for lack of room.
type Seating struct {
	TableID  string
	Seated   []string
	Rejected []string
}

// CreateTable opens a table for the given users and arms its first round. Fewer than two
// claimable users leave nothing behind.
func (that *Engine) CreateTable(ctx context.Context, tableType entity.TableType, userIDs []string) (Seating, error) {
	log := that.logger.With("method", "CreateTable", "tableType", tableType.ID)

	table := entity.NewTable(uuid.NewString(), tableType, that.now())
	seating := Seating{TableID: table.ID}

	for _, userID := range userIDs {
		if table.FreeSeats() == 0 {
			break
		}

		claimed, err := that.users.ClaimTable(ctx, userID, table.ID)
		if err != nil {
			that.releaseUsers(ctx, table.ID, seating.Seated)
			return Seating{}, err
		}
		if !claimed {
			seating.Rejected = append(seating.Rejected, userID)
			continue
		}

		table.Seat(userID)
		seating.Seated = append(seating.Seated, userID)
	}

	if len(seating.Seated) < 2 {
		that.releaseUsers(ctx, table.ID, seating.Seated)
		seating.Seated = nil
		return seating, nil
	}

	if err := that.tables.Create(ctx, table); err != nil {
		that.releaseUsers(ctx, table.ID, seating.Seated)
		return Seating{}, fmt.Errorf("failed to create table: %w", err)
	}

	if table.FreeSeats() == 0 {
		if err := that.tables.CloseSeats(ctx, table); err != nil {
			log.Error("failed to close seats", "tableID", table.ID, "error", err)
		}
	}

	log.Info("table created", "tableID", table.ID, "players", seating.Seated)

	out := &outcome{}
	for _, player := range table.Players {
		out.broadcast(table, entity.EventPlayerJoined, newHandView(table, player))
	}
	out.schedule(table, scheduler.ActionStartRound, 0)
	that.dispatch(ctx, out)

	return seating, nil
}

// SeatPlayers adds users to an existing table, re-checking the free seats under the lock.
func (that *Engine) SeatPlayers(ctx context.Context, tableID string, userIDs []string) (Seating, error) {
	seating := Seating{TableID: tableID}

	err := that.withTable(ctx, tableID, func(table *entity.Table, out *outcome) error {
		if table.IsEnded() {
			out.stale = true
			return nil
		}

		for _, userID := range userIDs {
			if table.FreeSeats() == 0 {
				break
			}

			claimed, err := that.users.ClaimTable(ctx, userID, table.ID)
			if err != nil {
				return err
			}
			if !claimed {
				seating.Rejected = append(seating.Rejected, userID)
				continue
			}
			out.claimed = append(out.claimed, userID)
			seating.Seated = append(seating.Seated, userID)

			player, _ := table.Seat(userID)
			out.broadcast(table, entity.EventPlayerJoined, newHandView(table, player))
		}

		if len(out.claimed) == 0 {
			out.stale = true
			return nil
		}

		out.closeSeats = table.FreeSeats() == 0

		if table.IsWaiting() && len(table.Players) >= 2 {
			out.schedule(table, scheduler.ActionStartRound, 0)
		}

		return nil
	})
	if err != nil {
		return Seating{}, err
	}

	return seating, nil
}
