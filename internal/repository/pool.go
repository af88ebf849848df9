package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

// PoolRepository is the waiting pool, one hash per table type keyed by user id.
type PoolRepository interface {
	Add(ctx context.Context, player entity.WaitingPlayer) (bool, error)
	List(ctx context.Context, tableType string) ([]entity.WaitingPlayer, error)
	Remove(ctx context.Context, tableType string, userIDs ...string) (int64, error)
}

type dbPool struct {
	client *redis.Client
}

func NewPoolRepository(client *redis.Client) PoolRepository {
	return &dbPool{
		client: client,
	}
}

func poolKey(tableType string) string {
	return "pool:" + tableType
}

// Add stores the entry unless the user is already waiting for this table type.
func (that *dbPool) Add(ctx context.Context, player entity.WaitingPlayer) (bool, error) {
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return false, fmt.Errorf("could not marshal waiting player: %w", err)
	}

	added, err := that.client.HSetNX(ctx, poolKey(player.TableType), player.UserID, playerJSON).Result()
	if err != nil {
		return false, fmt.Errorf("failed to add waiting player: %w", err)
	}

	return added, nil
}

func (that *dbPool) List(ctx context.Context, tableType string) ([]entity.WaitingPlayer, error) {
	entries, err := that.client.HGetAll(ctx, poolKey(tableType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting players: %w", err)
	}

	players := make([]entity.WaitingPlayer, 0, len(entries))
	for userID, raw := range entries {
		var player entity.WaitingPlayer
		if err = json.Unmarshal([]byte(raw), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal waiting player %s: %w", userID, err)
		}
		players = append(players, player)
	}

	return players, nil
}

// Remove deletes the given users and returns how many entries were actually removed.
func (that *dbPool) Remove(ctx context.Context, tableType string, userIDs ...string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	removed, err := that.client.HDel(ctx, poolKey(tableType), userIDs...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to remove waiting players: %w", err)
	}

	return removed, nil
}
