package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
)

const userTableField = "tableId"

// releaseTableScript clears the user's table only while it still points at the given table.
var releaseTableScript = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

// UserRepository keeps the user -> active table index and the per-user action flag.
type UserRepository interface {
	ClaimTable(ctx context.Context, userID, tableID string) (bool, error)
	GetTableID(ctx context.Context, userID string) (string, error)
	ReleaseTable(ctx context.Context, userID, tableID string) error

	MarkBusy(ctx context.Context, userID string, ttl time.Duration) (bool, error)
	ClearBusy(ctx context.Context, userID string) error
}

type dbUser struct {
	client *redis.Client
}

func NewUserRepository(client *redis.Client) UserRepository {
	return &dbUser{
		client: client,
	}
}

func userKey(userID string) string {
	return "user:" + userID
}

func busyKey(userID string) string {
	return "busy:" + userID
}

// ClaimTable binds the user to the table unless the user already plays elsewhere.
func (that *dbUser) ClaimTable(ctx context.Context, userID, tableID string) (bool, error) {
	claimed, err := that.client.HSetNX(ctx, userKey(userID), userTableField, tableID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim table for user %s: %w", userID, err)
	}

	return claimed, nil
}

func (that *dbUser) GetTableID(ctx context.Context, userID string) (string, error) {
	tableID, err := that.client.HGet(ctx, userKey(userID), userTableField).Result()

	if errors.Is(err, redis.Nil) {
		return "", apperror.ErrNoActiveTable
	}

	if err != nil {
		return "", fmt.Errorf("failed to get table of user %s: %w", userID, err)
	}

	return tableID, nil
}

func (that *dbUser) ReleaseTable(ctx context.Context, userID, tableID string) error {
	err := releaseTableScript.Run(ctx, that.client, []string{userKey(userID)}, userTableField, tableID).Err()
	if err != nil {
		return fmt.Errorf("failed to release table of user %s: %w", userID, err)
	}

	return nil
}

// MarkBusy sets the advisory flag. It reports false when an action of the user is still in flight.
func (that *dbUser) MarkBusy(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	ok, err := that.client.SetNX(ctx, busyKey(userID), time.Now().UnixMilli(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark user %s busy: %w", userID, err)
	}

	return ok, nil
}

func (that *dbUser) ClearBusy(ctx context.Context, userID string) error {
	if err := that.client.Del(ctx, busyKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear busy flag of user %s: %w", userID, err)
	}

	return nil
}
