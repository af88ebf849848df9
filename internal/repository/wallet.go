package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

const (
	walletBalanceField  = "balance"
	walletReservedField = "reserved"
	commissionKey       = "wallet:house"

	settlementMarkerTTL = 7 * 24 * time.Hour
	settleRetries       = 5
)

// ErrRoundAlreadySettled is returned when a settlement for the round was applied before.
var ErrRoundAlreadySettled = errors.New("round already settled")

var ErrCorruptedWallet = errors.New("wallet is not a hash")

// WalletRepository is a Redis ledger of player balances.
type WalletRepository interface {
	CheckBalance(ctx context.Context, userID string) (entity.Balance, error)
	Deposit(ctx context.Context, userID string, amount float64) error
	SettleRound(ctx context.Context, settlement entity.Settlement) error
}

type dbWallet struct {
	client *redis.Client
}

func NewWalletRepository(client *redis.Client) WalletRepository {
	return &dbWallet{
		client: client,
	}
}

func walletKey(userID string) string {
	return "wallet:" + userID
}

func settlementKey(roundID string) string {
	return "settlement:" + roundID
}

func (that *dbWallet) CheckBalance(ctx context.Context, userID string) (entity.Balance, error) {
	var fields walletFields

	err := that.client.HMGet(ctx, walletKey(userID), walletBalanceField, walletReservedField).Scan(&fields)
	if err != nil {
		return entity.Balance{}, fmt.Errorf("failed to check balance of user %s: %w", userID, err)
	}

	return entity.Balance{
		Amount:   fields.Amount,
		Reserved: fields.Reserved,
	}, nil
}

type walletFields struct {
	Amount   float64 `redis:"balance"`
	Reserved float64 `redis:"reserved"`
}

func (that *dbWallet) Deposit(ctx context.Context, userID string, amount float64) error {
	if err := that.client.HIncrByFloat(ctx, walletKey(userID), walletBalanceField, amount).Err(); err != nil {
		return fmt.Errorf("failed to deposit to user %s: %w", userID, err)
	}

	return nil
}

// SettleRound applies every entry of the settlement at most once per round. The round marker
// and the balance changes are written in one transaction, so a failed settlement leaves
// nothing behind and can be retried.
func (that *dbWallet) SettleRound(ctx context.Context, settlement entity.Settlement) error {
	marker := settlementKey(settlement.RoundID)

	keys := make([]string, 0, len(settlement.Entries)+1)
	for _, entry := range settlement.Entries {
		keys = append(keys, walletKey(entry.UserID))
	}
	if settlement.Commission > 0 {
		keys = append(keys, commissionKey)
	}

	settle := func(tx *redis.Tx) error {
		settled, err := tx.Exists(ctx, marker).Result()
		if err != nil {
			return fmt.Errorf("failed to check round marker: %w", err)
		}
		if settled > 0 {
			return fmt.Errorf("%w: %s", ErrRoundAlreadySettled, settlement.RoundID)
		}

		// EXEC does not roll back: every wallet is checked before the first write
		for _, key := range keys {
			kind, err := tx.Type(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("failed to check wallet %s: %w", key, err)
			}
			if kind != "hash" && kind != "none" {
				return fmt.Errorf("%w: %s holds a %s", ErrCorruptedWallet, key, kind)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, marker, settlement.TableID, settlementMarkerTTL)
			for _, entry := range settlement.Entries {
				pipe.HIncrByFloat(ctx, walletKey(entry.UserID), walletBalanceField, entry.Amount)
			}
			if settlement.Commission > 0 {
				pipe.HIncrByFloat(ctx, commissionKey, walletBalanceField, settlement.Commission)
			}
			return nil
		})
		return err
	}

	for range settleRetries {
		err := that.client.Watch(ctx, settle, append(keys, marker)...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to settle round %s: %w", settlement.RoundID, err)
		}
		return nil
	}

	return fmt.Errorf("failed to settle round %s: %w", settlement.RoundID, redis.TxFailedErr)
}
