package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

var (
	ErrTableNotFound      = fmt.Errorf("table %w", apperror.ErrNotFound)
	ErrTableAlreadyExists = errors.New("table already exists")
)

type TableRepository interface {
	Create(ctx context.Context, table *entity.Table) error
	Update(ctx context.Context, table *entity.Table) error
	GetByID(ctx context.Context, id string) (*entity.Table, error)
	Delete(ctx context.Context, table *entity.Table) error

	OpenTables(ctx context.Context, tableType string) ([]string, error)
	OpenSeats(ctx context.Context, table *entity.Table) error
	CloseSeats(ctx context.Context, table *entity.Table) error
}

type dbTable struct {
	client *redis.Client
}

func NewTableRepository(client *redis.Client) TableRepository {
	return &dbTable{
		client: client,
	}
}

func tableKey(id string) string {
	return "table:" + id
}

func openTablesKey(tableType string) string {
	return "tables:" + tableType
}

// Create stores a new table and lists it as open for its table type.
func (that *dbTable) Create(ctx context.Context, table *entity.Table) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	created, err := that.client.SetNX(ctx, tableKey(table.ID), tableJSON, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", ErrTableAlreadyExists, table.ID)
	}

	if err = that.client.SAdd(ctx, openTablesKey(table.TableType), table.ID).Err(); err != nil {
		return fmt.Errorf("failed to index table: %w", err)
	}

	return nil
}

// Update overwrites an existing table. Writing a table that no longer exists is refused.
func (that *dbTable) Update(ctx context.Context, table *entity.Table) error {
	tableJSON, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("could not marshal table: %w", err)
	}

	updated, err := that.client.SetXX(ctx, tableKey(table.ID), tableJSON, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to update table: %w", err)
	}

	if !updated {
		return ErrTableNotFound
	}

	return nil
}

func (that *dbTable) GetByID(ctx context.Context, id string) (*entity.Table, error) {
	response, err := that.client.Get(ctx, tableKey(id)).Bytes()

	if errors.Is(err, redis.Nil) {
		return nil, ErrTableNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get table by id: %w", err)
	}

	var table entity.Table
	if err = json.Unmarshal(response, &table); err != nil {
		return nil, fmt.Errorf("failed to unmarshal table: %w", err)
	}

	return &table, nil
}

func (that *dbTable) Delete(ctx context.Context, table *entity.Table) error {
	var del *redis.IntCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, tableKey(table.ID))
		pipe.SRem(ctx, openTablesKey(table.TableType), table.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}

	if del.Val() == 0 {
		return ErrTableNotFound
	}

	return nil
}

func (that *dbTable) OpenTables(ctx context.Context, tableType string) ([]string, error) {
	ids, err := that.client.SMembers(ctx, openTablesKey(tableType)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list open tables: %w", err)
	}

	return ids, nil
}

// CloseSeats removes the table from the open index so the matchmaker stops filling it.
func (that *dbTable) CloseSeats(ctx context.Context, table *entity.Table) error {
	if err := that.client.SRem(ctx, openTablesKey(table.TableType), table.ID).Err(); err != nil {
		return fmt.Errorf("failed to close table seats: %w", err)
	}

	return nil
}

func (that *dbTable) OpenSeats(ctx context.Context, table *entity.Table) error {
	if err := that.client.SAdd(ctx, openTablesKey(table.TableType), table.ID).Err(); err != nil {
		return fmt.Errorf("failed to open table seats: %w", err)
	}

	return nil
}
