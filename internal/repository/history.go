package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rocketscienceinc/rummy-backend/internal/apperror"
	"github.com/rocketscienceinc/rummy-backend/internal/entity"
)

// HistoryRepository is the audit trail of finished rounds and tables.
type HistoryRepository interface {
	RecordRound(ctx context.Context, record entity.RoundRecord) error
	RecordTable(ctx context.Context, record entity.TableRecord) error
	FindRound(ctx context.Context, roundID string) (*entity.RoundRecord, error)
}

type historyRepository struct {
	conn *sql.DB
}

func NewHistoryRepository(conn *sql.DB) HistoryRepository {
	return &historyRepository{
		conn: conn,
	}
}

func (that *historyRepository) RecordRound(ctx context.Context, record entity.RoundRecord) error {
	query := `INSERT OR IGNORE INTO round_history
		(table_id, round_id, round_no, wild_card, winner, commission, players, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	players, err := json.Marshal(record.Players)
	if err != nil {
		return fmt.Errorf("could not marshal round players: %w", err)
	}

	_, err = that.conn.ExecContext(ctx, query,
		record.TableID, record.RoundID, record.RoundNo, string(record.WildCard),
		record.Winner, record.Commission, string(players), record.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("can't save round: %w", err)
	}

	return nil
}

func (that *historyRepository) RecordTable(ctx context.Context, record entity.TableRecord) error {
	query := `INSERT OR REPLACE INTO table_history
		(table_id, table_type, rounds, players, created_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		record.TableID, record.TableType, record.Rounds, strings.Join(record.Players, ","),
		record.CreatedAt.UTC().Format(time.RFC3339Nano), record.EndedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("can't save table: %w", err)
	}

	return nil
}

func (that *historyRepository) FindRound(ctx context.Context, roundID string) (*entity.RoundRecord, error) {
	query := `SELECT table_id, round_id, round_no, wild_card, winner, commission, players, ended_at
		FROM round_history WHERE round_id = ?`

	var (
		record   entity.RoundRecord
		wildCard string
		players  string
		endedAt  string
	)

	err := that.conn.QueryRowContext(ctx, query, roundID).Scan(
		&record.TableID, &record.RoundID, &record.RoundNo, &wildCard,
		&record.Winner, &record.Commission, &players, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("can't find round: %w", err)
	}

	record.WildCard = entity.Card(wildCard)
	if record.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return nil, fmt.Errorf("failed to parse round end time: %w", err)
	}

	if err = json.Unmarshal([]byte(players), &record.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round players: %w", err)
	}

	return &record, nil
}
