package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

type Storage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*Storage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Storage{Connection: conn}, nil
}

func (that *Storage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS round_history (
			table_id  TEXT NOT NULL,
			round_id  TEXT NOT NULL PRIMARY KEY,
			round_no  INTEGER NOT NULL,
			wild_card TEXT NOT NULL,
			winner    TEXT NOT NULL,
			commission REAL NOT NULL,
			players   TEXT NOT NULL,
			ended_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS table_history (
			table_id   TEXT NOT NULL PRIMARY KEY,
			table_type TEXT NOT NULL,
			rounds     INTEGER NOT NULL,
			players    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			ended_at   TIMESTAMP NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *Storage) Close() error {
	return that.Connection.Close()
}
