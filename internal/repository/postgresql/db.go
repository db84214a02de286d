package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"parking_tickets/internal/config"
)

func NewDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the ticket table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ticket_id   TEXT PRIMARY KEY,
		plate       TEXT NOT NULL,
		parking_lot INTEGER NOT NULL CHECK (parking_lot BETWEEN 1 AND 9999),
		entry_time  TIMESTAMPTZ NOT NULL,
		exit_time   TIMESTAMPTZ NULL CHECK (exit_time IS NULL OR exit_time >= entry_time)
	)`, quoteTable(table))
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func quoteTable(table string) string {
	return pgx.Identifier{table}.Sanitize()
}
