package db

import (
	"context"
	"database/sql"
	"fmt"

	"finora/api/logger"

	_ "github.com/lib/pq"
)

// Open connects to Postgres at url and verifies the connection.
func Open(ctx context.Context, url string) (*sql.DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	conn, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Get().Info("successfully connected to Postgres")
	return conn, nil
}

// Migrate creates the tables the service owns.
func Migrate(ctx context.Context, conn *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id             TEXT PRIMARY KEY,
			email          TEXT NOT NULL DEFAULT '',
			display_name   TEXT NOT NULL DEFAULT '',
			photo_url      TEXT,
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("error creating users table: %w", err)
	}
	return nil
}
