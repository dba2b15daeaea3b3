package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createResponsesTable(ctx, db); err != nil {
		return err
	}
	return createSessionsTable(ctx, db)
}

func createResponsesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS ai_responses (
		kind TEXT NOT NULL,
		lang TEXT NOT NULL,
		key TEXT NOT NULL,
		payload BLOB NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (kind, lang, key)
	);
	CREATE INDEX IF NOT EXISTS idx_ai_responses_cached_at ON ai_responses(cached_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create ai_responses table: %w", err)
	}
	return nil
}

func createSessionsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		state BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	return nil
}
