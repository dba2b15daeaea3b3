package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
)

// GetSession returns the stored state of session id.
func (db *DB) GetSession(ctx context.Context, id string) ([]byte, error) {
	var state []byte
	err := db.reader.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, id).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return state, nil
}

// PutSession inserts or replaces the state of session id.
func (db *DB) PutSession(ctx context.Context, id string, state []byte, updatedAt time.Time) error {
	query := `INSERT INTO sessions (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`
	if _, err := db.writer.ExecContext(ctx, query, id, state, updatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions idle for longer than ttl.
func (db *DB) DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	result, err := db.writer.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at <= ?`, ttlCutoff(ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}

// CountSessions returns the number of stored sessions.
func (db *DB) CountSessions(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}
