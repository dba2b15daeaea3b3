package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
)

// CachedResponse is a stored model answer.
type CachedResponse struct {
	Kind     string // universities, details
	Lang     string
	Key      string // normalized request key
	Payload  []byte // raw JSON
	Model    string // producing model, informational
	CachedAt time.Time
}

// GetResponse returns a cached response that is younger than the cache TTL.
// It returns apperrors.ErrNotFound when there is none.
func (db *DB) GetResponse(ctx context.Context, kind, lang, key string) (*CachedResponse, error) {
	query := `SELECT payload, model, cached_at FROM ai_responses
		WHERE kind = ? AND lang = ? AND key = ? AND cached_at > ?`

	var (
		compressed []byte
		model      string
		cachedAt   int64
	)
	err := db.reader.QueryRowContext(ctx, query, kind, lang, key, ttlCutoff(db.cacheTTL)).
		Scan(&compressed, &model, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached response: %w", err)
	}

	payload, err := db.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cached response: %w", err)
	}

	return &CachedResponse{
		Kind:     kind,
		Lang:     lang,
		Key:      key,
		Payload:  payload,
		Model:    model,
		CachedAt: time.Unix(cachedAt, 0),
	}, nil
}

// PutResponse inserts or replaces a cached response. A zero CachedAt means now.
func (db *DB) PutResponse(ctx context.Context, r *CachedResponse) error {
	cachedAt := r.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now()
	}

	query := `INSERT INTO ai_responses (kind, lang, key, payload, model, cached_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, lang, key) DO UPDATE SET
			payload = excluded.payload,
			model = excluded.model,
			cached_at = excluded.cached_at`

	compressed := db.encoder.EncodeAll(r.Payload, nil)
	if _, err := db.writer.ExecContext(ctx, query, r.Kind, r.Lang, r.Key, compressed, r.Model, cachedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save cached response: %w", err)
	}
	return nil
}

// DeleteExpiredResponses removes responses older than ttl.
func (db *DB) DeleteExpiredResponses(ctx context.Context, ttl time.Duration) (int64, error) {
	result, err := db.writer.ExecContext(ctx, `DELETE FROM ai_responses WHERE cached_at <= ?`, ttlCutoff(ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired responses: %w", err)
	}
	return result.RowsAffected()
}

// CountResponses returns the number of cached responses.
func (db *DB) CountResponses(ctx context.Context) (int, error) {
	var count int
	if err := db.reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM ai_responses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count responses: %w", err)
	}
	return count, nil
}

// ListResponseKeys returns the keys cached for kind and lang, newest first.
func (db *DB) ListResponseKeys(ctx context.Context, kind, lang string, limit int) ([]string, error) {
	rows, err := db.reader.QueryContext(ctx,
		`SELECT key FROM ai_responses WHERE kind = ? AND lang = ? AND cached_at > ?
		ORDER BY cached_at DESC LIMIT ?`, kind, lang, ttlCutoff(db.cacheTTL), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list response keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan response key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
