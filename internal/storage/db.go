// Package storage provides the SQLite persistence layer: a cache of model
// responses and the persisted UI sessions.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite" // SQLite driver for database/sql

	"github.com/tcas-genius/tcas-genius-go/internal/config"
)

// DB wraps the SQLite database with a single-connection writer and a
// reader pool. WAL mode lets readers proceed while the writer commits.
type DB struct {
	writer   *sql.DB
	reader   *sql.DB
	path     string
	cacheTTL time.Duration

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	closeOnce sync.Once
	closeErr  error
}

const memoryPath = ":memory:"

// New opens (or creates) the database at dbPath and initializes the schema.
// cacheTTL specifies how long cached responses remain valid.
func New(ctx context.Context, dbPath string, cacheTTL time.Duration) (*DB, error) {
	if dbPath != memoryPath {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	writer, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer connection serializes writes and avoids SQLITE_BUSY storms.
	writer.SetMaxOpenConns(1)

	reader := writer
	if dbPath != memoryPath {
		// An in-memory database lives only as long as its connection.
		writer.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)
		reader, err = sql.Open("sqlite", dsn(dbPath))
		if err != nil {
			_ = writer.Close()
			return nil, fmt.Errorf("failed to open reader pool: %w", err)
		}
		reader.SetMaxOpenConns(4)
		reader.SetMaxIdleConns(4)
		reader.SetConnMaxLifetime(config.DatabaseConnMaxLifetime)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = closeAll(writer, reader)
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = closeAll(writer, reader)
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	db := &DB{
		writer:   writer,
		reader:   reader,
		path:     dbPath,
		cacheTTL: cacheTTL,
		encoder:  encoder,
		decoder:  decoder,
	}

	if err := db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := InitSchema(ctx, writer); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// dsn builds a modernc.org/sqlite DSN whose pragmas apply to every pooled connection.
func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.DatabaseBusyTimeout.Milliseconds()))
	q.Add("_pragma", "foreign_keys(1)")
	if path != memoryPath {
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	return "file:" + path + "?" + q.Encode()
}

func closeAll(writer, reader *sql.DB) error {
	var firstErr error
	if reader != nil && reader != writer {
		firstErr = reader.Close()
	}
	if writer != nil {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes the database connections. Later calls return the first result.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		if db.decoder != nil {
			db.decoder.Close()
		}
		if db.encoder != nil {
			_ = db.encoder.Close()
		}
		db.closeErr = closeAll(db.writer, db.reader)
	})
	return db.closeErr
}

// Ping checks that both pools can reach the database.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.writer.PingContext(ctx); err != nil {
		return err
	}
	return db.reader.PingContext(ctx)
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// CreateSnapshot writes a consistent copy of the database to destPath using
// VACUUM INTO. destPath must not exist.
func (db *DB) CreateSnapshot(ctx context.Context, destPath string) error {
	if db.path == memoryPath {
		return fmt.Errorf("cannot snapshot an in-memory database")
	}
	if _, err := db.writer.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("vacuum into %s: %w", destPath, err)
	}
	return nil
}

// ttlCutoff returns the Unix timestamp before which entries are expired.
func ttlCutoff(ttl time.Duration) int64 {
	return time.Now().Add(-ttl).Unix()
}

// NewTestDB creates an in-memory database for testing with a 7-day TTL.
func NewTestDB(ctx context.Context) (*DB, error) {
	return New(ctx, memoryPath, 168*time.Hour)
}
