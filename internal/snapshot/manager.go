// Package snapshot keeps the cache database alive across redeploys by
// uploading periodic compressed copies to object storage and restoring the
// latest one at startup.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcas-genius/tcas-genius-go/internal/config"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
	"github.com/tcas-genius/tcas-genius-go/internal/r2client"
)

// ErrNotFound indicates no snapshot exists in object storage.
var ErrNotFound = errors.New("snapshot: not found")

// ObjectStore is the subset of *r2client.Client used for snapshots.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// Source produces a consistent copy of a database. *storage.DB satisfies it.
type Source interface {
	CreateSnapshot(ctx context.Context, destPath string) error
}

// Config holds snapshot manager configuration.
type Config struct {
	SnapshotKey string        // object key, e.g. "snapshots/tcas.db.zst"
	Interval    time.Duration // upload period
	TempDir     string        // scratch space for snapshot files
}

// Manager uploads and restores snapshots.
type Manager struct {
	store   ObjectStore
	config  Config
	metrics *metrics.Metrics

	mu       sync.Mutex // one upload at a time
	lastETag string
}

// New creates a manager. m may be nil.
func New(store ObjectStore, cfg Config, m *metrics.Metrics) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Manager{store: store, config: cfg, metrics: m}
}

// Restore downloads the latest snapshot to dbPath when no local database
// exists. It reports whether a snapshot was restored. A missing snapshot is
// not an error.
func (m *Manager) Restore(ctx context.Context, dbPath string) (bool, error) {
	if _, err := os.Stat(dbPath); err == nil {
		slog.InfoContext(ctx, "Local database present, skipping snapshot restore", "path", dbPath)
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
	defer cancel()

	body, etag, err := m.store.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			slog.InfoContext(ctx, "No snapshot found, starting with an empty database", "key", m.config.SnapshotKey)
			return false, nil
		}
		m.metrics.RecordSnapshot("restore", "error")
		return false, fmt.Errorf("download snapshot: %w", err)
	}
	defer body.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		m.metrics.RecordSnapshot("restore", "error")
		return false, fmt.Errorf("create database directory: %w", err)
	}
	if err := r2client.DecompressStream(body, dbPath); err != nil {
		m.metrics.RecordSnapshot("restore", "error")
		return false, fmt.Errorf("decompress snapshot: %w", err)
	}

	m.mu.Lock()
	m.lastETag = etag
	m.mu.Unlock()

	m.metrics.RecordSnapshot("restore", "success")
	slog.InfoContext(ctx, "Database restored from snapshot", "key", m.config.SnapshotKey, "etag", etag)
	return true, nil
}

// Upload compresses a fresh copy of src and uploads it, returning the ETag.
func (m *Manager) Upload(ctx context.Context, src Source) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, config.SnapshotTransfer)
	defer cancel()

	etag, err := m.upload(ctx, src)
	if err != nil {
		m.metrics.RecordSnapshot("upload", "error")
		return "", err
	}
	m.lastETag = etag
	m.metrics.RecordSnapshot("upload", "success")
	return etag, nil
}

func (m *Manager) upload(ctx context.Context, src Source) (string, error) {
	snapshotPath := filepath.Join(m.config.TempDir, "snapshot_"+uuid.NewString()+".db")
	if err := src.CreateSnapshot(ctx, snapshotPath); err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(snapshotPath)

	compressedPath := snapshotPath + ".zst"
	if err := r2client.CompressFile(snapshotPath, compressedPath); err != nil {
		return "", fmt.Errorf("compress snapshot: %w", err)
	}
	defer os.Remove(compressedPath)

	f, err := os.Open(compressedPath)
	if err != nil {
		return "", fmt.Errorf("open compressed snapshot: %w", err)
	}
	defer f.Close()

	etag, err := m.store.Upload(ctx, m.config.SnapshotKey, f, "application/zstd")
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return etag, nil
}

// Run uploads a snapshot every interval until ctx is done, then uploads a
// final one so the latest cache survives the shutdown.
func (m *Manager) Run(ctx context.Context, src Source) {
	if m.config.Interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Snapshot uploads started",
		"interval", m.config.Interval,
		"key", m.config.SnapshotKey)

	for {
		select {
		case <-ctx.Done():
			finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.SnapshotTransfer)
			if _, err := m.Upload(finalCtx, src); err != nil {
				slog.Error("Final snapshot upload failed", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
			etag, err := m.Upload(ctx, src)
			if err != nil {
				slog.WarnContext(ctx, "Snapshot upload failed", "error", err)
				continue
			}
			slog.DebugContext(ctx, "Snapshot uploaded", "etag", etag)
		}
	}
}

// LastETag returns the ETag of the last restored or uploaded snapshot, or
// "" when snapshots are disabled.
func (m *Manager) LastETag() string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastETag
}
