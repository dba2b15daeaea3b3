package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewTestDB(context.Background())
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// TestNew_FileSystemDatabase tests database creation with file system persistence
func TestNew_FileSystemDatabase(t *testing.T) {
	t.Parallel()
	dbPath := filepath.Join(t.TempDir(), "nested", "tcas.db")

	ctx := context.Background()
	db, err := New(ctx, dbPath, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file not created: %s", dbPath)
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}

	if err := db.PutResponse(ctx, &CachedResponse{Kind: "universities", Lang: "th", Key: "medicine", Payload: []byte(`["A"]`)}); err != nil {
		t.Fatalf("PutResponse failed: %v", err)
	}
	if _, err := db.GetResponse(ctx, "universities", "th", "medicine"); err != nil {
		t.Fatalf("GetResponse from reader pool failed: %v", err)
	}
}

func TestResponses_RoundTrip(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	payload := []byte(`{"rounds":[{"name":"Portfolio"}],"tuitionEstimate":"50,000"}`)
	if err := db.PutResponse(ctx, &CachedResponse{
		Kind:    "details",
		Lang:    "en",
		Key:     "medicine|mahidol university",
		Payload: payload,
		Model:   "gemini-2.5-flash",
	}); err != nil {
		t.Fatalf("PutResponse failed: %v", err)
	}

	got, err := db.GetResponse(ctx, "details", "en", "medicine|mahidol university")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if string(got.Payload) != string(payload) {
		t.Errorf("Payload = %s, want %s", got.Payload, payload)
	}
	if got.Model != "gemini-2.5-flash" {
		t.Errorf("Model = %q", got.Model)
	}
	if got.CachedAt.IsZero() {
		t.Error("CachedAt should be set")
	}

	// Same key in another language is a different entry
	if _, err := db.GetResponse(ctx, "details", "th", "medicine|mahidol university"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other lang, got %v", err)
	}
}

func TestResponses_Upsert(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	for _, p := range []string{`["A"]`, `["B"]`} {
		if err := db.PutResponse(ctx, &CachedResponse{Kind: "universities", Lang: "th", Key: "law", Payload: []byte(p)}); err != nil {
			t.Fatalf("PutResponse failed: %v", err)
		}
	}

	got, err := db.GetResponse(ctx, "universities", "th", "law")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if string(got.Payload) != `["B"]` {
		t.Errorf("Payload = %s, want latest", got.Payload)
	}

	count, err := db.CountResponses(ctx)
	if err != nil {
		t.Fatalf("CountResponses failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountResponses = %d, want 1", count)
	}
}

func TestResponses_TTL(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	old := time.Now().Add(-200 * time.Hour)
	if err := db.PutResponse(ctx, &CachedResponse{Kind: "universities", Lang: "th", Key: "old", Payload: []byte(`[]`), CachedAt: old}); err != nil {
		t.Fatalf("PutResponse failed: %v", err)
	}
	if err := db.PutResponse(ctx, &CachedResponse{Kind: "universities", Lang: "th", Key: "fresh", Payload: []byte(`[]`)}); err != nil {
		t.Fatalf("PutResponse failed: %v", err)
	}

	if _, err := db.GetResponse(ctx, "universities", "th", "old"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expired entry should be invisible, got %v", err)
	}

	deleted, err := db.DeleteExpiredResponses(ctx, 168*time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpiredResponses failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	keys, err := db.ListResponseKeys(ctx, "universities", "th", 10)
	if err != nil {
		t.Fatalf("ListResponseKeys failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != "fresh" {
		t.Errorf("keys = %v, want [fresh]", keys)
	}
}

func TestSessions(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetSession(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	now := time.Now()
	if err := db.PutSession(ctx, "s1", []byte(`{"view":"home"}`), now); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := db.PutSession(ctx, "s1", []byte(`{"view":"search"}`), now); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}
	if err := db.PutSession(ctx, "s2", []byte(`{}`), now.Add(-48*time.Hour)); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	state, err := db.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if string(state) != `{"view":"search"}` {
		t.Errorf("state = %s", state)
	}

	deleted, err := db.DeleteExpiredSessions(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpiredSessions failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	count, err := db.CountSessions(ctx)
	if err != nil {
		t.Fatalf("CountSessions failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountSessions = %d, want 1", count)
	}
}

func TestCreateSnapshot(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	ctx := context.Background()

	db, err := New(ctx, filepath.Join(dir, "tcas.db"), time.Hour)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PutSession(ctx, "s1", []byte(`{}`), time.Now()); err != nil {
		t.Fatalf("PutSession failed: %v", err)
	}

	snapshotPath := filepath.Join(dir, "snapshot.db")
	if err := db.CreateSnapshot(ctx, snapshotPath); err != nil {
		t.Fatalf("CreateSnapshot failed: %v", err)
	}

	restored, err := New(ctx, snapshotPath, time.Hour)
	if err != nil {
		t.Fatalf("Failed to open snapshot: %v", err)
	}
	defer func() { _ = restored.Close() }()

	if _, err := restored.GetSession(ctx, "s1"); err != nil {
		t.Errorf("snapshot missing session: %v", err)
	}
}

func TestCreateSnapshot_InMemory(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	if err := db.CreateSnapshot(context.Background(), filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("expected error for in-memory snapshot")
	}
}
