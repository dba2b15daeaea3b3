package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	apperrors "github.com/tcas-genius/tcas-genius-go/internal/errors"
	"github.com/tcas-genius/tcas-genius-go/internal/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	db, err := storage.NewTestDB(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewManager(db, nil)
}

func TestManager_CreateAndGet(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()

	created, err := m.Create(ctx, admission.LangEN)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.UpdatedAt.IsZero())

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, admission.LangEN, got.Lang)
	assert.Equal(t, ViewHome, got.View)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestManager_Update(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, admission.LangTH)
	require.NoError(t, err)

	updated, err := m.Update(ctx, created.ID, func(s *State) error {
		s.GoSearch()
		s.BeginSearch("Law")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, ViewSearch, updated.View)

	boom := errors.New("boom")
	_, err = m.Update(ctx, created.ID, func(s *State) error {
		s.GoHome()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, ViewSearch, got.View, "failed update must not be saved")
	assert.Equal(t, "Law", got.Faculty)
}

func TestManager_SerializesUpdates(t *testing.T) {
	t.Parallel()
	m := newTestManager(t)
	ctx := context.Background()
	created, err := m.Create(ctx, admission.LangTH)
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Update(ctx, created.ID, func(s *State) error {
				s.OpenContact("hi")
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Chat, n)

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks, "locks are released")
}
