package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
	"github.com/tcas-genius/tcas-genius-go/internal/metrics"
)

// Store persists encoded session states. *storage.DB satisfies it.
type Store interface {
	GetSession(ctx context.Context, id string) ([]byte, error)
	PutSession(ctx context.Context, id string, state []byte, updatedAt time.Time) error
}

// Manager loads, mutates, and saves session states. Mutations of one
// session are serialized; different sessions proceed in parallel.
type Manager struct {
	store   Store
	metrics *metrics.Metrics
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a manager over store. m may be nil.
func NewManager(store Store, m *metrics.Metrics) *Manager {
	return &Manager{
		store:   store,
		metrics: m,
		now:     time.Now,
		locks:   make(map[string]*sessionLock),
	}
}

// Now returns the manager's clock.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Create starts a new session on the home view.
func (m *Manager) Create(ctx context.Context, lang admission.Lang) (*State, error) {
	state := NewState(uuid.NewString(), lang)
	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	m.metrics.RecordSessionTransition(string(state.View))
	return state, nil
}

// Get loads session id. A missing session yields errors.ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*State, error) {
	return m.load(ctx, id)
}

// Update applies fn to session id and saves the result. If fn fails the
// state is not saved.
func (m *Manager) Update(ctx context.Context, id string, fn func(*State) error) (*State, error) {
	unlock := m.lock(id)
	defer unlock()

	state, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	before := state.View

	if err := fn(state); err != nil {
		return nil, err
	}

	if err := m.save(ctx, state); err != nil {
		return nil, err
	}
	if state.View != before {
		m.metrics.RecordSessionTransition(string(state.View))
	}
	return state, nil
}

func (m *Manager) load(ctx context.Context, id string) (*State, error) {
	raw, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if state.Chat == nil {
		state.Chat = admission.Transcript{}
	}
	return &state, nil
}

func (m *Manager) save(ctx context.Context, state *State) error {
	state.UpdatedAt = m.now()
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	return m.store.PutSession(ctx, state.ID, raw, state.UpdatedAt)
}

// lock acquires the mutex of session id and returns its release function.
func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &sessionLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
