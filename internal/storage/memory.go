package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/taxpilot-ai/taxpilot/internal/common"
	"github.com/taxpilot-ai/taxpilot/internal/model"
)

// MemoryStore is an in-process SessionStore for tests and ephemeral runs.
// The mutex serializes all access, satisfying the per-key write contract.
type MemoryStore struct {
	sessions map[string]model.Return
	order    map[string]int
	seq      int
	mu       sync.Mutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]model.Return),
		order:    make(map[string]int),
	}
}

// Get loads a session snapshot, or a fresh intake-stage state when the
// session is unknown.
func (m *MemoryStore) Get(ctx context.Context, sessionID string) (model.Return, error) {
	if err := validateContext(ctx); err != nil {
		return model.Return{}, err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return model.Return{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return model.NewReturn(sessionID), nil
	}
	return state.Clone(), nil
}

// Put stores the full snapshot, replacing any prior state for the session.
func (m *MemoryStore) Put(ctx context.Context, state model.Return) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(state.SessionID, "state.SessionID"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[state.SessionID] = state.Clone()
	m.seq++
	m.order[state.SessionID] = m.seq
	return nil
}

// List returns all stored snapshots, most recently updated first.
func (m *MemoryStore) List(ctx context.Context) ([]model.Return, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	states := make([]model.Return, 0, len(m.sessions))
	for _, state := range m.sessions {
		states = append(states, state.Clone())
	}
	sort.Slice(states, func(i, j int) bool {
		return m.order[states[i].SessionID] > m.order[states[j].SessionID]
	})
	return states, nil
}

// Delete removes a session. Deleting an unknown session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(sessionID, "sessionID"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", common.ErrSessionNotFound, sessionID)
	}
	delete(m.sessions, sessionID)
	delete(m.order, sessionID)
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
