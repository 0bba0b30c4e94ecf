package services

import (
	"context"
	"errors"
	"sync"

	"github.com/openquest/dungeonmind/pkg/state"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.Mutex
	games     map[string]*state.GameState
	notes     map[string]*state.DMNotes
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		games: make(map[string]*state.GameState),
		notes: make(map[string]*state.DMNotes),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on save with the given error
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveGame(ctx context.Context, id string, gs *state.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	if gs == nil {
		return errors.New("game state cannot be nil")
	}
	m.games[id] = gs
	return nil
}

func (m *MockStorage) LoadGame(ctx context.Context, id string) (*state.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gs, exists := m.games[id]
	if !exists {
		return nil, nil
	}
	return gs, nil
}

func (m *MockStorage) DeleteGame(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
	delete(m.notes, id)
	return nil
}

func (m *MockStorage) SaveNotes(ctx context.Context, id string, notes *state.DMNotes) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.notes[id] = notes
	return nil
}

func (m *MockStorage) LoadNotes(ctx context.Context, id string) (*state.DMNotes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	notes, exists := m.notes[id]
	if !exists {
		return nil, nil
	}
	return notes, nil
}
