package services

import (
	"context"

	"github.com/openquest/dungeonmind/pkg/state"
)

// HealthChecker defines basic health check capabilities
type HealthChecker interface {
	// Ping tests the service connection
	Ping(ctx context.Context) error
}

// Closer defines cleanup capabilities
type Closer interface {
	// Close closes the service connection
	Close() error
}

// Storage defines the interface for game persistence
type Storage interface {
	HealthChecker
	Closer

	// SaveGame saves a game state under its ID
	SaveGame(ctx context.Context, id string, gs *state.GameState) error

	// LoadGame retrieves a game state by ID
	// Returns nil if the game doesn't exist
	LoadGame(ctx context.Context, id string) (*state.GameState, error)

	// DeleteGame removes a game and its notes by ID
	DeleteGame(ctx context.Context, id string) error

	// SaveNotes saves the dungeon master's notes for a game
	SaveNotes(ctx context.Context, id string, notes *state.DMNotes) error

	// LoadNotes retrieves the dungeon master's notes for a game
	// Returns nil if no notes exist
	LoadNotes(ctx context.Context, id string) (*state.DMNotes, error)
}
