package state

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openquest/dungeonmind/pkg/chat"
)

// StatBlock holds the player's attributes. Health and mana live in [0,100],
// experience is non-negative, and the four core stats never drop below 1.
type StatBlock struct {
	Health       int `json:"health"`
	Mana         int `json:"mana"`
	Experience   int `json:"experience"`
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
	Luck         int `json:"luck"`
}

// DefaultStats returns the starting attributes for a new game.
func DefaultStats() StatBlock {
	return StatBlock{
		Health:       100,
		Mana:         100,
		Experience:   0,
		Strength:     5,
		Dexterity:    5,
		Intelligence: 5,
		Luck:         5,
	}
}

// Value looks up a stat by its lowercase name.
func (s StatBlock) Value(name string) (int, bool) {
	switch name {
	case "health":
		return s.Health, true
	case "mana":
		return s.Mana, true
	case "experience":
		return s.Experience, true
	case "strength":
		return s.Strength, true
	case "dexterity":
		return s.Dexterity, true
	case "intelligence":
		return s.Intelligence, true
	case "luck":
		return s.Luck, true
	}
	return 0, false
}

// StatNames lists the tracked stats in a stable order.
var StatNames = []string{"health", "mana", "experience", "strength", "dexterity", "intelligence", "luck"}

// Item is a stackable inventory entry. Identity for merge purposes is
// case-insensitive name equality.
type Item struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// GameState is the full state of one adventure. The pipeline receives a
// snapshot and returns a new snapshot; it never mutates a caller-held value.
type GameState struct {
	ID        uuid.UUID          `json:"id"`
	Scenario  string             `json:"scenario,omitempty"` // narrative premise for the adventure
	Messages  []chat.GameMessage `json:"messages,omitempty"`
	Stats     StatBlock          `json:"stats"`
	Inventory []Item             `json:"inventory,omitempty"`
	CreatedAt time.Time          `json:"created_at,omitzero"`
	UpdatedAt time.Time          `json:"updated_at,omitzero"`
}

// NewGameState creates a fresh game with default stats.
func NewGameState(scenario string) *GameState {
	now := time.Now().UTC()
	return &GameState{
		ID:        uuid.New(),
		Scenario:  scenario,
		Messages:  make([]chat.GameMessage, 0),
		Stats:     DefaultStats(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DeepCopy returns an independent copy via JSON round-trip.
func (gs *GameState) DeepCopy() (*GameState, error) {
	data, err := json.Marshal(gs)
	if err != nil {
		return nil, err
	}
	var out GameState
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AppendMessage adds a timestamped entry to the message log.
func (gs *GameState) AppendMessage(role, content, msgType string) {
	gs.Messages = append(gs.Messages, chat.GameMessage{
		Role:      role,
		Content:   content,
		Type:      msgType,
		Timestamp: time.Now().UTC(),
	})
}

// Touch stamps UpdatedAt.
func (gs *GameState) Touch() {
	gs.UpdatedAt = time.Now().UTC()
}

// FindItem returns the index of the inventory entry whose name matches
// case-insensitively, or -1.
func (gs *GameState) FindItem(name string) int {
	for i, item := range gs.Inventory {
		if strings.EqualFold(item.Name, name) {
			return i
		}
	}
	return -1
}
