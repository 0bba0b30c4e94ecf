package chat

import (
	"fmt"
	"time"
)

const (
	RoleUser   = "user"
	RoleAgent  = "assistant" // the dungeon master's narration
	RoleSystem = "system"    // engine annotations and notes
)

// Message type tags. Plain narration and user actions carry no tag.
const (
	TypeSkillCheck     = "skill_check"
	TypeActionRejected = "action_rejected"
	TypeError          = "error"
)

// GameMessage is a single entry in a game's message log. The same shape
// (role + content) is what the LLM providers consume.
type GameMessage struct {
	Role      string    `json:"role"` // "user", "assistant", "system"
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// ActionRequest represents a player action submitted to the engine.
type ActionRequest struct {
	GameID string `json:"game_id,omitempty"`
	Action string `json:"action"`
}

func (ar *ActionRequest) Validate() error {
	if ar.Action == "" {
		return fmt.Errorf("action cannot be empty")
	}
	return nil
}
