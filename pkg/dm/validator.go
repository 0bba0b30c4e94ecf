package dm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openquest/dungeonmind/pkg/prompts"
	"github.com/openquest/dungeonmind/pkg/state"
)

// ActionValidity is the validator's verdict on a player action.
type ActionValidity struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

var actionValiditySchema = Schema{
	Name: "action_validity",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"valid":  map[string]any{"type": "boolean"},
			"reason": map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"valid"},
	},
}

// validateAction asks the gateway whether the action is legal in-world.
// Gateway errors are fatal for the run. Missing or malformed structured
// output is NOT auto-valid: only an explicit valid=true passes.
func (d *DungeonMaster) validateAction(ctx context.Context, action string, gs *state.GameState) (ActionValidity, error) {
	ctx, cancel := d.callCtx(ctx)
	defer cancel()

	raw, err := d.gw.CompleteStructured(ctx, prompts.ValidatorMessages(action, gs), actionValiditySchema)
	if err != nil {
		return ActionValidity{}, fmt.Errorf("validity check failed: %w", err)
	}
	if raw == nil {
		d.logger.Warn("Validator returned no parsable output, treating action as invalid", "game_id", gs.ID)
		return ActionValidity{Valid: false}, nil
	}

	var v ActionValidity
	if err := json.Unmarshal(raw, &v); err != nil {
		d.logger.Warn("Validator output failed to decode, treating action as invalid", "game_id", gs.ID, "error", err)
		return ActionValidity{Valid: false}, nil
	}
	return v, nil
}
