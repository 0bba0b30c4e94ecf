package dm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/prompts"
	"github.com/openquest/dungeonmind/pkg/state"
)

type plannerAnswer struct {
	Required   bool    `json:"required"`
	Stat       *string `json:"stat"`
	Difficulty *string `json:"difficulty"`
	Reason     string  `json:"reason"`
}

var skillCheckSchema = Schema{
	Name: "skill_check_plan",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"required": map[string]any{"type": "boolean"},
			"stat": map[string]any{
				"type": []string{"string", "null"},
				"enum": []any{"strength", "dexterity", "intelligence", "luck", nil},
			},
			"difficulty": map[string]any{
				"type": []string{"string", "null"},
				"enum": []any{"easy", "somewhat easy", "medium", "hard", "very hard", "extremely hard", nil},
			},
			"reason": map[string]any{"type": []string{"string", "null"}},
		},
		"required": []string{"required", "stat", "difficulty"},
	},
}

// planSkillCheck asks the gateway whether the action warrants a dice roll
// and which stat and difficulty apply. Gateway errors are fatal; malformed
// output degrades to "no check required". A required=true answer missing
// its stat or difficulty is inconsistent planner output and is logged and
// downgraded rather than crashed on.
func (d *DungeonMaster) planSkillCheck(ctx context.Context, action string, gs *state.GameState) (dice.CheckRequest, error) {
	ctx, cancel := d.callCtx(ctx)
	defer cancel()

	raw, err := d.gw.CompleteStructured(ctx, prompts.PlannerMessages(action, gs), skillCheckSchema)
	if err != nil {
		return dice.CheckRequest{}, fmt.Errorf("skill check planning failed: %w", err)
	}
	if raw == nil {
		d.logger.Warn("Planner returned no parsable output, skipping check", "game_id", gs.ID)
		return dice.CheckRequest{}, nil
	}

	var answer plannerAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		d.logger.Warn("Planner output failed to decode, skipping check", "game_id", gs.ID, "error", err)
		return dice.CheckRequest{}, nil
	}

	req := dice.CheckRequest{Required: answer.Required, Reason: answer.Reason}
	if answer.Stat != nil {
		req.Stat = dice.Stat(*answer.Stat)
	}
	if answer.Difficulty != nil {
		req.Difficulty = dice.Difficulty(*answer.Difficulty)
	}
	if req.Required && !req.Resolvable() {
		d.logger.Warn("Planner required a check without stat or difficulty, skipping",
			"game_id", gs.ID, "stat", req.Stat, "difficulty", req.Difficulty)
	}
	return req, nil
}
