package dm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/prompts"
	"github.com/openquest/dungeonmind/pkg/state"
)

type yesNoAnswer struct {
	Answer bool `json:"answer"`
}

type statValueAnswer struct {
	Value int `json:"value"`
}

type inventoryAnswer struct {
	Changes []struct {
		Action      string `json:"action"` // "add" or "remove"
		Name        string `json:"name"`
		Quantity    int    `json:"quantity"`
		Description string `json:"description,omitempty"`
	} `json:"changes"`
}

var yesNoSchema = Schema{
	Name: "yes_no",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{"answer": map[string]any{"type": "boolean"}},
		"required":             []string{"answer"},
	},
}

var statValueSchema = Schema{
	Name: "stat_value",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{"value": map[string]any{"type": "integer", "minimum": 0, "maximum": 100}},
		"required":             []string{"value"},
	},
}

var inventoryChangesSchema = Schema{
	Name: "inventory_changes",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"changes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"action":      map[string]any{"type": "string", "enum": []string{"add", "remove"}},
						"name":        map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "integer", "minimum": 1},
						"description": map[string]any{"type": []string{"string", "null"}},
					},
					"required": []string{"action", "name", "quantity"},
				},
			},
		},
		"required": []string{"changes"},
	},
}

// extractStateChanges recovers a sparse diff from the narrative. All seven
// stat branches and the inventory branch run concurrently and the call is a
// join: the diff is only visible once every branch has finished, and any
// branch failure fails the whole extraction. Unlike the validator and
// planner, malformed structured output here is fatal: an ungrounded
// world-state change must never be applied silently.
func (d *DungeonMaster) extractStateChanges(ctx context.Context, narrative string, gs *state.GameState) (*state.Diff, error) {
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	diff := &state.Diff{}

	for _, stat := range state.StatNames {
		g.Go(func() error {
			delta, changed, err := d.extractStatDelta(gctx, stat, narrative, gs)
			if err != nil {
				return err
			}
			if !changed || delta == 0 {
				return nil
			}
			mu.Lock()
			if diff.StatChanges == nil {
				diff.StatChanges = make(map[string]int)
			}
			diff.StatChanges[stat] = delta
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		add, remove, err := d.extractInventoryChanges(gctx, narrative)
		if err != nil {
			return err
		}
		mu.Lock()
		diff.InventoryAdd = add
		diff.InventoryRemove = remove
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("state extraction failed: %w", err)
	}
	return diff, nil
}

// extractStatDelta runs one stat's yes/no-then-value sub-pipeline. The value
// query returns an absolute number; it is converted to a relative delta
// against the snapshot here, so the applier's contract stays uniformly
// "add signed delta, then clamp".
func (d *DungeonMaster) extractStatDelta(ctx context.Context, stat, narrative string, gs *state.GameState) (int, bool, error) {
	changed, err := d.askYesNo(ctx, prompts.StatChangeMessages(stat, narrative))
	if err != nil {
		return 0, false, fmt.Errorf("stat %s: %w", stat, err)
	}
	if !changed {
		return 0, false, nil
	}

	current, _ := gs.Stats.Value(stat)
	raw, err := d.completeStructured(ctx, prompts.StatValueMessages(stat, current, narrative), statValueSchema)
	if err != nil {
		return 0, false, fmt.Errorf("stat %s value: %w", stat, err)
	}
	var answer statValueAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return 0, false, fmt.Errorf("stat %s value: %w", stat, errMalformedOutput)
	}
	return answer.Value - current, true, nil
}

func (d *DungeonMaster) extractInventoryChanges(ctx context.Context, narrative string) ([]state.ItemChange, []state.ItemChange, error) {
	changed, err := d.askYesNo(ctx, prompts.InventoryChangedMessages(narrative))
	if err != nil {
		return nil, nil, fmt.Errorf("inventory: %w", err)
	}
	if !changed {
		return nil, nil, nil
	}

	raw, err := d.completeStructured(ctx, prompts.InventoryChangesMessages(narrative), inventoryChangesSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("inventory changes: %w", err)
	}
	var answer inventoryAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, nil, fmt.Errorf("inventory changes: %w", errMalformedOutput)
	}

	var add, remove []state.ItemChange
	for _, c := range answer.Changes {
		if c.Name == "" {
			continue
		}
		qty := c.Quantity
		if qty < 1 {
			qty = 1
		}
		item := state.ItemChange{Name: c.Name, Quantity: qty, Description: c.Description}
		switch c.Action {
		case "add":
			add = append(add, item)
		case "remove":
			remove = append(remove, item)
		}
	}
	return add, remove, nil
}

func (d *DungeonMaster) askYesNo(ctx context.Context, messages []chat.GameMessage) (bool, error) {
	raw, err := d.completeStructured(ctx, messages, yesNoSchema)
	if err != nil {
		return false, err
	}
	var answer yesNoAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return false, errMalformedOutput
	}
	return answer.Answer, nil
}

// completeStructured wraps the gateway call with the per-call deadline and
// promotes absent output to an error, which is the extraction policy.
func (d *DungeonMaster) completeStructured(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
	ctx, cancel := d.callCtx(ctx)
	defer cancel()
	raw, err := d.gw.CompleteStructured(ctx, messages, schema)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errMalformedOutput
	}
	return raw, nil
}
