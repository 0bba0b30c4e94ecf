package dm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/state"
)

func TestExtractStateChanges_NoChanges(t *testing.T) {
	gw := NewMockGateway()
	scriptNoChanges(gw)

	d := New(gw, nil)
	diff, err := d.extractStateChanges(context.Background(), "Nothing much happens.", state.NewGameState("test"))
	if err != nil {
		t.Fatalf("extractStateChanges failed: %v", err)
	}
	if !diff.IsEmpty() {
		t.Errorf("Expected empty diff, got %+v", diff)
	}
	// 7 stat questions + 1 inventory question
	if len(gw.CompleteStructuredCalls) != 8 {
		t.Errorf("Expected 8 structured calls, got %d", len(gw.CompleteStructuredCalls))
	}
}

func TestExtractStateChanges_UnchangedValueOmitted(t *testing.T) {
	gw := NewMockGateway()
	gw.CompleteStructuredFunc = func(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
		switch schema.Name {
		case "yes_no":
			if strings.Contains(messages[0].Content, "the player's mana") {
				return json.RawMessage(`{"answer": true}`), nil
			}
			return json.RawMessage(`{"answer": false}`), nil
		case "stat_value":
			// Same value as the snapshot: a zero delta is no change.
			return json.RawMessage(`{"value": 100}`), nil
		}
		return nil, nil
	}

	d := New(gw, nil)
	diff, err := d.extractStateChanges(context.Background(), "You meditate briefly.", state.NewGameState("test"))
	if err != nil {
		t.Fatalf("extractStateChanges failed: %v", err)
	}
	if _, ok := diff.StatChanges["mana"]; ok {
		t.Error("A delta of zero must be omitted, not recorded as an explicit zero")
	}
}

func TestExtractStateChanges_BranchErrorFailsJoin(t *testing.T) {
	branchErr := errors.New("backend unavailable")
	gw := NewMockGateway()
	gw.CompleteStructuredFunc = func(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
		if strings.Contains(messages[0].Content, "the player's luck") {
			return nil, branchErr
		}
		return json.RawMessage(`{"answer": false}`), nil
	}

	d := New(gw, nil)
	_, err := d.extractStateChanges(context.Background(), "narrative", state.NewGameState("test"))
	if !errors.Is(err, branchErr) {
		t.Errorf("Expected the branch error to fail the join, got %v", err)
	}
}

func TestExtractStateChanges_MalformedBranchIsFatal(t *testing.T) {
	gw := NewMockGateway()
	gw.CompleteStructuredFunc = func(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
		if strings.Contains(messages[0].Content, "inventory") {
			return nil, nil // absent output
		}
		return json.RawMessage(`{"answer": false}`), nil
	}

	d := New(gw, nil)
	_, err := d.extractStateChanges(context.Background(), "narrative", state.NewGameState("test"))
	if !errors.Is(err, errMalformedOutput) {
		t.Errorf("Expected malformed output to be fatal in extraction, got %v", err)
	}
}

func TestExtractInventoryChanges_NormalizesEntries(t *testing.T) {
	gw := NewMockGateway()
	gw.CompleteStructuredFunc = func(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
		switch schema.Name {
		case "yes_no":
			return json.RawMessage(`{"answer": true}`), nil
		case "inventory_changes":
			return json.RawMessage(`{"changes": [
				{"action": "add", "name": "Rope", "quantity": 0},
				{"action": "remove", "name": "", "quantity": 1},
				{"action": "remove", "name": "Torch", "quantity": 2},
				{"action": "ignite", "name": "Torch", "quantity": 1}
			]}`), nil
		}
		return nil, nil
	}

	d := New(gw, nil)
	add, remove, err := d.extractInventoryChanges(context.Background(), "narrative")
	if err != nil {
		t.Fatalf("extractInventoryChanges failed: %v", err)
	}
	if len(add) != 1 || add[0].Name != "Rope" || add[0].Quantity != 1 {
		t.Errorf("Add changes = %+v, want one Rope x1", add)
	}
	if len(remove) != 1 || remove[0].Name != "Torch" || remove[0].Quantity != 2 {
		t.Errorf("Remove changes = %+v, want one Torch x2", remove)
	}
}
