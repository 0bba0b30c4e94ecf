package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dm"
	"github.com/openquest/dungeonmind/pkg/state"
)

// scriptQuietTurn configures the gateway for a valid action with no skill
// check, a short narration, and no extracted state changes.
func scriptQuietTurn(gw *dm.MockGateway) {
	gw.Script("action_validity", `{"valid": true}`)
	gw.Script("skill_check_plan", `{"required": false, "stat": null, "difficulty": null}`)
	for i := 0; i < 8; i++ {
		gw.Script("yes_no", `{"answer": false}`)
	}
	gw.StreamChunks = []dm.StreamChunk{
		{Content: "You step "},
		{Content: "into the hall."},
	}
}

func TestActionHandler_StreamsEvents(t *testing.T) {
	mockStorage := services.NewMockStorage()
	gw := dm.NewMockGateway()
	scriptQuietTurn(gw)

	gs := state.NewGameState("test scenario")
	if err := mockStorage.SaveGame(context.Background(), gs.ID.String(), gs); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	handler := NewActionHandler(gw, mockStorage, nil, 5*time.Second, testLogger())

	reqBody := `{"action":"walk into the hall"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/games/"+gs.ID.String()+"/action", strings.NewReader(reqBody))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %s", ct)
	}

	body := rr.Body.String()
	for _, want := range []string{
		"event: action_validity",
		"event: chunk",
		"[STREAM_START]",
		"You step ",
		"into the hall.",
		"[STREAM_END]",
		"event: result",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected response to contain %q. Body:\n%s", want, body)
		}
	}
	if strings.Contains(body, "event: skill_check\n") {
		t.Error("Did not expect a skill check event")
	}
	if strings.Contains(body, "event: error") {
		t.Errorf("Did not expect an error event. Body:\n%s", body)
	}

	// The updated game must be persisted with the new messages.
	saved, err := mockStorage.LoadGame(context.Background(), gs.ID.String())
	if err != nil || saved == nil {
		t.Fatalf("Expected saved game, got %+v, err %v", saved, err)
	}
	if len(saved.Messages) != 2 {
		t.Fatalf("Expected 2 messages in saved game, got %d", len(saved.Messages))
	}
	if saved.Messages[1].Content != "You step into the hall." {
		t.Errorf("Expected narration in saved game, got %q", saved.Messages[1].Content)
	}
	if saved.Messages[1].Type == chat.TypeError {
		t.Errorf("Saved assistant message is an error annotation: %+v", saved.Messages[1])
	}
}

func TestActionHandler_GameNotFound(t *testing.T) {
	handler := NewActionHandler(dm.NewMockGateway(), services.NewMockStorage(), nil, 5*time.Second, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/games/"+uuid.NewString()+"/action", strings.NewReader(`{"action":"look"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestActionHandler_EmptyAction(t *testing.T) {
	mockStorage := services.NewMockStorage()
	gs := state.NewGameState("test scenario")
	if err := mockStorage.SaveGame(context.Background(), gs.ID.String(), gs); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	handler := NewActionHandler(dm.NewMockGateway(), mockStorage, nil, 5*time.Second, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/games/"+gs.ID.String()+"/action", strings.NewReader(`{"action":""}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestActionHandler_MethodNotAllowed(t *testing.T) {
	handler := NewActionHandler(dm.NewMockGateway(), services.NewMockStorage(), nil, 5*time.Second, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/games/"+uuid.NewString()+"/action", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}

func TestActionHandler_RejectedActionPersisted(t *testing.T) {
	mockStorage := services.NewMockStorage()
	gw := dm.NewMockGateway()
	gw.Script("action_validity", `{"valid": false, "reason": "The door is locked."}`)
	gw.Script("skill_check_plan", `{"required": false, "stat": null, "difficulty": null}`)

	gs := state.NewGameState("test scenario")
	if err := mockStorage.SaveGame(context.Background(), gs.ID.String(), gs); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	handler := NewActionHandler(gw, mockStorage, nil, 5*time.Second, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/games/"+gs.ID.String()+"/action", strings.NewReader(`{"action":"walk through the door"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, "The door is locked.") {
		t.Errorf("Expected rejection reason in stream. Body:\n%s", body)
	}
	if strings.Contains(body, "[STREAM_START]") {
		t.Error("Rejected action should not stream narration")
	}

	// Rejection is still recorded in the saved game.
	saved, _ := mockStorage.LoadGame(context.Background(), gs.ID.String())
	if saved == nil || len(saved.Messages) != 2 {
		t.Fatalf("Expected 2 messages in saved game, got %+v", saved)
	}
}
