package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func TestGamesHandler_Create(t *testing.T) {
	mockStorage := services.NewMockStorage()
	handler := NewGamesHandler(mockStorage, testLogger())

	reqBody := `{"scenario":"A haunted lighthouse on a stormy coast."}`
	req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
	}

	var response state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.ID == uuid.Nil {
		t.Error("Expected non-nil game ID")
	}
	if response.Stats.Health != 100 {
		t.Errorf("Expected default health 100, got %d", response.Stats.Health)
	}

	// The game should be persisted
	saved, err := mockStorage.LoadGame(context.Background(), response.ID.String())
	if err != nil || saved == nil {
		t.Errorf("Expected game to be saved, got %+v, err %v", saved, err)
	}
}

func TestGamesHandler_CreateInvalid(t *testing.T) {
	handler := NewGamesHandler(services.NewMockStorage(), testLogger())

	tests := []struct {
		name           string
		requestBody    string
		expectedStatus int
	}{
		{
			name:           "missing scenario",
			requestBody:    `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "blank scenario",
			requestBody:    `{"scenario":"   "}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    `{scenario}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/games", strings.NewReader(tc.requestBody))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("Expected status %d, got %d", tc.expectedStatus, rr.Code)
			}
		})
	}
}

func TestGamesHandler_Read(t *testing.T) {
	mockStorage := services.NewMockStorage()
	handler := NewGamesHandler(mockStorage, testLogger())

	gs := state.NewGameState("test scenario")
	if err := mockStorage.SaveGame(context.Background(), gs.ID.String(), gs); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/games/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Response body: %s", rr.Code, rr.Body.String())
	}

	var response state.GameState
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.ID != gs.ID {
		t.Errorf("Expected ID %s, got %s", gs.ID, response.ID)
	}
}

func TestGamesHandler_ReadNotFound(t *testing.T) {
	handler := NewGamesHandler(services.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/games/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestGamesHandler_ReadInvalidID(t *testing.T) {
	handler := NewGamesHandler(services.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/v1/games/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
}

func TestGamesHandler_Delete(t *testing.T) {
	mockStorage := services.NewMockStorage()
	handler := NewGamesHandler(mockStorage, testLogger())

	gs := state.NewGameState("test scenario")
	if err := mockStorage.SaveGame(context.Background(), gs.ID.String(), gs); err != nil {
		t.Fatalf("Failed to seed storage: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/v1/games/"+gs.ID.String(), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	saved, _ := mockStorage.LoadGame(context.Background(), gs.ID.String())
	if saved != nil {
		t.Error("Expected game to be deleted")
	}
}

func TestGamesHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGamesHandler(services.NewMockStorage(), testLogger())

	req := httptest.NewRequest(http.MethodPut, "/v1/games", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rr.Code)
	}
}
