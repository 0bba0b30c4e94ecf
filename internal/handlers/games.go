package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError encodes a JSON error response with the given status.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// GamesHandler serves CRUD operations for game states.
type GamesHandler struct {
	storage services.Storage
	logger  *slog.Logger
}

func NewGamesHandler(storage services.Storage, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		storage: storage,
		logger:  logger,
	}
}

// CreateGameRequest defines the request body for creating a new game.
type CreateGameRequest struct {
	Scenario string `json:"scenario"` // narrative premise for the adventure
}

// ServeHTTP handles HTTP requests for game operations
// Routes:
// POST /v1/games          - Create new game
// GET /v1/games/{id}      - Read game by ID
// DELETE /v1/games/{id}   - Delete game by ID
func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.TrimPrefix(r.URL.Path, "/v1/games")
	var gameID uuid.UUID
	var err error

	if path != "" && path != "/" {
		idStr := strings.Trim(path, "/")
		gameID, err = uuid.Parse(idStr)
		if err != nil {
			h.logger.Warn("Invalid game ID", "id", idStr, "error", err)
			writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
			return
		}
	}

	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)

	case http.MethodGet:
		if gameID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Game ID is required for GET requests")
			return
		}
		h.handleRead(w, r, gameID)

	case http.MethodDelete:
		if gameID == uuid.Nil {
			writeError(w, h.logger, http.StatusBadRequest, "Game ID is required for DELETE requests")
			return
		}
		h.handleDelete(w, r, gameID)

	default:
		h.logger.Warn("Method not allowed for games endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST, GET, DELETE")
	}
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game")

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if strings.TrimSpace(req.Scenario) == "" {
		h.logger.Warn("Missing required field: scenario")
		writeError(w, h.logger, http.StatusBadRequest, "scenario field is required")
		return
	}

	gs := state.NewGameState(req.Scenario)

	if err := h.storage.SaveGame(r.Context(), gs.ID.String(), gs); err != nil {
		h.logger.Error("Failed to save new game", "error", err, "id", gs.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game")
		return
	}

	h.logger.Debug("Game created successfully", "id", gs.ID.String())
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game response", "error", err)
	}
}

func (h *GamesHandler) handleRead(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	gs, err := h.storage.LoadGame(r.Context(), gameID.String())
	if err != nil {
		h.logger.Error("Failed to load game", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}

	if gs == nil {
		h.logger.Warn("Game not found", "id", gameID.String())
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(gs); err != nil {
		h.logger.Error("Failed to encode game response", "error", err)
	}
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	if err := h.storage.DeleteGame(r.Context(), gameID.String()); err != nil {
		h.logger.Error("Failed to delete game", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	h.logger.Debug("Game deleted successfully", "id", gameID.String())
	w.WriteHeader(http.StatusNoContent)
}
