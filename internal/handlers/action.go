package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/dm"
)

// ActionHandler runs a player action through the pipeline and streams
// progress events to the client over Server-Sent Events.
type ActionHandler struct {
	gateway     dm.Gateway
	storage     services.Storage
	filter      dm.TextFilter
	logger      *slog.Logger
	callTimeout time.Duration
}

func NewActionHandler(gateway dm.Gateway, storage services.Storage, filter dm.TextFilter, callTimeout time.Duration, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{
		gateway:     gateway,
		storage:     storage,
		filter:      filter,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

// ServeHTTP handles POST /v1/games/{id}/action.
// The response is an SSE stream of pipeline progress events, terminated by
// a "result" event carrying the consolidated outcome.
func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Warn("Method not allowed for action endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	// Expected: /v1/games/{id}/action
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "games" || pathParts[3] != "action" {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/games/{id}/action")
		return
	}

	gameID, err := uuid.Parse(pathParts[2])
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	var req chat.ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := req.Validate(); err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	gs, err := h.storage.LoadGame(r.Context(), gameID.String())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Error("Failed to load game", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if gs == nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	notes, err := h.storage.LoadNotes(r.Context(), gameID.String())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		h.logger.Error("Failed to load notes", "error", err, "id", gameID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}

	// Switch to SSE from here on.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	log := h.logger.With("game_id", gameID.String())

	master := dm.New(h.gateway, log).
		WithNotes(notes).
		WithCallTimeout(h.callTimeout).
		WithTextFilter(h.filter).
		WithListeners(dm.Listeners{
			OnActionValidity: func(v dm.ActionValidity) {
				h.sendSSE(w, "action_validity", v)
			},
			OnSkillCheck: func(c dice.CheckRequest) {
				h.sendSSE(w, "skill_check", c)
			},
			OnSkillCheckResult: func(res dice.CheckResult) {
				h.sendSSE(w, "skill_check_result", res)
			},
			OnStreamChunk: func(chunk string) {
				h.sendSSE(w, "chunk", map[string]string{"content": chunk})
			},
			OnError: func(msg string) {
				h.sendSSE(w, "error", map[string]string{"message": msg})
			},
		})

	result, pipelineErr := master.ProcessAction(r.Context(), gs, req.Action)
	if pipelineErr != nil {
		log.Error("Pipeline failed", "error", pipelineErr)
	}

	// The result's game snapshot is authoritative even on failure: the
	// terminal error annotation is part of the message log.
	if result != nil && result.UpdatedGame != nil {
		if err := h.storage.SaveGame(r.Context(), gameID.String(), result.UpdatedGame); err != nil {
			log.Error("Failed to save updated game", "error", err)
			h.sendSSE(w, "error", map[string]string{"message": "Failed to save game"})
			return
		}
		if err := h.storage.SaveNotes(r.Context(), gameID.String(), master.Notes()); err != nil {
			log.Error("Failed to save notes", "error", err)
		}
	}

	if result != nil {
		h.sendSSE(w, "result", result)
	}
}

// sendSSE writes one Server-Sent Event and flushes it.
func (h *ActionHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		h.logger.Error("Failed to write event type", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", string(dataJSON)); err != nil {
		h.logger.Error("Failed to write event data", "error", err)
		return
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
