package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/dm"
	"github.com/openquest/dungeonmind/pkg/state"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 120 * time.Second
	pingPeriod = 45 * time.Second
)

// PlayEvent is one frame sent to a WebSocket client.
type PlayEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// PlayHandler serves an interactive session over a WebSocket: the client
// sends actions, the server streams pipeline events back. The dungeon
// master and its notes live for the whole connection, so consecutive
// actions share context.
type PlayHandler struct {
	gateway     dm.Gateway
	storage     services.Storage
	filter      dm.TextFilter
	logger      *slog.Logger
	callTimeout time.Duration
	upgrader    websocket.Upgrader
}

func NewPlayHandler(gateway dm.Gateway, storage services.Storage, filter dm.TextFilter, callTimeout time.Duration, logger *slog.Logger) *PlayHandler {
	return &PlayHandler{
		gateway:     gateway,
		storage:     storage,
		filter:      filter,
		logger:      logger,
		callTimeout: callTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP handles GET /v1/games/{id}/play and upgrades to a WebSocket.
func (h *PlayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected: /v1/games/{id}/play
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) != 4 || pathParts[0] != "v1" || pathParts[1] != "games" || pathParts[3] != "play" {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid path. Expected /v1/games/{id}/play")
		return
	}

	gameID, err := uuid.Parse(pathParts[2])
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
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

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	log := h.logger.With("game_id", gameID.String())
	log.Info("Play session started", "remote_addr", r.RemoteAddr)

	master := dm.New(h.gateway, log).
		WithNotes(notes).
		WithCallTimeout(h.callTimeout).
		WithTextFilter(h.filter)

	session := &playSession{
		conn:   conn,
		logger: log,
		gameID: gameID.String(),
		game:   gs,
		master: master,
	}
	master.WithListeners(session.listeners())

	session.run(r.Context(), h.storage)
}

// playSession holds per-connection state. Actions are processed one at a
// time; the write mutex protects frames from the ping goroutine.
type playSession struct {
	conn    *websocket.Conn
	logger  *slog.Logger
	gameID  string
	game    *state.GameState
	master  *dm.DungeonMaster
	writeMu sync.Mutex
}

func (s *playSession) listeners() dm.Listeners {
	return dm.Listeners{
		OnActionValidity: func(v dm.ActionValidity) {
			s.send("action_validity", v)
		},
		OnSkillCheck: func(c dice.CheckRequest) {
			s.send("skill_check", c)
		},
		OnSkillCheckResult: func(res dice.CheckResult) {
			s.send("skill_check_result", res)
		},
		OnStreamChunk: func(chunk string) {
			s.send("chunk", map[string]string{"content": chunk})
		},
		OnError: func(msg string) {
			s.send("error", map[string]string{"message": msg})
		},
	}
}

func (s *playSession) run(ctx context.Context, storage services.Storage) {
	defer func() {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Failed to close WebSocket", "error", err)
		}
		s.logger.Info("Play session ended")
	}()

	s.conn.SetReadLimit(64 * 1024)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error("Failed to set read deadline", "error", err)
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stopPing := make(chan struct{})
	defer close(stopPing)
	go s.pingLoop(stopPing)

	for {
		var req chat.ActionRequest
		if err := s.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("WebSocket read failed", "error", err)
			}
			return
		}

		if err := req.Validate(); err != nil {
			s.send("error", map[string]string{"message": err.Error()})
			continue
		}

		result, err := s.master.ProcessAction(ctx, s.game, req.Action)
		if err != nil {
			s.logger.Error("Pipeline failed", "error", err)
		}
		if result == nil || result.UpdatedGame == nil {
			continue
		}

		s.game = result.UpdatedGame
		if err := storage.SaveGame(ctx, s.gameID, s.game); err != nil {
			s.logger.Error("Failed to save updated game", "error", err)
			s.send("error", map[string]string{"message": "Failed to save game"})
		}
		if err := storage.SaveNotes(ctx, s.gameID, s.master.Notes()); err != nil {
			s.logger.Error("Failed to save notes", "error", err)
		}

		s.send("result", result)
	}
}

func (s *playSession) pingLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *playSession) send(eventType string, data any) {
	frame, err := json.Marshal(PlayEvent{Type: eventType, Data: data})
	if err != nil {
		s.logger.Error("Failed to marshal play event", "error", err)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("Failed to set write deadline", "error", err)
		return
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Debug("Failed to write play event", "error", err)
	}
}
