package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/openquest/dungeonmind/internal/config"
	"github.com/openquest/dungeonmind/internal/handlers"
	"github.com/openquest/dungeonmind/internal/logger"
	"github.com/openquest/dungeonmind/internal/middleware"
	"github.com/openquest/dungeonmind/internal/services"
	"github.com/openquest/dungeonmind/pkg/dm"
	"github.com/openquest/dungeonmind/pkg/textfilter"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Dungeonmind API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.Provider)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var gateway dm.Gateway
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		gateway = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
		log.Info("Using Anthropic LLM provider", "model", cfg.AnthropicModel)
	case "venice":
		gateway = services.NewVeniceService(cfg.VeniceAPIKey, cfg.VeniceModel)
		log.Info("Using Venice LLM provider", "model", cfg.VeniceModel)
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.Provider, "supported", []string{"anthropic", "venice"})
		os.Exit(1)
	}

	storage := services.NewRedisService(cfg.RedisAddr, cfg.RedisPassword, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	var filter dm.TextFilter
	if textfilter.Enabled(cfg.ContentRating) {
		filter = textfilter.New()
		log.Info("Content filtering enabled", "rating", cfg.ContentRating)
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(storage, log)
	mux.Handle("/v1/health", healthHandler)

	gamesHandler := handlers.NewGamesHandler(storage, log)
	mux.Handle("/v1/games", gamesHandler)

	actionHandler := handlers.NewActionHandler(gateway, storage, filter, cfg.CallTimeout, log)
	playHandler := handlers.NewPlayHandler(gateway, storage, filter, cfg.CallTimeout, log)
	mux.HandleFunc("/v1/games/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/action"):
			actionHandler.ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/play"):
			playHandler.ServeHTTP(w, r)
		default:
			gamesHandler.ServeHTTP(w, r)
		}
	})

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout omitted so SSE and WebSocket streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
