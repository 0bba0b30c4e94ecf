package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openquest/dungeonmind/pkg/state"
)

const (
	gameKeyPrefix  = "game:"
	notesKeyPrefix = "notes:"
)

// RedisService implements Storage using Redis
type RedisService struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisService implements Storage interface
var _ Storage = (*RedisService)(nil)

// NewRedisService creates a new Redis service instance
func NewRedisService(addr string, password string, logger *slog.Logger) *RedisService {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	return &RedisService{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisService) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Debug("Redis ping successful", "result", cmd.Val())
	return nil
}

func (r *RedisService) SaveGame(ctx context.Context, id string, gs *state.GameState) error {
	data, err := json.Marshal(gs)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := r.client.Set(ctx, gameKeyPrefix+id, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "game_id", id, "error", err)
		return fmt.Errorf("failed to save game state: %w", err)
	}
	return nil
}

func (r *RedisService) LoadGame(ctx context.Context, id string) (*state.GameState, error) {
	data, err := r.client.Get(ctx, gameKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}

	var gs state.GameState
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	return &gs, nil
}

func (r *RedisService) DeleteGame(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, gameKeyPrefix+id, notesKeyPrefix+id).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete game state: %w", err)
	}
	return nil
}

func (r *RedisService) SaveNotes(ctx context.Context, id string, notes *state.DMNotes) error {
	data, err := json.Marshal(notes)
	if err != nil {
		return fmt.Errorf("failed to marshal notes: %w", err)
	}

	if err := r.client.Set(ctx, notesKeyPrefix+id, data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "game_id", id, "error", err)
		return fmt.Errorf("failed to save notes: %w", err)
	}
	return nil
}

func (r *RedisService) LoadNotes(ctx context.Context, id string) (*state.DMNotes, error) {
	data, err := r.client.Get(ctx, notesKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		r.logger.Error("Redis GET failed", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}

	var notes state.DMNotes
	if err := json.Unmarshal([]byte(data), &notes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notes: %w", err)
	}
	return &notes, nil
}

func (r *RedisService) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}

	r.logger.Info("Redis connection closed")
	return nil
}

func (r *RedisService) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
