package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/openquest/dungeonmind/pkg/state"
)

func newTestRedis(t *testing.T) *RedisService {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewRedisService(mr.Addr(), "", logger)
	t.Cleanup(func() {
		if err := svc.Close(); err != nil {
			t.Errorf("Failed to close Redis service: %v", err)
		}
	})
	return svc
}

func TestRedisService_SaveLoadGame(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	if err := svc.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	gs := state.NewGameState("A haunted lighthouse on a stormy coast.")
	gs.Inventory = []state.Item{{Name: "Lantern", Quantity: 1}}

	if err := svc.SaveGame(ctx, gs.ID.String(), gs); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}

	loaded, err := svc.LoadGame(ctx, gs.ID.String())
	if err != nil {
		t.Fatalf("LoadGame failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected game state, got nil")
	}
	if loaded.ID != gs.ID {
		t.Errorf("Expected ID %s, got %s", gs.ID, loaded.ID)
	}
	if loaded.Scenario != gs.Scenario {
		t.Errorf("Expected scenario %q, got %q", gs.Scenario, loaded.Scenario)
	}
	if len(loaded.Inventory) != 1 || loaded.Inventory[0].Name != "Lantern" {
		t.Errorf("Unexpected inventory: %+v", loaded.Inventory)
	}
	if loaded.Stats.Health != 100 {
		t.Errorf("Expected health 100, got %d", loaded.Stats.Health)
	}
}

func TestRedisService_LoadGameNotFound(t *testing.T) {
	svc := newTestRedis(t)

	loaded, err := svc.LoadGame(context.Background(), "missing-id")
	if err != nil {
		t.Fatalf("LoadGame failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for missing game, got %+v", loaded)
	}
}

func TestRedisService_DeleteGame(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	gs := state.NewGameState("test")
	id := gs.ID.String()
	if err := svc.SaveGame(ctx, id, gs); err != nil {
		t.Fatalf("SaveGame failed: %v", err)
	}
	notes := state.NewDMNotes()
	notes.WorldStateSummary = "the lighthouse keeper is missing"
	if err := svc.SaveNotes(ctx, id, notes); err != nil {
		t.Fatalf("SaveNotes failed: %v", err)
	}

	if err := svc.DeleteGame(ctx, id); err != nil {
		t.Fatalf("DeleteGame failed: %v", err)
	}

	loaded, err := svc.LoadGame(ctx, id)
	if err != nil || loaded != nil {
		t.Errorf("Expected game to be gone, got %+v, err %v", loaded, err)
	}
	loadedNotes, err := svc.LoadNotes(ctx, id)
	if err != nil || loadedNotes != nil {
		t.Errorf("Expected notes to be gone, got %+v, err %v", loadedNotes, err)
	}
}

func TestRedisService_SaveLoadNotes(t *testing.T) {
	svc := newTestRedis(t)
	ctx := context.Background()

	notes := state.NewDMNotes()
	notes.WorldStateSummary = "storm approaching"
	notes.ActiveQuests = []state.Quest{
		{ID: "q1", Name: "Find the keeper", Status: state.QuestActive},
	}
	if err := svc.SaveNotes(ctx, "game-1", notes); err != nil {
		t.Fatalf("SaveNotes failed: %v", err)
	}

	loaded, err := svc.LoadNotes(ctx, "game-1")
	if err != nil {
		t.Fatalf("LoadNotes failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("Expected notes, got nil")
	}
	if loaded.WorldStateSummary != "storm approaching" {
		t.Errorf("Unexpected summary: %q", loaded.WorldStateSummary)
	}
}

func TestRedisService_LoadNotesNotFound(t *testing.T) {
	svc := newTestRedis(t)

	loaded, err := svc.LoadNotes(context.Background(), "missing-id")
	if err != nil {
		t.Fatalf("LoadNotes failed: %v", err)
	}
	if loaded != nil {
		t.Errorf("Expected nil for missing notes, got %+v", loaded)
	}
}
