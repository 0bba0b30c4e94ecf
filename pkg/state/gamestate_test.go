package state

import (
	"testing"

	"github.com/openquest/dungeonmind/pkg/chat"
)

func TestNewGameState_Defaults(t *testing.T) {
	gs := NewGameState("A storm-wracked coast.")

	if gs.ID.String() == "" {
		t.Error("Expected a generated ID")
	}
	if gs.Stats != DefaultStats() {
		t.Errorf("Stats = %+v, want defaults", gs.Stats)
	}
	if gs.Stats.Health != 100 || gs.Stats.Strength != 5 {
		t.Errorf("Unexpected default stats: %+v", gs.Stats)
	}
	if gs.CreatedAt.IsZero() || gs.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestGameState_DeepCopy(t *testing.T) {
	gs := NewGameState("test")
	gs.Inventory = []Item{{Name: "Map", Quantity: 1}}
	gs.AppendMessage(chat.RoleUser, "look around", "")

	cp, err := gs.DeepCopy()
	if err != nil {
		t.Fatalf("DeepCopy failed: %v", err)
	}

	cp.Inventory[0].Quantity = 99
	cp.Messages[0].Content = "changed"
	cp.Stats.Health = 1

	if gs.Inventory[0].Quantity != 1 {
		t.Error("Copy shares inventory with original")
	}
	if gs.Messages[0].Content != "look around" {
		t.Error("Copy shares messages with original")
	}
	if gs.Stats.Health != 100 {
		t.Error("Copy shares stats with original")
	}
}

func TestGameState_FindItem(t *testing.T) {
	gs := NewGameState("test")
	gs.Inventory = []Item{
		{Name: "Rusty Sword", Quantity: 1},
		{Name: "torch", Quantity: 2},
	}

	if i := gs.FindItem("rusty sword"); i != 0 {
		t.Errorf("FindItem('rusty sword') = %d, want 0", i)
	}
	if i := gs.FindItem("TORCH"); i != 1 {
		t.Errorf("FindItem('TORCH') = %d, want 1", i)
	}
	if i := gs.FindItem("shield"); i != -1 {
		t.Errorf("FindItem('shield') = %d, want -1", i)
	}
}

func TestStatBlock_Value(t *testing.T) {
	s := StatBlock{Health: 42, Luck: 7}
	if v, ok := s.Value("health"); !ok || v != 42 {
		t.Errorf("Value('health') = %d,%v", v, ok)
	}
	if v, ok := s.Value("luck"); !ok || v != 7 {
		t.Errorf("Value('luck') = %d,%v", v, ok)
	}
	if _, ok := s.Value("charisma"); ok {
		t.Error("Expected unknown stat to report !ok")
	}
}
