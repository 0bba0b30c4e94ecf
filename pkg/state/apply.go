package state

import "fmt"

// Apply merges a diff into a deep copy of the game state and returns the
// new snapshot. The input state is never mutated. Inventory, then stats;
// the steps touch disjoint fields so the order does not affect the outcome.
// Quest and notes changes are applied separately via ApplyNotes.
func Apply(gs *GameState, diff *Diff) (*GameState, error) {
	out, err := gs.DeepCopy()
	if err != nil {
		return nil, fmt.Errorf("failed to copy game state: %w", err)
	}
	if diff.IsEmpty() {
		return out, nil
	}

	applyInventory(out, diff)
	applyStats(out, diff)
	return out, nil
}

func applyInventory(gs *GameState, diff *Diff) {
	for _, change := range diff.InventoryAdd {
		qty := change.Quantity
		if qty < 1 {
			qty = 1
		}
		if i := gs.FindItem(change.Name); i >= 0 {
			gs.Inventory[i].Quantity += qty
			if gs.Inventory[i].Description == "" && change.Description != "" {
				gs.Inventory[i].Description = change.Description
			}
			continue
		}
		gs.Inventory = append(gs.Inventory, Item{
			Name:        change.Name,
			Quantity:    qty,
			Description: change.Description,
		})
	}

	for _, change := range diff.InventoryRemove {
		i := gs.FindItem(change.Name)
		if i < 0 {
			continue
		}
		qty := change.Quantity
		if qty < 1 {
			qty = 1
		}
		gs.Inventory[i].Quantity -= qty
		// Entries never sit at zero; they are deleted outright.
		if gs.Inventory[i].Quantity <= 0 {
			gs.Inventory = append(gs.Inventory[:i], gs.Inventory[i+1:]...)
		}
	}
}

func applyStats(gs *GameState, diff *Diff) {
	for stat, delta := range diff.StatChanges {
		switch stat {
		case "health":
			gs.Stats.Health += delta
		case "mana":
			gs.Stats.Mana += delta
		case "experience":
			gs.Stats.Experience += delta
		case "strength":
			gs.Stats.Strength += delta
		case "dexterity":
			gs.Stats.Dexterity += delta
		case "intelligence":
			gs.Stats.Intelligence += delta
		case "luck":
			gs.Stats.Luck += delta
		}
	}
	clampStats(&gs.Stats)
}

// clampStats enforces the stat invariants: health and mana in [0,100],
// experience >= 0, core stats >= 1.
func clampStats(s *StatBlock) {
	s.Health = clamp(s.Health, 0, 100)
	s.Mana = clamp(s.Mana, 0, 100)
	s.Experience = max(s.Experience, 0)
	s.Strength = max(s.Strength, 1)
	s.Dexterity = max(s.Dexterity, 1)
	s.Intelligence = max(s.Intelligence, 1)
	s.Luck = max(s.Luck, 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ApplyNotes merges quest updates and partial note overwrites into a copy
// of the notes and returns it. Unknown quest IDs in updates are ignored.
func ApplyNotes(n *DMNotes, diff *Diff) *DMNotes {
	out := n.DeepCopy()
	if diff.IsEmpty() {
		return out
	}

	for _, update := range diff.QuestUpdates {
		if i := out.FindQuest(update.QuestID); i >= 0 {
			out.ActiveQuests[i].Status = update.Status
		}
	}

	nu := diff.Notes
	if nu == nil {
		return out
	}
	if nu.WorldStateSummary != nil {
		out.WorldStateSummary = *nu.WorldStateSummary
	}
	if nu.PlayerAssessment != nil {
		out.PlayerAssessment = *nu.PlayerAssessment
	}
	if len(nu.HiddenObjectives) > 0 {
		out.HiddenObjectives = append([]string(nil), nu.HiddenObjectives...)
	}
	if len(nu.PlotHooks) > 0 {
		out.PlotHooks = append([]string(nil), nu.PlotHooks...)
	}
	for name, desc := range nu.KeyLocations {
		if out.KeyLocations == nil {
			out.KeyLocations = make(map[string]string)
		}
		out.KeyLocations[name] = desc
	}
	for name, desc := range nu.KeyCharacters {
		if out.KeyCharacters == nil {
			out.KeyCharacters = make(map[string]string)
		}
		out.KeyCharacters[name] = desc
	}
	for _, q := range nu.NewQuests {
		if out.FindQuest(q.ID) >= 0 {
			continue
		}
		if q.Status == "" {
			q.Status = QuestActive
		}
		out.ActiveQuests = append(out.ActiveQuests, q)
	}
	return out
}
