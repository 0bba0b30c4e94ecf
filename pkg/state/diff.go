package state

// ItemChange is one inventory addition or removal in a diff.
type ItemChange struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// QuestUpdate moves a quest in the DM notes to a new status.
type QuestUpdate struct {
	QuestID string      `json:"quest_id"`
	Status  QuestStatus `json:"status"`
}

// NotesUpdate is a partial overwrite of DMNotes. Nil fields are untouched;
// map entries are merged key by key, never replacing the whole table.
type NotesUpdate struct {
	WorldStateSummary *string           `json:"world_state_summary,omitempty"`
	HiddenObjectives  []string          `json:"hidden_objectives,omitempty"`
	PlayerAssessment  *string           `json:"player_assessment,omitempty"`
	KeyLocations      map[string]string `json:"key_locations,omitempty"`
	KeyCharacters     map[string]string `json:"key_characters,omitempty"`
	PlotHooks         []string          `json:"plot_hooks,omitempty"`
	NewQuests         []Quest           `json:"new_quests,omitempty"`
}

// Diff is a sparse description of state changes extracted from a narrative.
// An absent field means "no change", never "set to zero". Stat deltas are
// relative; the extractor converts absolute model output before building
// the diff.
type Diff struct {
	InventoryAdd    []ItemChange   `json:"inventory_add,omitempty"`
	InventoryRemove []ItemChange   `json:"inventory_remove,omitempty"`
	StatChanges     map[string]int `json:"stat_changes,omitempty"`
	QuestUpdates    []QuestUpdate  `json:"quest_updates,omitempty"`
	Notes           *NotesUpdate   `json:"notes,omitempty"`
}

// IsEmpty checks if the diff carries no changes.
func (d *Diff) IsEmpty() bool {
	return d == nil || (len(d.InventoryAdd) == 0 &&
		len(d.InventoryRemove) == 0 &&
		len(d.StatChanges) == 0 &&
		len(d.QuestUpdates) == 0 &&
		d.Notes == nil)
}
