package state

import (
	"fmt"
	"strings"
)

// QuestStatus is the lifecycle of a quest tracked in the DM's notes.
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
)

// Quest is one entry in the DM's quest log.
type Quest struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Objective   string      `json:"objective,omitempty"`
	Status      QuestStatus `json:"status"`
}

// DMNotes is the dungeon master's private orchestration memory. One
// DungeonMaster instance owns one notes value; nothing here reaches the
// player unless a diff surfaces it.
type DMNotes struct {
	WorldStateSummary string            `json:"world_state_summary,omitempty"`
	HiddenObjectives  []string          `json:"hidden_objectives,omitempty"`
	ActiveQuests      []Quest           `json:"active_quests,omitempty"`
	PlayerAssessment  string            `json:"player_assessment,omitempty"`
	KeyLocations      map[string]string `json:"key_locations,omitempty"`
	KeyCharacters     map[string]string `json:"key_characters,omitempty"`
	PlotHooks         []string          `json:"plot_hooks,omitempty"`
}

// NewDMNotes returns empty notes.
func NewDMNotes() *DMNotes {
	return &DMNotes{
		KeyLocations:  make(map[string]string),
		KeyCharacters: make(map[string]string),
	}
}

// FindQuest returns the index of the quest with the given ID, or -1.
func (n *DMNotes) FindQuest(id string) int {
	for i, q := range n.ActiveQuests {
		if q.ID == id {
			return i
		}
	}
	return -1
}

// Summary renders the notes as compact prompt text. Empty sections are
// omitted so the prompt stays short early in a game.
func (n *DMNotes) Summary() string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	if n.WorldStateSummary != "" {
		sb.WriteString("World state: " + n.WorldStateSummary + "\n")
	}
	if n.PlayerAssessment != "" {
		sb.WriteString("Player assessment: " + n.PlayerAssessment + "\n")
	}
	if len(n.HiddenObjectives) > 0 {
		sb.WriteString("Hidden objectives: " + strings.Join(n.HiddenObjectives, "; ") + "\n")
	}
	for _, q := range n.ActiveQuests {
		sb.WriteString(fmt.Sprintf("Quest [%s] %s (%s): %s\n", q.ID, q.Name, q.Status, q.Objective))
	}
	for name, desc := range n.KeyLocations {
		sb.WriteString(fmt.Sprintf("Location %s: %s\n", name, desc))
	}
	for name, desc := range n.KeyCharacters {
		sb.WriteString(fmt.Sprintf("Character %s: %s\n", name, desc))
	}
	if len(n.PlotHooks) > 0 {
		sb.WriteString("Plot hooks: " + strings.Join(n.PlotHooks, "; ") + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// DeepCopy returns an independent copy of the notes.
func (n *DMNotes) DeepCopy() *DMNotes {
	if n == nil {
		return NewDMNotes()
	}
	out := &DMNotes{
		WorldStateSummary: n.WorldStateSummary,
		PlayerAssessment:  n.PlayerAssessment,
		HiddenObjectives:  append([]string(nil), n.HiddenObjectives...),
		ActiveQuests:      append([]Quest(nil), n.ActiveQuests...),
		PlotHooks:         append([]string(nil), n.PlotHooks...),
		KeyLocations:      make(map[string]string, len(n.KeyLocations)),
		KeyCharacters:     make(map[string]string, len(n.KeyCharacters)),
	}
	for k, v := range n.KeyLocations {
		out.KeyLocations[k] = v
	}
	for k, v := range n.KeyCharacters {
		out.KeyCharacters[k] = v
	}
	return out
}
