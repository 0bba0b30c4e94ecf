package prompts

import (
	"fmt"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/state"
)

const defaultHistoryLimit = 20

// Builder constructs the narration messages for the streaming completion
// using a fluent interface. It keeps prompt assembly out of the pipeline.
type Builder struct {
	gs           *state.GameState
	notes        *state.DMNotes
	action       string
	checkResult  *dice.CheckResult
	historyLimit int
}

// New creates a new prompt builder with default settings.
func New() *Builder {
	return &Builder{historyLimit: defaultHistoryLimit}
}

// WithGameState sets the game snapshot the narration is grounded in.
func (b *Builder) WithGameState(gs *state.GameState) *Builder {
	b.gs = gs
	return b
}

// WithNotes sets the DM's private notes, folded into the system prompt.
func (b *Builder) WithNotes(n *state.DMNotes) *Builder {
	b.notes = n
	return b
}

// WithUserAction sets the player action being narrated.
func (b *Builder) WithUserAction(action string) *Builder {
	b.action = action
	return b
}

// WithCheckResult attaches a resolved skill check, surfaced to the model as
// a system note describing the outcome.
func (b *Builder) WithCheckResult(r *dice.CheckResult) *Builder {
	b.checkResult = r
	return b
}

// WithHistoryLimit sets the message history window size.
func (b *Builder) WithHistoryLimit(limit int) *Builder {
	b.historyLimit = limit
	return b
}

// Build constructs the final message array for the streaming completion.
func (b *Builder) Build() ([]chat.GameMessage, error) {
	if b.gs == nil {
		return nil, fmt.Errorf("game state is required")
	}

	messages := make([]chat.GameMessage, 0, b.historyLimit+4)
	messages = append(messages, chat.GameMessage{Role: chat.RoleSystem, Content: b.systemPrompt()})
	messages = append(messages, b.history()...)
	if b.action != "" {
		messages = append(messages, chat.GameMessage{Role: chat.RoleUser, Content: b.action})
	}
	if b.checkResult != nil && b.checkResult.Performed {
		messages = append(messages, chat.GameMessage{
			Role:    chat.RoleSystem,
			Content: CheckResultNote(b.checkResult),
		})
	}
	return messages, nil
}

func (b *Builder) systemPrompt() string {
	prompt := SystemPrompt
	if b.gs.Scenario != "" {
		prompt += "\n\nScenario: " + b.gs.Scenario
	}
	prompt += "\n\nPlayer state: " + stateJSON(b.gs)
	if summary := b.notes.Summary(); summary != "" {
		prompt += "\n\nDM notes (never reveal directly):\n" + summary
	}
	return prompt
}

// history returns the windowed message log, dropping empty entries and
// system annotations. System notes are rebuilt fresh each turn.
func (b *Builder) history() []chat.GameMessage {
	surviving := make([]chat.GameMessage, 0, len(b.gs.Messages))
	for _, m := range b.gs.Messages {
		if m.Content == "" || m.Role == chat.RoleSystem {
			continue
		}
		surviving = append(surviving, chat.GameMessage{Role: m.Role, Content: m.Content})
	}
	if b.historyLimit > 0 && len(surviving) > b.historyLimit {
		surviving = surviving[len(surviving)-b.historyLimit:]
	}
	return surviving
}

// CheckResultNote renders a resolved check as a system note for the model
// and for the message log.
func CheckResultNote(r *dice.CheckResult) string {
	outcome := "failed"
	if r.Success {
		outcome = "succeeded"
	}
	note := fmt.Sprintf("Skill check: %s check %s (rolled %d + %s %d = %d vs difficulty %d, margin %+d).",
		r.Stat, outcome, r.Roll, r.Stat, r.StatValue, r.Total, r.Difficulty, r.Degree)
	if r.Reason != "" {
		note += " Context: " + r.Reason
	}
	return note
}
