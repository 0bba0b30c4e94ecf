// Package dm implements the action-resolution pipeline: one player action
// in, one new game-state snapshot out, with progress events along the way.
package dm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dice"
	"github.com/openquest/dungeonmind/pkg/prompts"
	"github.com/openquest/dungeonmind/pkg/state"
)

const (
	// GenericErrorMessage is the only error text shown to the player.
	// The original error is logged server-side.
	GenericErrorMessage = "The dungeon master pauses, momentarily lost in thought. Try that again."

	// DefaultRejectionMessage is used when the validator rejects without a reason.
	DefaultRejectionMessage = "That isn't something you can do here."

	defaultCallTimeout = 60 * time.Second
	promptHistoryLimit = 20
)

// errMalformedOutput marks structured completions that produced nothing
// parsable, in the stages where that is fatal.
var errMalformedOutput = errors.New("no parsable structured output")

// DMResponse is the player-facing half of a pipeline result.
type DMResponse struct {
	Message      string      `json:"message"`
	StateChanges *state.Diff `json:"state_changes,omitempty"`
}

// ActionResult is the consolidated outcome of one pipeline run. It is
// authoritative: the caller persists UpdatedGame, regardless of listeners.
type ActionResult struct {
	ActionValidity   ActionValidity     `json:"action_validity"`
	SkillCheck       *dice.CheckRequest `json:"skill_check,omitempty"`
	SkillCheckResult *dice.CheckResult  `json:"skill_check_result,omitempty"`
	Response         DMResponse         `json:"response"`
	UpdatedGame      *state.GameState   `json:"updated_game,omitempty"`
	Notes            *state.DMNotes     `json:"notes,omitempty"`
}

// TextFilter post-processes the narrative before it reaches the message log.
type TextFilter interface {
	FilterText(text string) string
}

// DungeonMaster orchestrates one action-resolution pipeline. An instance
// owns its notes and is meant to live for one request or session; run many
// instances concurrently, one per in-flight action.
type DungeonMaster struct {
	gw          Gateway
	notes       *state.DMNotes
	listeners   Listeners
	roll        dice.Roller
	filter      TextFilter
	logger      *slog.Logger
	callTimeout time.Duration
}

// New creates a DungeonMaster around an injected gateway.
func New(gw Gateway, logger *slog.Logger) *DungeonMaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &DungeonMaster{
		gw:          gw,
		notes:       state.NewDMNotes(),
		roll:        dice.D12,
		logger:      logger,
		callTimeout: defaultCallTimeout,
	}
}

// WithListeners attaches progress listeners.
func (d *DungeonMaster) WithListeners(l Listeners) *DungeonMaster {
	d.listeners = l
	return d
}

// WithNotes seeds the DM's private notes, e.g. restored from a prior session.
func (d *DungeonMaster) WithNotes(n *state.DMNotes) *DungeonMaster {
	if n != nil {
		d.notes = n
	}
	return d
}

// WithRoller overrides the dice source.
func (d *DungeonMaster) WithRoller(r dice.Roller) *DungeonMaster {
	if r != nil {
		d.roll = r
	}
	return d
}

// WithTextFilter sets a narrative post-processing filter.
func (d *DungeonMaster) WithTextFilter(f TextFilter) *DungeonMaster {
	d.filter = f
	return d
}

// WithCallTimeout bounds every gateway call. The pipeline has no other
// blocking points, so this also bounds the slowest extraction branch.
func (d *DungeonMaster) WithCallTimeout(t time.Duration) *DungeonMaster {
	if t > 0 {
		d.callTimeout = t
	}
	return d
}

// Notes returns the DM's current private notes.
func (d *DungeonMaster) Notes() *state.DMNotes {
	return d.notes
}

func (d *DungeonMaster) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.callTimeout)
}

type planOutcome struct {
	req dice.CheckRequest
	err error
}

// ProcessAction runs one player action through the full pipeline:
// validate (in parallel with planning), resolve an eventual skill check,
// stream the narrative, extract the state diff, and apply it. The input
// state is treated as an immutable snapshot.
func (d *DungeonMaster) ProcessAction(ctx context.Context, gs *state.GameState, action string) (*ActionResult, error) {
	// Planning starts alongside validation, but its result is only
	// consulted once the action is confirmed valid.
	planCh := make(chan planOutcome, 1)
	go func() {
		req, err := d.planSkillCheck(ctx, action, gs)
		planCh <- planOutcome{req: req, err: err}
	}()

	validity, err := d.validateAction(ctx, action, gs)
	if err != nil {
		return d.failTerminal(gs, action, "validating", err)
	}
	d.listeners.notifyValidity(validity)

	if !validity.Valid {
		return d.reject(gs, action, validity), nil
	}

	plan := <-planCh
	if plan.err != nil {
		return d.failTerminal(gs, action, "planning", plan.err)
	}

	var checkReq *dice.CheckRequest
	var checkRes *dice.CheckResult
	if plan.req.Resolvable() {
		req := plan.req
		checkReq = &req
		d.listeners.notifySkillCheck(req)

		statValue, _ := gs.Stats.Value(string(req.Stat))
		result := dice.Resolve(req.Stat, req.Difficulty, statValue, d.roll)
		result.Reason = req.Reason
		checkRes = &result
		d.listeners.notifySkillCheckResult(result)
	}

	messages, err := prompts.New().
		WithGameState(gs).
		WithNotes(d.notes).
		WithUserAction(action).
		WithCheckResult(checkRes).
		WithHistoryLimit(promptHistoryLimit).
		Build()
	if err != nil {
		return d.failTerminal(gs, action, "narrating", err)
	}

	narrative, err := d.streamNarrative(ctx, messages, d.listeners.notifyChunk)
	if err != nil {
		return d.failTerminal(gs, action, "narrating", err)
	}
	if d.filter != nil {
		narrative = d.filter.FilterText(narrative)
	}

	diff, err := d.extractStateChanges(ctx, narrative, gs)
	if err != nil {
		return d.failTerminal(gs, action, "extracting", err)
	}

	updated, err := state.Apply(gs, diff)
	if err != nil {
		return d.failTerminal(gs, action, "applying", err)
	}
	updated.AppendMessage(chat.RoleUser, action, "")
	if checkRes != nil {
		updated.AppendMessage(chat.RoleSystem, prompts.CheckResultNote(checkRes), chat.TypeSkillCheck)
	}
	updated.AppendMessage(chat.RoleAgent, narrative, "")
	updated.Touch()

	d.notes = state.ApplyNotes(d.notes, diff)

	response := DMResponse{Message: narrative}
	if !diff.IsEmpty() {
		response.StateChanges = diff
	}

	return &ActionResult{
		ActionValidity:   validity,
		SkillCheck:       checkReq,
		SkillCheckResult: checkRes,
		Response:         response,
		UpdatedGame:      updated,
		Notes:            d.notes,
	}, nil
}

// reject short-circuits the pipeline on an invalid action: the rejection
// reason is appended as a system-tagged message and nothing downstream runs.
func (d *DungeonMaster) reject(gs *state.GameState, action string, validity ActionValidity) *ActionResult {
	reason := validity.Reason
	if reason == "" {
		reason = DefaultRejectionMessage
	}

	updated := d.annotate(gs, action, reason, chat.TypeActionRejected)
	return &ActionResult{
		ActionValidity: validity,
		Response:       DMResponse{Message: reason},
		UpdatedGame:    updated,
		Notes:          d.notes,
	}
}

// failTerminal handles any unhandled stage error: the error listener gets a
// generic message, the log keeps the real one, and the returned game still
// records the attempted action so history is never silently dropped.
func (d *DungeonMaster) failTerminal(gs *state.GameState, action, stage string, err error) (*ActionResult, error) {
	d.logger.Error("Action pipeline stage failed",
		"stage", stage, "game_id", gs.ID, "error", err)
	d.listeners.notifyError(GenericErrorMessage)

	updated := d.annotate(gs, action, GenericErrorMessage, chat.TypeError)
	result := &ActionResult{
		Response:    DMResponse{Message: GenericErrorMessage},
		UpdatedGame: updated,
		Notes:       d.notes,
	}
	return result, fmt.Errorf("%s: %w", stage, err)
}

// annotate copies the snapshot and appends the user action plus a tagged
// system message.
func (d *DungeonMaster) annotate(gs *state.GameState, action, note, tag string) *state.GameState {
	updated, err := gs.DeepCopy()
	if err != nil {
		// Fall back to a minimal snapshot; the input is never mutated.
		d.logger.Error("Failed to copy game state", "game_id", gs.ID, "error", err)
		updated = state.NewGameState(gs.Scenario)
		updated.ID = gs.ID
		updated.Stats = gs.Stats
	}
	updated.AppendMessage(chat.RoleUser, action, "")
	updated.AppendMessage(chat.RoleSystem, note, tag)
	updated.Touch()
	return updated
}
