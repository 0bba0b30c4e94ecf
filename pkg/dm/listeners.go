package dm

import "github.com/openquest/dungeonmind/pkg/dice"

// Stream sentinels bracket the narrative chunks delivered to OnStreamChunk,
// so a transport can mark stream open/close without connection-level signals.
const (
	StreamStart = "[STREAM_START]"
	StreamEnd   = "[STREAM_END]"
)

// Listeners receives fire-and-forget progress notifications from a pipeline
// run. All fields are optional; the returned ActionResult is authoritative
// whether or not listeners are attached.
type Listeners struct {
	OnActionValidity   func(ActionValidity)
	OnSkillCheck       func(dice.CheckRequest)
	OnSkillCheckResult func(dice.CheckResult)
	OnStreamChunk      func(string) // receives the sentinels too
	OnError            func(string)
}

func (l Listeners) notifyValidity(v ActionValidity) {
	if l.OnActionValidity != nil {
		l.OnActionValidity(v)
	}
}

func (l Listeners) notifySkillCheck(r dice.CheckRequest) {
	if l.OnSkillCheck != nil {
		l.OnSkillCheck(r)
	}
}

func (l Listeners) notifySkillCheckResult(r dice.CheckResult) {
	if l.OnSkillCheckResult != nil {
		l.OnSkillCheckResult(r)
	}
}

func (l Listeners) notifyChunk(content string) {
	if l.OnStreamChunk != nil {
		l.OnStreamChunk(content)
	}
}

func (l Listeners) notifyError(msg string) {
	if l.OnError != nil {
		l.OnError(msg)
	}
}
