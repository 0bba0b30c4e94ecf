package dm

import (
	"context"
	"encoding/json"

	"github.com/openquest/dungeonmind/pkg/chat"
)

// StreamChunk is one fragment of a streaming completion.
type StreamChunk struct {
	Content string
	Done    bool
	Err     error
}

// Schema declares the JSON shape a structured completion must return.
// Providers that support constrained decoding pass Definition through;
// others fold it into an instruction.
type Schema struct {
	Name       string
	Definition map[string]any
}

// Gateway abstracts the language-model backend. The pipeline never talks to
// a provider directly, only through these three capabilities.
//
// CompleteStructured returns (nil, nil) when the model produced no parsable
// output matching the schema: absence is not an error for that condition,
// and each pipeline stage decides its own policy for it.
type Gateway interface {
	Complete(ctx context.Context, messages []chat.GameMessage) (string, error)
	CompleteStructured(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error)
	CompleteStream(ctx context.Context, messages []chat.GameMessage) (<-chan StreamChunk, error)
}
