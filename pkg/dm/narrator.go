package dm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openquest/dungeonmind/pkg/chat"
)

// streamNarrative drives a streaming completion. Each fragment is handed to
// onChunk in arrival order before it is accumulated. The start sentinel is
// emitted before the first fragment and the end sentinel after the last; a
// mid-stream failure returns without the end sentinel, so its absence plus
// the pipeline error signals truncation to the transport.
func (d *DungeonMaster) streamNarrative(ctx context.Context, messages []chat.GameMessage, onChunk func(string)) (string, error) {
	ctx, cancel := d.callCtx(ctx)
	defer cancel()

	stream, err := d.gw.CompleteStream(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to open narrative stream: %w", err)
	}

	onChunk(StreamStart)
	var sb strings.Builder
	for chunk := range stream {
		if chunk.Err != nil {
			return "", fmt.Errorf("narrative stream failed: %w", chunk.Err)
		}
		if chunk.Done {
			break
		}
		if chunk.Content == "" {
			continue
		}
		onChunk(chunk.Content)
		sb.WriteString(chunk.Content)
	}
	onChunk(StreamEnd)

	// The accumulated text must equal the concatenation of the fragments
	// already delivered, so no trimming after the fact.
	return sb.String(), nil
}
