package dm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/openquest/dungeonmind/pkg/chat"
)

// MockGateway is a scripted Gateway implementation for testing. Responses
// for structured calls are matched by schema name; streaming calls replay
// the configured chunks.
type MockGateway struct {
	CompleteFunc           func(ctx context.Context, messages []chat.GameMessage) (string, error)
	CompleteStructuredFunc func(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error)
	CompleteStreamFunc     func(ctx context.Context, messages []chat.GameMessage) (<-chan StreamChunk, error)

	// StructuredResponses maps schema name to a queue of raw answers,
	// consumed in order. A nil entry simulates malformed output.
	StructuredResponses map[string][]json.RawMessage
	// StreamChunks is replayed by CompleteStream when no func is set.
	StreamChunks []StreamChunk

	// Call tracking
	CompleteCalls           [][]chat.GameMessage
	CompleteStructuredCalls []StructuredCall
	CompleteStreamCalls     [][]chat.GameMessage

	mu sync.Mutex
}

type StructuredCall struct {
	Messages []chat.GameMessage
	Schema   string
}

// NewMockGateway creates an empty scripted gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		StructuredResponses: make(map[string][]json.RawMessage),
	}
}

// Script appends a structured answer for the named schema.
func (m *MockGateway) Script(schemaName string, raw string) *MockGateway {
	m.mu.Lock()
	defer m.mu.Unlock()
	var msg json.RawMessage
	if raw != "" {
		msg = json.RawMessage(raw)
	}
	m.StructuredResponses[schemaName] = append(m.StructuredResponses[schemaName], msg)
	return m
}

func (m *MockGateway) Complete(ctx context.Context, messages []chat.GameMessage) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, messages)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	return "Mock narration.", nil
}

func (m *MockGateway) CompleteStructured(ctx context.Context, messages []chat.GameMessage, schema Schema) (json.RawMessage, error) {
	m.mu.Lock()
	m.CompleteStructuredCalls = append(m.CompleteStructuredCalls, StructuredCall{Messages: messages, Schema: schema.Name})

	if m.CompleteStructuredFunc != nil {
		m.mu.Unlock()
		return m.CompleteStructuredFunc(ctx, messages, schema)
	}

	queue := m.StructuredResponses[schema.Name]
	if len(queue) == 0 {
		m.mu.Unlock()
		return nil, nil
	}
	next := queue[0]
	m.StructuredResponses[schema.Name] = queue[1:]
	m.mu.Unlock()
	return next, nil
}

func (m *MockGateway) CompleteStream(ctx context.Context, messages []chat.GameMessage) (<-chan StreamChunk, error) {
	m.mu.Lock()
	m.CompleteStreamCalls = append(m.CompleteStreamCalls, messages)
	m.mu.Unlock()

	if m.CompleteStreamFunc != nil {
		return m.CompleteStreamFunc(ctx, messages)
	}

	ch := make(chan StreamChunk, len(m.StreamChunks)+1)
	for _, chunk := range m.StreamChunks {
		ch <- chunk
	}
	ch <- StreamChunk{Done: true}
	close(ch)
	return ch, nil
}
