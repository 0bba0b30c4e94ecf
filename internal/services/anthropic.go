package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dm"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	DefaultAnthropicTemperature = 0.7
	DefaultAnthropicMaxTokens   = 2048
)

// AnthropicService implements dm.Gateway for Anthropic Claude.
type AnthropicService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

type anthropicChatRequest struct {
	Model       string       `json:"model"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
	Messages    []apiMessage `json:"messages"`
	System      string       `json:"system,omitempty"`
	Stream      bool         `json:"stream,omitempty"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicChatResponse struct {
	ID         string                  `json:"id"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	Model      string                  `json:"model"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// anthropicStreamEvent covers the event payloads we care about during SSE.
type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicService(apiKey string, modelName string, logger *slog.Logger) *AnthropicService {
	return &AnthropicService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logger,
	}
}

// splitMessages extracts and combines all system messages into a single system
// prompt and returns the remaining non-system messages in wire format.
func splitMessages(messages []chat.GameMessage) (string, []apiMessage) {
	var systemParts []string
	var conversation []apiMessage

	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			systemParts = append(systemParts, msg.Content)
		} else {
			conversation = append(conversation, apiMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	return strings.Join(systemParts, "\n\n"), conversation
}

func (a *AnthropicService) newRequest(ctx context.Context, messages []chat.GameMessage, stream bool) (*http.Request, error) {
	systemPrompt, conversation := splitMessages(messages)

	temperature := DefaultAnthropicTemperature
	anthropicReq := anthropicChatRequest{
		Model:       a.modelName,
		MaxTokens:   DefaultAnthropicMaxTokens,
		Temperature: &temperature,
		Messages:    conversation,
		System:      systemPrompt,
		Stream:      stream,
	}

	reqBody, err := json.Marshal(anthropicReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", anthropicBaseURL+"/messages", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("content-type", "application/json")
	return req, nil
}

func (a *AnthropicService) chatCompletion(ctx context.Context, messages []chat.GameMessage) (string, error) {
	req, err := a.newRequest(ctx, messages, false)
	if err != nil {
		return "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var anthropicResp anthropicChatResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if anthropicResp.Error != nil {
		return "", fmt.Errorf("API error: %s", anthropicResp.Error.Message)
	}

	var responseText string
	for _, content := range anthropicResp.Content {
		if content.Type == "text" {
			responseText += content.Text
		}
	}

	return responseText, nil
}

// Complete generates a free-form text response.
func (a *AnthropicService) Complete(ctx context.Context, messages []chat.GameMessage) (string, error) {
	return a.chatCompletion(ctx, messages)
}

// CompleteStructured asks for JSON conforming to the schema. Anthropic has no
// native response_format, so the schema is appended as an instruction and the
// reply is scanned for a JSON object. Output that cannot be recovered yields
// (nil, nil) so callers apply their own fallback.
func (a *AnthropicService) CompleteStructured(ctx context.Context, messages []chat.GameMessage, schema dm.Schema) (json.RawMessage, error) {
	schemaJSON, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	instructed := make([]chat.GameMessage, len(messages), len(messages)+1)
	copy(instructed, messages)
	instructed = append(instructed, chat.GameMessage{
		Role: chat.RoleSystem,
		Content: "Respond with a single JSON object matching this JSON schema, " +
			"with no surrounding prose or markdown fences:\n" + string(schemaJSON),
	})

	content, err := a.chatCompletion(ctx, instructed)
	if err != nil {
		return nil, err
	}

	raw := extractJSONObject(content)
	if raw == nil {
		a.logger.Warn("structured response contained no JSON object",
			"schema", schema.Name,
			"content", content)
	}
	return raw, nil
}

// CompleteStream generates a response as a channel of chunks, parsed from the
// Anthropic SSE event stream.
func (a *AnthropicService) CompleteStream(ctx context.Context, messages []chat.GameMessage) (<-chan dm.StreamChunk, error) {
	req, err := a.newRequest(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "text/event-stream")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	chunks := make(chan dm.StreamChunk, 16)
	go func() {
		defer close(chunks)
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimPrefix(line, "data: ")

			var event anthropicStreamEvent
			if err := json.Unmarshal([]byte(data), &event); err != nil {
				continue
			}

			switch event.Type {
			case "content_block_delta":
				if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
					select {
					case chunks <- dm.StreamChunk{Content: event.Delta.Text}:
					case <-ctx.Done():
						chunks <- dm.StreamChunk{Err: ctx.Err()}
						return
					}
				}
			case "error":
				msg := "stream error"
				if event.Error != nil {
					msg = event.Error.Message
				}
				chunks <- dm.StreamChunk{Err: fmt.Errorf("API error: %s", msg)}
				return
			case "message_stop":
				chunks <- dm.StreamChunk{Done: true}
				return
			}
		}
		if err := scanner.Err(); err != nil {
			chunks <- dm.StreamChunk{Err: fmt.Errorf("failed to read stream: %w", err)}
			return
		}
		// Stream ended without a message_stop event.
		chunks <- dm.StreamChunk{Done: true}
	}()

	return chunks, nil
}
