package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openquest/dungeonmind/pkg/chat"
	"github.com/openquest/dungeonmind/pkg/dm"
)

const (
	veniceBaseURL = "https://api.venice.ai/api/v1"

	DefaultVeniceTemperature = 0.7
	DefaultVeniceMaxTokens   = 1024
	structuredVeniceTokens   = 512
)

// VeniceService implements dm.Gateway for Venice AI.
type VeniceService struct {
	apiKey     string
	modelName  string
	httpClient *http.Client
}

type veniceResponseFormat struct {
	Type       string           `json:"type"`
	JSONSchema veniceJSONSchema `json:"json_schema"`
}

type veniceJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type veniceParameters struct {
	IncludeVeniceSystemPrompt bool   `json:"include_venice_system_prompt"`
	EnableWebSearch           string `json:"enable_web_search"`
}

// veniceChatRequest represents the request structure for Venice AI chat completions
type veniceChatRequest struct {
	Model            string                `json:"model"`
	Messages         []apiMessage          `json:"messages"`
	Temperature      float64               `json:"temperature"`
	MaxTokens        int                   `json:"max_tokens,omitempty"`
	Stream           bool                  `json:"stream"`
	ResponseFormat   *veniceResponseFormat `json:"response_format,omitempty"`
	VeniceParameters veniceParameters      `json:"venice_parameters"`
}

type veniceChatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type veniceChatResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []veniceChatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// veniceStreamChunk is one SSE data payload in a streamed completion.
type veniceStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// NewVeniceService creates a new Venice AI service
func NewVeniceService(apiKey string, modelName string) *VeniceService {
	return &VeniceService{
		apiKey:    apiKey,
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func toAPIMessages(messages []chat.GameMessage) []apiMessage {
	out := make([]apiMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, apiMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func (v *VeniceService) newRequest(ctx context.Context, messages []chat.GameMessage, temperature float64, stream bool, responseFormat *veniceResponseFormat) (*http.Request, error) {
	maxTokens := DefaultVeniceMaxTokens
	if responseFormat != nil {
		maxTokens = structuredVeniceTokens
	}
	veniceReq := veniceChatRequest{
		Model:          v.modelName,
		Messages:       toAPIMessages(messages),
		Temperature:    temperature,
		MaxTokens:      maxTokens,
		Stream:         stream,
		ResponseFormat: responseFormat,
		VeniceParameters: veniceParameters{
			IncludeVeniceSystemPrompt: false,
			EnableWebSearch:           "off",
		},
	}

	reqBody, err := json.Marshal(veniceReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", veniceBaseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+v.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (v *VeniceService) chatCompletion(ctx context.Context, messages []chat.GameMessage, temperature float64, responseFormat *veniceResponseFormat) (string, error) {
	req, err := v.newRequest(ctx, messages, temperature, false, responseFormat)
	if err != nil {
		return "", err
	}

	resp, err := v.httpClient.Do(req)
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

	var veniceResp veniceChatResponse
	if err := json.Unmarshal(body, &veniceResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if veniceResp.Error != nil {
		return "", fmt.Errorf("API error: %s", veniceResp.Error.Message)
	}

	if len(veniceResp.Choices) == 0 {
		return "", nil
	}

	return veniceResp.Choices[0].Message.Content, nil
}

// Complete generates a free-form text response.
func (v *VeniceService) Complete(ctx context.Context, messages []chat.GameMessage) (string, error) {
	return v.chatCompletion(ctx, messages, DefaultVeniceTemperature, nil)
}

// CompleteStructured requests JSON via Venice's json_schema response format,
// with temperature 0 for deterministic output. Replies that still fail to
// contain a JSON object yield (nil, nil).
func (v *VeniceService) CompleteStructured(ctx context.Context, messages []chat.GameMessage, schema dm.Schema) (json.RawMessage, error) {
	responseFormat := &veniceResponseFormat{
		Type: "json_schema",
		JSONSchema: veniceJSONSchema{
			Name:   schema.Name,
			Strict: true,
			Schema: schema.Definition,
		},
	}

	content, err := v.chatCompletion(ctx, messages, 0.0, responseFormat)
	if err != nil {
		return nil, err
	}

	return extractJSONObject(content), nil
}

// CompleteStream generates a response as a channel of chunks, parsed from the
// OpenAI-compatible SSE stream.
func (v *VeniceService) CompleteStream(ctx context.Context, messages []chat.GameMessage) (<-chan dm.StreamChunk, error) {
	req, err := v.newRequest(ctx, messages, DefaultVeniceTemperature, true, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := v.httpClient.Do(req)
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
			if data == "[DONE]" {
				chunks <- dm.StreamChunk{Done: true}
				return
			}

			var chunk veniceStreamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			if content := chunk.Choices[0].Delta.Content; content != "" {
				select {
				case chunks <- dm.StreamChunk{Content: content}:
				case <-ctx.Done():
					chunks <- dm.StreamChunk{Err: ctx.Err()}
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			chunks <- dm.StreamChunk{Err: fmt.Errorf("failed to read stream: %w", err)}
			return
		}
		chunks <- dm.StreamChunk{Done: true}
	}()

	return chunks, nil
}
