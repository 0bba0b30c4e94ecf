// Package services provides LLM gateway and storage implementations.
package services

import (
	"strings"
)

// apiMessage is the wire format shared by the chat completion APIs.
// Internal roles already match the API role names.
type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// extractJSONObject returns the outermost JSON object in s, or nil if the
// text contains none. Models sometimes wrap JSON in prose or code fences.
func extractJSONObject(s string) []byte {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return nil
	}
	return []byte(s[start : end+1])
}
