package openai

import (
	"encoding/json"
	"fmt"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 512
)

// ChatCompletionRequest mirrors the OpenAI chat completions request body.
// Optional fields are pointers so that absence can be told apart from zero.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	// Stream is accepted for compatibility but has no effect.
	Stream *bool `json:"stream,omitempty"`
}

// UnmarshalJSON requires the model key to be present and non-null. An empty
// string is accepted and left to the model lookup.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type plain ChatCompletionRequest
	aux := struct {
		*plain
		Model *string `json:"model"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Model == nil {
		return fmt.Errorf("model is required")
	}
	r.Model = *aux.Model
	return nil
}

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UnmarshalJSON requires role and content to be present as strings. Empty
// strings are allowed.
func (m *Message) UnmarshalJSON(data []byte) error {
	var aux struct {
		Role    *string `json:"role"`
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Role == nil {
		return fmt.Errorf("message role is required")
	}
	if aux.Content == nil {
		return fmt.Errorf("message content is required")
	}
	m.Role, m.Content = *aux.Role, *aux.Content
	return nil
}

// ChatCompletionResponse is the blocking OpenAI response format.
type ChatCompletionResponse struct {
	ID      json.RawMessage `json:"id"`
	Object  string          `json:"object"`
	Choices []Choice        `json:"choices"`
	Usage   json.RawMessage `json:"usage"`
}

// Choice wraps a single completion result. Message is the upstream message
// object, unchanged.
type Choice struct {
	Index        int             `json:"index"`
	Message      json.RawMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// HealthResponse is returned by GET /.
type HealthResponse struct {
	Status string   `json:"status"`
	Models []string `json:"models"`
}
