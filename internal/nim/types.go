package nim

import "encoding/json"

// Message is a plain role/content pair as NIM expects it.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is sent to POST /v1/chat/completions. There is no stream
// field; requests are always answered in one body.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// ChatResponse is the subset of the NIM reply the gateway reads. ID, Message
// and Usage stay raw so they can be returned to the caller unchanged.
type ChatResponse struct {
	ID      json.RawMessage `json:"id"`
	Choices []Choice        `json:"choices"`
	Usage   json.RawMessage `json:"usage,omitempty"`
}

// Choice is one completion candidate.
type Choice struct {
	Index        int             `json:"index"`
	Message      json.RawMessage `json:"message"`
	FinishReason *string         `json:"finish_reason"`
}
