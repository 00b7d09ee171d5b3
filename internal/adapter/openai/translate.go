package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	apierrors "github.com/zhengjr9/nim-gateway/internal/errors"
	"github.com/zhengjr9/nim-gateway/internal/httputil"
	"github.com/zhengjr9/nim-gateway/internal/nim"
)

// DecodeRequest parses and validates an OpenAI chat completions body.
func DecodeRequest(r *http.Request) (*ChatCompletionRequest, error) {
	var req ChatCompletionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apierrors.ErrMalformedBody, err)
	}
	return &req, nil
}

// Validate checks required fields that decoding alone cannot catch. An
// empty message list is allowed.
func (r *ChatCompletionRequest) Validate() error {
	if r.Messages == nil {
		return fmt.Errorf("messages is required")
	}
	return nil
}

// StreamRequested reports whether the caller asked for streaming.
func (r *ChatCompletionRequest) StreamRequested() bool {
	return r.Stream != nil && *r.Stream
}

// ToNIMRequest builds the upstream payload. upstreamModel replaces the
// public model name; messages keep their order.
func ToNIMRequest(req *ChatCompletionRequest, upstreamModel string) *nim.ChatRequest {
	msgs := make([]nim.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = nim.Message{Role: m.Role, Content: m.Content}
	}

	temperature := DefaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := DefaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}

	return &nim.ChatRequest{
		Model:       upstreamModel,
		Messages:    msgs,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

var emptyObject = json.RawMessage(`{}`)

// FromNIMResponse maps the first upstream choice into the OpenAI shape.
// resp must have passed nim's decoding checks.
func FromNIMResponse(resp *nim.ChatResponse) *ChatCompletionResponse {
	first := resp.Choices[0]

	finishReason := "stop"
	if first.FinishReason != nil {
		finishReason = *first.FinishReason
	}

	usage := emptyObject
	if u := bytes.TrimSpace(resp.Usage); len(u) > 0 && !bytes.Equal(u, []byte("null")) {
		usage = u
	}

	return &ChatCompletionResponse{
		ID:     resp.ID,
		Object: "chat.completion",
		Choices: []Choice{
			{
				Index:        0,
				Message:      first.Message,
				FinishReason: finishReason,
			},
		},
		Usage: usage,
	}
}

// WriteBlockingResponse encodes resp as a 200 JSON body.
func WriteBlockingResponse(w http.ResponseWriter, resp *ChatCompletionResponse) error {
	return httputil.WriteJSON(w, http.StatusOK, resp)
}
