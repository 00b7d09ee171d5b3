package nim

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrMalformedResponse is returned when a 200 reply cannot be decoded or
// lacks choices[0].message.
var ErrMalformedResponse = errors.New("malformed NIM response")

// StatusError is returned for any reply other than 200 OK. Body holds the
// upstream response body as received.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nim %d: %s", e.StatusCode, e.Body)
}

// Client sends chat completion requests to a NIM endpoint.
type Client struct {
	// chatURL is the full URL of the chat completions endpoint,
	// e.g. "https://integrate.api.nvidia.com/v1/chat/completions".
	chatURL    string
	httpClient *http.Client
}

// NewClient constructs a Client for the given endpoint URL, timeout,
// and optional proxy URL. proxyURL may be empty to use the default environment proxy.
func NewClient(chatURL string, timeout time.Duration, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &Client{
		chatURL: chatURL,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// CreateChatCompletion sends one blocking request and returns the parsed
// response. It does not retry.
func (c *Client) CreateChatCompletion(ctx context.Context, apiKey string, req *ChatRequest) (*ChatResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.chatURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("nim request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return decodeResponse(raw)
}

func decodeResponse(raw []byte) (*ChatResponse, error) {
	var result ChatResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	msg := bytes.TrimSpace(result.Choices[0].Message)
	if len(msg) == 0 || msg[0] != '{' {
		return nil, fmt.Errorf("%w: choices[0].message is not an object", ErrMalformedResponse)
	}
	return &result, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
