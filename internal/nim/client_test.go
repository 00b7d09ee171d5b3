package nim

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChatCompletion(t *testing.T) {
	var (
		gotAuth string
		gotCT   string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"abc","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"length"}],"usage":{"total_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, "")
	defer c.Close()

	resp, err := c.CreateChatCompletion(context.Background(), "nvapi-secret", &ChatRequest{
		Model:       "meta/llama-3.1-8b-instruct",
		Messages:    []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   512,
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer nvapi-secret", gotAuth)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "meta/llama-3.1-8b-instruct", gotBody["model"])
	assert.InDelta(t, 0.7, gotBody["temperature"], 1e-9)
	assert.InDelta(t, 512, gotBody["max_tokens"], 1e-9)
	assert.NotContains(t, gotBody, "stream")
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "hi", msgs[1].(map[string]any)["content"])

	assert.JSONEq(t, `"abc"`, string(resp.ID))
	require.Len(t, resp.Choices, 1)
	assert.JSONEq(t, `{"role":"assistant","content":"hello"}`, string(resp.Choices[0].Message))
	require.NotNil(t, resp.Choices[0].FinishReason)
	assert.Equal(t, "length", *resp.Choices[0].FinishReason)
	assert.JSONEq(t, `{"total_tokens":5}`, string(resp.Usage))
}

func TestCreateChatCompletionNonStringID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":123,"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, "")
	defer c.Close()

	resp, err := c.CreateChatCompletion(context.Background(), "k", &ChatRequest{Model: "m"})
	require.NoError(t, err)
	assert.JSONEq(t, `123`, string(resp.ID))
}

func TestCreateChatCompletionStatusError(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusBadRequest, http.StatusUnauthorized, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte("server overloaded"))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second, "")
			_, err := c.CreateChatCompletion(context.Background(), "k", &ChatRequest{Model: "m"})
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, status, se.StatusCode)
			assert.Equal(t, "server overloaded", se.Body)
		})
	}
}

func TestCreateChatCompletionMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":        `<html>oops</html>`,
		"no choices":      `{"id":"x"}`,
		"empty choices":   `{"id":"x","choices":[]}`,
		"missing message": `{"id":"x","choices":[{"finish_reason":"stop"}]}`,
		"null message":    `{"id":"x","choices":[{"message":null}]}`,
		"string message":  `{"id":"x","choices":[{"message":"hello"}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, 5*time.Second, "")
			_, err := c.CreateChatCompletion(context.Background(), "k", &ChatRequest{Model: "m"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse), "got %v", err)
		})
	}
}

func TestCreateChatCompletionTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 50*time.Millisecond, "")
	_, err := c.CreateChatCompletion(context.Background(), "k", &ChatRequest{Model: "m"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "nim request:"), "got %v", err)

	var se *StatusError
	assert.False(t, errors.As(err, &se))
}
