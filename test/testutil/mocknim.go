package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// ChatPath is the path the mock serves, matching the real NIM endpoint.
const ChatPath = "/v1/chat/completions"

// MockNIM is an httptest.Server that simulates the NIM chat completions endpoint.
type MockNIM struct {
	Server *httptest.Server

	mu         sync.Mutex
	statusCode int
	body       string
	calls      int
	lastAuth   string
	lastReq    map[string]any
}

// NewMockNIM creates and starts a mock that answers every request with
// statusCode and body.
func NewMockNIM(statusCode int, body string) *MockNIM {
	m := &MockNIM{statusCode: statusCode, body: body}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// Close shuts down the mock server.
func (m *MockNIM) Close() {
	m.Server.Close()
}

// URL returns the full chat completions URL of the mock server.
func (m *MockNIM) URL() string {
	return m.Server.URL + ChatPath
}

// Calls returns how many requests reached the mock.
func (m *MockNIM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastAuthorization returns the Authorization header of the most recent request.
func (m *MockNIM) LastAuthorization() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAuth
}

// LastRequest returns the most recent request body parsed as JSON.
func (m *MockNIM) LastRequest() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

func (m *MockNIM) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != ChatPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.calls++
	m.lastAuth = r.Header.Get("Authorization")
	m.lastReq = body
	status, resp := m.statusCode, m.body
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(resp))
}
