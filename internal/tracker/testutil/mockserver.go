// Package testutil provides fakes for tracker-facing tests: an in-memory
// Remote and a recording HTTP server for transport-level client tests.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// RecordedRequest stores information about a request made to the mock server.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// MockResponse represents a configured response for the mock server.
type MockResponse struct {
	StatusCode int
	Body       interface{}
}

// MockServer is a recording HTTP server with per-route canned responses.
// Routes are keyed by "METHOD /path".
type MockServer struct {
	Server *httptest.Server
	mu     sync.RWMutex

	requests  []RecordedRequest
	responses map[string]MockResponse

	authError   bool
	serverError bool
}

// NewMockServer creates and starts a mock server. Call Close when done.
func NewMockServer() *MockServer {
	m := &MockServer{
		requests:  []RecordedRequest{},
		responses: make(map[string]MockResponse),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	return m
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	authError, serverError := m.authError, m.serverError
	resp, found := m.responses[r.Method+" "+r.URL.Path]
	m.mu.Unlock()

	switch {
	case authError:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
	case serverError:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	case found:
		status := resp.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, resp.Body)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

// URL returns the mock server URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	m.Server.Close()
}

// SetResponse configures the response for method and path.
func (m *MockServer) SetResponse(method, path string, statusCode int, body interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[method+" "+path] = MockResponse{StatusCode: statusCode, Body: body}
}

// SetAuthError enables/disables 401 responses for every route.
func (m *MockServer) SetAuthError(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authError = enabled
}

// SetServerError enables/disables 500 responses for every route.
func (m *MockServer) SetServerError(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serverError = enabled
}

// GetRequests returns all recorded requests.
func (m *MockServer) GetRequests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]RecordedRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// LastRequest returns the most recent request, or nil.
func (m *MockServer) LastRequest() *RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	r := m.requests[len(m.requests)-1]
	return &r
}

// GetRequestCount returns the number of recorded requests.
func (m *MockServer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}
