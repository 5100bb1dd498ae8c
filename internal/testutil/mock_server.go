// Package testutil provides testing utilities for pdmirror.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer is a configurable file-hosting server accepting
// PUT /api/file/{name} uploads.
type MockServer struct {
	Server *httptest.Server

	// Configuration
	APIKey      string        // Expected basic-auth password; empty accepts any
	ContentType string        // Content-Type of success responses
	FailStatus  int           // Respond with this status and FailBody when non-zero
	FailBody    string        // Body sent with FailStatus
	Latency     time.Duration // Artificial latency per request
	ByteLatency time.Duration // Latency per received chunk (simulates slow uplink)

	// Tracking
	RequestCount  atomic.Int64
	BytesReceived atomic.Int64
	RejectedAuth  atomic.Int64

	mu      sync.Mutex
	uploads map[string][]byte

	CustomHandler http.HandlerFunc
}

// MockServerOption is a function that configures a MockServer.
type MockServerOption func(*MockServer)

// WithHandler sets a custom request handler.
func WithHandler(h http.HandlerFunc) MockServerOption {
	return func(m *MockServer) {
		m.CustomHandler = h
	}
}

// WithAPIKey requires uploads to authenticate with key.
func WithAPIKey(key string) MockServerOption {
	return func(m *MockServer) {
		m.APIKey = key
	}
}

// WithContentType sets the Content-Type of success responses.
func WithContentType(ct string) MockServerOption {
	return func(m *MockServer) {
		m.ContentType = ct
	}
}

// WithFailure makes every upload fail with status and body.
func WithFailure(status int, body string) MockServerOption {
	return func(m *MockServer) {
		m.FailStatus = status
		m.FailBody = body
	}
}

// WithLatency adds artificial latency per request.
func WithLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) {
		m.Latency = d
	}
}

// WithByteLatency adds artificial latency per chunk read from the body.
func WithByteLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) {
		m.ByteLatency = d
	}
}

func newMockServer(opts []MockServerOption) *MockServer {
	m := &MockServer{
		// The real service answers uploads with text/plain JSON.
		ContentType: "text/plain; charset=utf-8",
		uploads:     make(map[string][]byte),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewMockServer creates a new mock hosting server with the given options.
func NewMockServer(opts ...MockServerOption) *MockServer {
	m := newMockServer(opts)
	m.Server = NewHTTPServer(http.HandlerFunc(m.handleRequest))
	return m
}

// NewMockServerT creates a new mock hosting server and skips the test if binding fails.
func NewMockServerT(t *testing.T, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := newMockServer(opts)
	m.Server = NewHTTPServerT(t, http.HandlerFunc(m.handleRequest))
	return m
}

// URL returns the server's URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}

// Upload returns the stored body of the file with id.
func (m *MockServer) Upload(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.uploads[id]
	return data, ok
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if m.CustomHandler != nil {
		m.CustomHandler(w, r)
		return
	}

	m.RequestCount.Add(1)

	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}

	if r.Method != http.MethodPut || !strings.HasPrefix(r.URL.Path, "/api/file/") {
		http.Error(w, `{"success":false,"value":"not_found"}`, http.StatusNotFound)
		return
	}

	if m.APIKey != "" {
		_, pass, ok := r.BasicAuth()
		if !ok || pass != m.APIKey {
			m.RejectedAuth.Add(1)
			http.Error(w, `{"success":false,"value":"authentication_failed"}`, http.StatusUnauthorized)
			return
		}
	}

	if m.FailStatus != 0 {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", m.ContentType)
		w.WriteHeader(m.FailStatus)
		_, _ = io.WriteString(w, m.FailBody)
		return
	}

	var body []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
			m.BytesReceived.Add(int64(n))
			if m.ByteLatency > 0 {
				time.Sleep(m.ByteLatency)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	id := newID()
	m.mu.Lock()
	m.uploads[id] = body
	m.mu.Unlock()

	w.Header().Set("Content-Type", m.ContentType)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func newID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
