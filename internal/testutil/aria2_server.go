package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Aria2Error is a JSON-RPC error object as aria2 sends it.
type Aria2Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NotFound builds aria2's error for an unknown GID.
func NotFound(gid string) *Aria2Error {
	return &Aria2Error{Code: 1, Message: fmt.Sprintf("GID %s is not found", gid)}
}

// Aria2Handler answers one RPC call. params excludes the token.
type Aria2Handler func(params []json.RawMessage) (any, *Aria2Error)

// Aria2Call records one received RPC call.
type Aria2Call struct {
	Method string
	Params []json.RawMessage
}

// MockAria2 is a scripted aria2 JSON-RPC endpoint.
type MockAria2 struct {
	Server *httptest.Server
	Secret string

	url      string
	mu       sync.Mutex
	calls    []Aria2Call
	handlers map[string]Aria2Handler
}

// NewMockAria2 starts a mock daemon. getVersion and changeGlobalOption answer
// by default; every other method must be scripted with Handle.
func NewMockAria2(t *testing.T, secret string) *MockAria2 {
	t.Helper()
	m := &MockAria2{
		Secret:   secret,
		handlers: make(map[string]Aria2Handler),
	}
	m.Handle("getVersion", Result(map[string]any{"version": "1.37.0", "enabledFeatures": []string{"HTTPS"}}))
	m.Handle("changeGlobalOption", Result("OK"))

	srv := NewHTTPServerT(t, http.HandlerFunc(m.serve))
	m.Server = srv
	m.url = srv.URL + "/jsonrpc"
	return m
}

// Result returns a handler that always answers v.
func Result(v any) Aria2Handler {
	return func([]json.RawMessage) (any, *Aria2Error) { return v, nil }
}

// Fail returns a handler that always answers e.
func Fail(e *Aria2Error) Aria2Handler {
	return func([]json.RawMessage) (any, *Aria2Error) { return nil, e }
}

// Sequence answers with each handler in turn, repeating the last one.
func Sequence(hs ...Aria2Handler) Aria2Handler {
	var mu sync.Mutex
	i := 0
	return func(params []json.RawMessage) (any, *Aria2Error) {
		mu.Lock()
		h := hs[i]
		if i < len(hs)-1 {
			i++
		}
		mu.Unlock()
		return h(params)
	}
}

// URL is the JSON-RPC endpoint.
func (m *MockAria2) URL() string {
	return m.url
}

// Handle scripts method, given without the "aria2." prefix.
func (m *MockAria2) Handle(method string, h Aria2Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = h
}

// Calls returns every call received so far.
func (m *MockAria2) Calls() []Aria2Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Aria2Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount counts calls to method, given without the "aria2." prefix.
func (m *MockAria2) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (m *MockAria2) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string            `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	method := strings.TrimPrefix(req.Method, "aria2.")
	params := req.Params

	var (
		result any
		rpcErr *Aria2Error
	)
	if m.Secret != "" {
		var token string
		if len(params) == 0 || json.Unmarshal(params[0], &token) != nil || token != "token:"+m.Secret {
			rpcErr = &Aria2Error{Code: 1, Message: "Unauthorized"}
		} else {
			params = params[1:]
		}
	}

	m.mu.Lock()
	m.calls = append(m.calls, Aria2Call{Method: method, Params: params})
	h, ok := m.handlers[method]
	m.mu.Unlock()

	if rpcErr == nil {
		if !ok {
			rpcErr = &Aria2Error{Code: 1, Message: "No such method: aria2." + method}
		} else {
			result, rpcErr = h(params)
		}
	}

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	status := http.StatusOK
	if rpcErr != nil {
		resp["error"] = rpcErr
		status = http.StatusBadRequest
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json-rpc")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
