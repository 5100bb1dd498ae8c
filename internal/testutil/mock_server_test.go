package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func put(t *testing.T, url, pass string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if pass != "" {
		req.SetBasicAuth("", pass)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT failed: %v", err)
	}
	return resp
}

func TestMockServer_Upload(t *testing.T) {
	server := NewMockServerT(t, WithAPIKey("k"))

	resp := put(t, server.URL()+"/api/file/a.bin", "k", []byte("hello"))
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Expected text/plain, got %q", ct)
	}

	var out struct{ ID string }
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, ok := server.Upload(out.ID)
	if !ok || string(data) != "hello" {
		t.Errorf("stored upload = %q, %v", data, ok)
	}
	if got := server.BytesReceived.Load(); got != 5 {
		t.Errorf("BytesReceived = %d, want 5", got)
	}
}

func TestMockServer_RejectsBadKey(t *testing.T) {
	server := NewMockServerT(t, WithAPIKey("k"))

	resp := put(t, server.URL()+"/api/file/a.bin", "wrong", []byte("x"))
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
	if server.RejectedAuth.Load() != 1 {
		t.Errorf("RejectedAuth = %d, want 1", server.RejectedAuth.Load())
	}
}

func TestMockServer_Failure(t *testing.T) {
	server := NewMockServerT(t, WithFailure(http.StatusInsufficientStorage, "quota exceeded"))

	resp := put(t, server.URL()+"/api/file/a.bin", "", []byte("x"))
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusInsufficientStorage || string(body) != "quota exceeded" {
		t.Errorf("got %d %q", resp.StatusCode, body)
	}
}

func rpc(t *testing.T, url string, params ...any) map[string]json.RawMessage {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": "1", "method": "aria2.tellStatus", "params": params})
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestMockAria2_TokenAndSequence(t *testing.T) {
	m := NewMockAria2(t, "s3cret")
	m.Handle("tellStatus", Sequence(
		Result(map[string]string{"status": "active"}),
		Fail(NotFound("abc")),
	))

	if out := rpc(t, m.URL(), "token:bad", "abc"); out["error"] == nil {
		t.Fatal("expected unauthorized error")
	}
	if out := rpc(t, m.URL(), "token:s3cret", "abc"); out["result"] == nil {
		t.Fatalf("expected result, got %s", out["error"])
	}
	out := rpc(t, m.URL(), "token:s3cret", "abc")
	if !strings.Contains(string(out["error"]), "is not found") {
		t.Fatalf("expected not found, got %s", out["error"])
	}

	if n := m.CallCount("tellStatus"); n != 3 {
		t.Errorf("CallCount = %d, want 3", n)
	}
	calls := m.Calls()
	if len(calls[1].Params) != 1 || string(calls[1].Params[0]) != `"abc"` {
		t.Errorf("token should be stripped from params, got %s", calls[1].Params)
	}
}
