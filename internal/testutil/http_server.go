package testutil

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

// listenIPv4 starts handler on an ephemeral 127.0.0.1 port. Sandboxes used in
// CI often refuse IPv6 listeners, which httptest.NewServer may pick.
func listenIPv4(handler http.Handler) (*httptest.Server, error) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	srv := &httptest.Server{
		Listener: ln,
		Config:   &http.Server{Handler: handler},
	}
	srv.Start()
	return srv, nil
}

// NewHTTPServer starts an IPv4 test server, falling back to httptest's
// default listener.
func NewHTTPServer(handler http.Handler) *httptest.Server {
	srv, err := listenIPv4(handler)
	if err != nil {
		return httptest.NewServer(handler)
	}
	return srv
}

// NewHTTPServerT is NewHTTPServer for tests: it skips when no IPv4 listener
// is available and closes the server on cleanup.
func NewHTTPServerT(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv, err := listenIPv4(handler)
	if err != nil {
		t.Skipf("tcp4 listener unavailable: %v", err)
		return nil
	}
	t.Cleanup(srv.Close)
	return srv
}
