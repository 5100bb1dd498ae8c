// Package aria2 talks to an aria2 daemon over its JSON-RPC interface and
// manages the daemon process.
package aria2

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound matches RPC errors for a GID the daemon does not know.
	ErrNotFound = errors.New("aria2: gid not found")

	// ErrUnavailable wraps transport failures reaching the daemon.
	ErrUnavailable = errors.New("aria2: daemon unavailable")
)

// RPCError is an error object returned by the daemon.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("aria2 error %d: %s", e.Code, e.Message)
}

// Is reports aria2's "GID ... is not found" errors as ErrNotFound.
func (e *RPCError) Is(target error) bool {
	if target != ErrNotFound {
		return false
	}
	return e.Code == 1 && strings.Contains(e.Message, "is not found")
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// Client is a JSON-RPC client for a single aria2 endpoint. It holds no
// per-download state and is safe for concurrent use.
type Client struct {
	Endpoint string
	Secret   string
	HTTP     *http.Client
}

// NewClient creates a client for endpoint, e.g. http://localhost:6800/jsonrpc.
func NewClient(endpoint, secret string) *Client {
	return &Client{
		Endpoint: endpoint,
		Secret:   secret,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) call(ctx context.Context, method string, result any, params ...any) error {
	args := make([]any, 0, len(params)+1)
	if c.Secret != "" {
		args = append(args, "token:"+c.Secret)
	}
	args = append(args, params...)

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  "aria2." + method,
		Params:  args,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// aria2 answers RPC errors with HTTP 400 and a regular error object.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var out rpcResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= 400 {
			if len(raw) > 1024 {
				raw = raw[:1024]
			}
			return fmt.Errorf("aria2 http error %d: %s", resp.StatusCode, string(raw))
		}
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if out.Error != nil {
		return out.Error
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(out.Result, result); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

// AddURI queues uri and returns the GID aria2 assigned to it.
func (c *Client) AddURI(ctx context.Context, uri string) (string, error) {
	var gid string
	if err := c.call(ctx, "addUri", &gid, []string{uri}); err != nil {
		return "", err
	}
	return gid, nil
}

// TellStatus returns the current snapshot of gid.
func (c *Client) TellStatus(ctx context.Context, gid string) (*Status, error) {
	var st Status
	if err := c.call(ctx, "tellStatus", &st, gid); err != nil {
		return nil, err
	}
	return &st, nil
}

// TellActive lists every active download.
func (c *Client) TellActive(ctx context.Context) ([]Status, error) {
	var list []Status
	if err := c.call(ctx, "tellActive", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Remove stops gid. The result record stays until RemoveDownloadResult.
func (c *Client) Remove(ctx context.Context, gid string) error {
	return c.call(ctx, "remove", nil, gid)
}

// RemoveDownloadResult drops the completed/error/removed record of gid.
func (c *Client) RemoveDownloadResult(ctx context.Context, gid string) error {
	return c.call(ctx, "removeDownloadResult", nil, gid)
}

// PurgeDownloadResult drops every stopped download record.
func (c *Client) PurgeDownloadResult(ctx context.Context) error {
	return c.call(ctx, "purgeDownloadResult", nil)
}

// GetFiles lists the files of gid.
func (c *Client) GetFiles(ctx context.Context, gid string) ([]File, error) {
	var files []File
	if err := c.call(ctx, "getFiles", &files, gid); err != nil {
		return nil, err
	}
	return files, nil
}

// ChangeGlobalOption applies daemon-wide options.
func (c *Client) ChangeGlobalOption(ctx context.Context, opts map[string]string) error {
	return c.call(ctx, "changeGlobalOption", nil, opts)
}

// ForceShutdown stops the daemon without waiting for transfers to wind down.
func (c *Client) ForceShutdown(ctx context.Context) error {
	return c.call(ctx, "forceShutdown", nil)
}

// GetVersion doubles as the reachability probe.
func (c *Client) GetVersion(ctx context.Context) (*Version, error) {
	var v Version
	if err := c.call(ctx, "getVersion", &v); err != nil {
		return nil, err
	}
	return &v, nil
}
