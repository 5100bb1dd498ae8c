package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/vfaronov/httpheader"
)

// ErrBadResponse is returned when a successful upload answer cannot be used.
var ErrBadResponse = errors.New("unexpected upload response")

// HTTPError carries the body of a rejected upload.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upload failed (%d): %s", e.Status, e.Body)
}

// Result identifies an uploaded file.
type Result struct {
	ID  string
	URL string
}

// Client uploads files to a pixeldrain-compatible hosting API.
type Client struct {
	BaseURL   string
	APIKey    string
	HTTP      *http.Client
	ChunkSize int
	Interval  time.Duration
}

// NewClient creates a client with the default chunk size and progress interval.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		HTTP:      &http.Client{},
		ChunkSize: DefaultChunkSize,
		Interval:  DefaultInterval,
	}
}

// Upload streams path as name and returns its public URL. A failing cb never
// aborts the transfer; callers swallow their own render errors.
func (c *Client) Upload(ctx context.Context, path, name string, cb ProgressFunc) (*Result, error) {
	if name == "" {
		name = filepath.Base(path)
	}

	r, err := Open(path, c.ChunkSize, c.Interval, cb)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.BaseURL+"/api/file/"+url.PathEscape(name), r)
	if err != nil {
		return nil, err
	}
	req.ContentLength = r.Size()
	req.SetBasicAuth("", c.APIKey)
	req.Header.Set("Content-Type", sniff(path))

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// The service labels its JSON answer as text/plain.
	switch mt, _ := httpheader.ContentType(resp.Header); mt {
	case "", "text/plain", "application/json":
	default:
		return nil, fmt.Errorf("%w: content type %q", ErrBadResponse, mt)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: missing file id", ErrBadResponse)
	}
	return &Result{ID: out.ID, URL: c.BaseURL + "/u/" + out.ID}, nil
}

func sniff(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return "application/octet-stream"
	}
	return kind.MIME.Value
}
