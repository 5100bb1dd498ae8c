package upload

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdmirror/pdmirror/internal/testutil"
)

func TestUpload_Success(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithAPIKey("key"))
	path := writeFile(t, 3*1024)

	c := NewClient(server.URL()+"/", "key")
	c.ChunkSize = 1024

	var progress []Progress
	res, err := c.Upload(context.Background(), path, "", func(p Progress) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, server.URL()+"/u/"+res.ID, res.URL)
	data, ok := server.Upload(res.ID)
	require.True(t, ok)
	assert.Len(t, data, 3*1024)

	require.NotEmpty(t, progress)
	assert.EqualValues(t, 3*1024, progress[len(progress)-1].Uploaded)
}

func TestUpload_HTTPErrorSurfacesBody(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithFailure(http.StatusRequestEntityTooLarge, `{"value":"file_too_large"}`))
	path := writeFile(t, 16)

	res, err := NewClient(server.URL(), "key").Upload(context.Background(), path, "x.bin", nil)

	assert.Nil(t, res)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusRequestEntityTooLarge, httpErr.Status)
	assert.Equal(t, `{"value":"file_too_large"}`, httpErr.Body)
}

func TestUpload_Unauthorized(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithAPIKey("key"))
	path := writeFile(t, 16)

	_, err := NewClient(server.URL(), "wrong").Upload(context.Background(), path, "x.bin", nil)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.EqualValues(t, 1, server.RejectedAuth.Load())
}

func TestUpload_RejectsHTMLAnswer(t *testing.T) {
	server := testutil.NewMockServerT(t, testutil.WithContentType("text/html"))
	path := writeFile(t, 16)

	_, err := NewClient(server.URL(), "").Upload(context.Background(), path, "x.bin", nil)
	assert.True(t, errors.Is(err, ErrBadResponse))
}

func TestUpload_MissingFile(t *testing.T) {
	server := testutil.NewMockServerT(t)
	_, err := NewClient(server.URL(), "").Upload(context.Background(), "/does/not/exist", "", nil)
	require.Error(t, err)
	assert.Zero(t, server.RequestCount.Load())
}

func TestProgressText(t *testing.T) {
	got := ProgressText("a&b.iso", Progress{Uploaded: 512, Total: 1024, Speed: 256, Percent: 0.5, ETA: "00:00:02"})
	assert.True(t, strings.HasPrefix(got, "📤 <b>Uploading to Pixeldrain</b>"))
	assert.Contains(t, got, "<code>a&amp;b.iso</code>")
	assert.Contains(t, got, "▰▰▰▰▰▱▱▱▱▱ <code>50.00%</code>")
	assert.Contains(t, got, "<code>512.00 B / 1.00 KB</code> @ <code>256.00 B/s</code>")
	assert.Contains(t, got, "⏳ ETA: <code>00:00:02</code>")
}
