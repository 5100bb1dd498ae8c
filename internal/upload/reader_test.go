package upload

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{'a'}, size), 0o644))
	return path
}

func TestReader_ChunksAndFinalCallback(t *testing.T) {
	path := writeFile(t, 10)
	var got []Progress

	r, err := Open(path, 4, time.Hour, func(p Progress) { got = append(got, p) })
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	base := time.Now()
	r.start = base
	r.now = func() time.Time { return base.Add(2 * time.Second) }

	var sizes []int
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			sizes = append(sizes, n)
		}
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}

	assert.Equal(t, []int{4, 4, 2}, sizes)
	assert.EqualValues(t, 10, r.Size())

	// First chunk reports immediately, the middle one is throttled, the final
	// chunk always reports.
	require.Len(t, got, 2)
	last := got[1]
	assert.EqualValues(t, 10, last.Uploaded)
	assert.EqualValues(t, 10, last.Total)
	assert.Equal(t, 1.0, last.Percent)
	assert.Equal(t, 5.0, last.Speed)
	assert.Equal(t, "00:00:00", last.ETA)
}

func TestReader_IntervalElapsedReportsAgain(t *testing.T) {
	path := writeFile(t, 12)
	calls := 0

	r, err := Open(path, 4, 10*time.Second, func(Progress) { calls++ })
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	clock := time.Now()
	r.start = clock
	r.now = func() time.Time {
		clock = clock.Add(11 * time.Second)
		return clock
	}

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestReader_ZeroSpeedETA(t *testing.T) {
	path := writeFile(t, 8)
	var first Progress

	r, err := Open(path, 4, time.Hour, func(p Progress) {
		if first.Total == 0 {
			first = p
		}
	})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	fixed := time.Now()
	r.start = fixed
	r.now = func() time.Time { return fixed }

	_, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "∞", first.ETA)
	assert.Zero(t, first.Speed)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"), 0, 0, nil)
	assert.True(t, os.IsNotExist(err))
}
