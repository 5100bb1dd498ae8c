// Package upload streams local files to the file-hosting service with
// progress reporting.
package upload

import (
	"io"
	"os"
	"time"

	"github.com/pdmirror/pdmirror/internal/utils"
)

// DefaultChunkSize is the read size of a Reader.
const DefaultChunkSize = 1 << 20

// DefaultInterval is the minimum time between progress callbacks.
const DefaultInterval = 10 * time.Second

// Progress is a snapshot passed to the progress callback.
type Progress struct {
	Uploaded int64
	Total    int64
	Speed    float64 // bytes per second since the start
	Percent  float64 // 0..1
	ETA      string  // hh:mm:ss or ∞
}

// ProgressFunc receives upload progress. It runs on the reading goroutine.
type ProgressFunc func(Progress)

// Reader reads a file in fixed-size chunks and reports progress at most once
// per interval, plus once for the final chunk.
type Reader struct {
	f         *os.File
	chunkSize int
	interval  time.Duration
	callback  ProgressFunc

	total      int64
	uploaded   int64
	start      time.Time
	lastUpdate time.Time

	now func() time.Time
}

// Open prepares path for streaming. The total size is fixed here.
func Open(path string, chunkSize int, interval time.Duration, cb ProgressFunc) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Reader{
		f:         f,
		chunkSize: chunkSize,
		interval:  interval,
		callback:  cb,
		total:     info.Size(),
		start:     time.Now(),
		now:       time.Now,
	}, nil
}

// Size is the file size captured at Open.
func (r *Reader) Size() int64 { return r.total }

// Uploaded is the number of bytes handed out so far.
func (r *Reader) Uploaded() int64 { return r.uploaded }

// Read returns at most one chunk per call.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) > r.chunkSize {
		p = p[:r.chunkSize]
	}
	// Never read past the size fixed at Open, so Content-Length holds.
	if remaining := r.total - r.uploaded; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	if len(p) == 0 {
		return 0, io.EOF
	}

	n, err := r.f.Read(p)
	if n > 0 {
		r.uploaded += int64(n)
		r.report()
	}
	if err == io.EOF && r.uploaded < r.total {
		return n, io.ErrUnexpectedEOF
	}
	return n, err
}

func (r *Reader) report() {
	if r.callback == nil {
		return
	}
	now := r.now()
	final := r.uploaded == r.total
	if !final && !r.lastUpdate.IsZero() && now.Sub(r.lastUpdate) < r.interval {
		return
	}

	elapsed := now.Sub(r.start).Seconds()
	var speed float64
	if elapsed > 0 {
		speed = float64(r.uploaded) / elapsed
	}
	r.callback(Progress{
		Uploaded: r.uploaded,
		Total:    r.total,
		Speed:    speed,
		Percent:  utils.Percent(r.uploaded, r.total),
		ETA:      utils.FormatClockETA(r.total-r.uploaded, speed),
	})
	r.lastUpdate = now
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
