// Package recovery replays chat updates missed while the bot was down.
package recovery

import (
	"context"
	"errors"
)

// Checkpoint marks the last fully processed position in the backend's update
// sequence.
type Checkpoint struct {
	Pts  int   `json:"pts"`
	Qts  int   `json:"qts"`
	Date int64 `json:"date"`
}

// Store persists at most one checkpoint.
type Store interface {
	// Load returns ok == false when no checkpoint exists.
	Load(ctx context.Context) (cp Checkpoint, ok bool, err error)
	Save(ctx context.Context, cp Checkpoint) error
	Delete(ctx context.Context) error
}

// Difference is the backend's answer to "what happened since checkpoint".
// It is one of Empty, TooLong, Slice or Final.
type Difference interface {
	isDifference()
}

// Empty means nothing was missed.
type Empty struct {
	Date int64
}

// TooLong means the gap cannot be replayed; resume from Pts.
type TooLong struct {
	Pts int
}

// Slice is a partial replay; more follows after State.
type Slice struct {
	Updates []any
	State   Checkpoint
}

// Final is the last replay batch.
type Final struct {
	Updates []any
	State   Checkpoint
}

func (Empty) isDifference()   {}
func (TooLong) isDifference() {}
func (Slice) isDifference()   {}
func (Final) isDifference()   {}

// Fetcher asks the backend for the difference since a checkpoint.
type Fetcher interface {
	Fetch(ctx context.Context, since Checkpoint) (Difference, error)
}

// Sink receives replayed updates in arrival order. Returning ErrMalformed (or
// an error wrapping it) skips the entry; any other error is logged and the
// entry is skipped as well.
type Sink interface {
	Enqueue(update any) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(update any) error

// Enqueue calls f.
func (f SinkFunc) Enqueue(update any) error { return f(update) }

// ErrMalformed marks an update the sink cannot handle.
var ErrMalformed = errors.New("malformed update")
