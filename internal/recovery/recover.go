package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/pdmirror/pdmirror/internal/utils"
)

// Outcome is how a recovery run ended.
type Outcome int

const (
	// OutcomeNone: there was no checkpoint.
	OutcomeNone Outcome = iota
	// OutcomeComplete: the backend reported Empty or Final.
	OutcomeComplete
	// OutcomeStalled: a Slice did not advance the checkpoint.
	OutcomeStalled
	// OutcomeTimeout: the overall deadline passed.
	OutcomeTimeout
	// OutcomeFailed: too many consecutive backend failures, or the store failed.
	OutcomeFailed
	// OutcomeCancelled: the caller's context ended. The checkpoint is kept.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeComplete:
		return "complete"
	case OutcomeStalled:
		return "stalled"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Options bounds a recovery run.
type Options struct {
	Timeout     time.Duration
	MaxFailures int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultOptions gives up after 30s or 5 consecutive failures.
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		MaxFailures: 5,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  8 * time.Second,
	}
}

// Report summarises a recovery run.
type Report struct {
	Outcome Outcome
	// Found is true when a checkpoint existed.
	Found bool
	// Checkpoint is the last position reached; live delivery resumes after it.
	Checkpoint Checkpoint
	Enqueued   int
	Skipped    int
	Failures   int
}

// Recover replays everything after the stored checkpoint into sink, then
// deletes the checkpoint. It never blocks longer than opts.Timeout; on
// timeout, stall or repeated failure the checkpoint is discarded and the gap
// is accepted.
func Recover(ctx context.Context, store Store, fetcher Fetcher, sink Sink, opts Options) Report {
	cp, ok, err := store.Load(ctx)
	if err != nil {
		utils.Error("failed to load update checkpoint: %v", err)
		discard(ctx, store)
		return Report{Outcome: OutcomeFailed}
	}
	if !ok {
		return Report{Outcome: OutcomeNone}
	}

	rep := Report{Found: true, Checkpoint: cp}
	utils.Info("recovering updates since pts=%d qts=%d", cp.Pts, cp.Qts)

	rctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	rep.Outcome = run(rctx, fetcher, sink, opts, &rep)
	if rep.Outcome == OutcomeTimeout && ctx.Err() != nil {
		rep.Outcome = OutcomeCancelled
	}

	utils.Log().Info().
		Stringer("outcome", rep.Outcome).
		Int("pts", rep.Checkpoint.Pts).
		Int("enqueued", rep.Enqueued).
		Int("skipped", rep.Skipped).
		Msg("update recovery finished")

	if rep.Outcome == OutcomeCancelled {
		return rep
	}

	discard(ctx, store)
	return rep
}

// discard deletes the checkpoint under its own deadline; ctx may already be
// done.
func discard(ctx context.Context, store Store) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := store.Delete(dctx); err != nil {
		utils.Error("failed to delete update checkpoint: %v", err)
	}
}

func run(ctx context.Context, fetcher Fetcher, sink Sink, opts Options, rep *Report) Outcome {
	failures := 0
	for {
		if ctx.Err() != nil {
			return OutcomeTimeout
		}

		diff, err := fetcher.Fetch(ctx, rep.Checkpoint)
		if err != nil {
			if ctx.Err() != nil {
				return OutcomeTimeout
			}
			failures++
			rep.Failures++
			utils.Warn("update difference request failed (%d/%d): %v", failures, opts.MaxFailures, err)
			if failures >= opts.MaxFailures {
				return OutcomeFailed
			}
			if !sleep(ctx, backoff(opts, failures)) {
				return OutcomeTimeout
			}
			continue
		}
		failures = 0

		switch d := diff.(type) {
		case Empty:
			return OutcomeComplete

		case TooLong:
			utils.Warn("update gap too long, skipping from pts=%d to pts=%d", rep.Checkpoint.Pts, d.Pts)
			rep.Checkpoint.Pts = d.Pts

		case Slice:
			enqueue(sink, d.Updates, rep)
			if !advanced(rep.Checkpoint, d.State) {
				utils.Warn("update slice did not advance past pts=%d, giving up", rep.Checkpoint.Pts)
				return OutcomeStalled
			}
			rep.Checkpoint = d.State

		case Final:
			enqueue(sink, d.Updates, rep)
			rep.Checkpoint = d.State
			return OutcomeComplete

		default:
			utils.Error("unexpected difference %T", diff)
			return OutcomeFailed
		}
	}
}

func enqueue(sink Sink, updates []any, rep *Report) {
	for i, u := range updates {
		var err error
		if u == nil {
			err = fmt.Errorf("%w: nil entry", ErrMalformed)
		} else {
			err = sink.Enqueue(u)
		}
		if err != nil {
			utils.Warn("skipping recovered update %d: %v", i, err)
			rep.Skipped++
			continue
		}
		rep.Enqueued++
	}
}

func advanced(prev, next Checkpoint) bool {
	return next.Pts > prev.Pts || next.Qts > prev.Qts
}

func backoff(opts Options, failures int) time.Duration {
	d := opts.BaseBackoff
	for i := 1; i < failures && d < opts.MaxBackoff; i++ {
		d *= 2
	}
	if d > opts.MaxBackoff {
		d = opts.MaxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
