package download

import (
	"context"
	"errors"
	"time"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/utils"
)

// Outcome is how a Watch loop ended.
type Outcome int

const (
	// OutcomeCompleted: the daemon reported completion.
	OutcomeCompleted Outcome = iota
	// OutcomeVanished: the daemon no longer knows the GID or reports it removed.
	OutcomeVanished
	// OutcomeFailed: the daemon reported a download error.
	OutcomeFailed
	// OutcomeDetached: another party (the canceller) deregistered the GID first.
	OutcomeDetached
	// OutcomeStopped: the loop context ended.
	OutcomeStopped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeVanished:
		return "vanished"
	case OutcomeFailed:
		return "failed"
	case OutcomeDetached:
		return "detached"
	case OutcomeStopped:
		return "stopped"
	}
	return "unknown"
}

// Poller follows a single download until it reaches a terminal state.
type Poller struct {
	Daemon    Daemon
	Messenger Messenger
	Tracker   *Tracker

	PollInterval   time.Duration
	RenderInterval time.Duration
	Now            func() time.Time
}

// NewPoller creates a poller with the default 1s poll and 10s render intervals.
func NewPoller(d Daemon, m Messenger, t *Tracker) *Poller {
	return &Poller{
		Daemon:         d,
		Messenger:      m,
		Tracker:        t,
		PollInterval:   time.Second,
		RenderInterval: 10 * time.Second,
		Now:            time.Now,
	}
}

// Watch polls gid until it completes, vanishes, fails, is deregistered by
// someone else, or ctx ends. Ending ctx stops the loop only; the download
// keeps running in the daemon and stays tracked.
func (p *Poller) Watch(ctx context.Context, gid string) Outcome {
	start := p.Now()
	var (
		lastText   string
		lastRender time.Time
		rendered   bool
	)

	ticker := time.NewTicker(p.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return OutcomeStopped
		case <-ticker.C:
		}

		if _, ok := p.Tracker.Lookup(gid); !ok {
			return OutcomeDetached
		}

		st, err := p.Daemon.TellStatus(ctx, gid)
		if err != nil {
			if errors.Is(err, aria2.ErrNotFound) {
				utils.Info("GID %s not found during status poll: %v", gid, err)
				p.finish(ctx, gid, vanishedText(gid))
				return OutcomeVanished
			}
			if ctx.Err() != nil {
				return OutcomeStopped
			}
			utils.Warn("status poll for %s failed: %v", gid, err)
			continue
		}

		switch st.Status {
		case aria2.StatusRemoved:
			p.finish(ctx, gid, vanishedText(gid))
			return OutcomeVanished

		case aria2.StatusComplete:
			text := completedText(st)
			if loc, ok := p.Tracker.Deregister(gid); ok && text != lastText {
				p.edit(ctx, loc, text)
			}
			p.purge(ctx, gid)
			utils.Info("download %s completed: %s", gid, st.Name())
			return OutcomeCompleted

		case aria2.StatusError:
			p.finish(ctx, gid, failedText(gid, st.ErrorMessage))
			p.purge(ctx, gid)
			return OutcomeFailed
		}

		p.Tracker.SetState(gid, StateActive)

		now := p.Now()
		if rendered && now.Sub(lastRender) < p.RenderInterval {
			continue
		}
		text := activeText(st, now.Sub(start))
		if text == lastText {
			continue
		}
		// The canceller may have won while TellStatus was in flight.
		loc, ok := p.Tracker.Lookup(gid)
		if !ok {
			return OutcomeDetached
		}
		p.edit(ctx, loc, text)
		lastText = text
		lastRender = now
		rendered = true
	}
}

// finish deregisters gid and, if this call won the deregistration, posts the
// terminal text.
func (p *Poller) finish(ctx context.Context, gid, text string) {
	if loc, ok := p.Tracker.Deregister(gid); ok {
		p.edit(ctx, loc, text)
	}
}

func (p *Poller) edit(ctx context.Context, loc Location, text string) {
	if err := p.Messenger.Edit(ctx, loc, text); err != nil {
		utils.Debug("status edit for %d/%d failed: %v", loc.ChatID, loc.MessageID, err)
	}
}

func (p *Poller) purge(ctx context.Context, gid string) {
	if err := p.Daemon.RemoveDownloadResult(ctx, gid); err != nil {
		utils.Debug("removeDownloadResult %s failed: %v", gid, err)
	}
}
