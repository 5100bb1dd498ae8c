package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdmirror/pdmirror/internal/recovery"
)

// Difference answers recovery requests from getUpdates. The Bot API keeps
// unconfirmed updates for 24 hours, so everything after the checkpoint is
// still queued server-side and update ids stand in for pts.
type Difference struct {
	API   API
	Limit int
	Now   func() time.Time
}

// NewDifference pages 100 updates at a time.
func NewDifference(api API) *Difference {
	return &Difference{API: api, Limit: 100, Now: time.Now}
}

// Fetch implements recovery.Fetcher.
func (d *Difference) Fetch(ctx context.Context, since recovery.Checkpoint) (recovery.Difference, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := tgbotapi.NewUpdate(since.Pts + 1)
	cfg.Limit = d.Limit
	cfg.Timeout = 0

	updates, err := d.API.GetUpdates(cfg)
	if err != nil {
		return nil, err
	}
	now := d.Now().Unix()

	if len(updates) == 0 {
		return recovery.Empty{Date: now}, nil
	}

	// Updates older than the oldest one still queued are gone for good.
	if first := updates[0].UpdateID; first > since.Pts+1 {
		return recovery.TooLong{Pts: first - 1}, nil
	}

	items := make([]any, len(updates))
	for i := range updates {
		items[i] = updates[i]
	}
	state := recovery.Checkpoint{
		Pts:  updates[len(updates)-1].UpdateID,
		Qts:  since.Qts,
		Date: now,
	}
	if len(updates) >= d.Limit {
		return recovery.Slice{Updates: items, State: state}, nil
	}
	return recovery.Final{Updates: items, State: state}, nil
}

var _ recovery.Fetcher = (*Difference)(nil)
