package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/semaphore"

	"github.com/pdmirror/pdmirror/internal/download"
	"github.com/pdmirror/pdmirror/internal/recovery"
	"github.com/pdmirror/pdmirror/internal/utils"
)

// Options wires a Bot to the rest of the application.
type Options struct {
	Access    *Access
	Downloads Downloads
	Uploader  Uploader

	// MaxUploads bounds concurrent /pd transfers.
	MaxUploads int64

	// Store holds the update checkpoint. Nil disables recovery and saving.
	Store           recovery.Store
	Recover         bool
	RecoveryOptions recovery.Options
	// Fetcher answers recovery requests. Nil uses getUpdates on the API.
	Fetcher recovery.Fetcher

	// Shutdown is called by the owner's /shutdown command.
	Shutdown func()
}

// Bot dispatches Telegram commands.
type Bot struct {
	api       API
	messenger download.Messenger
	opts      Options
	uploads   *semaphore.Weighted
	now       func() time.Time

	wg sync.WaitGroup
}

// New creates a bot. messenger is usually a *Messenger over api.
func New(api API, messenger download.Messenger, opts Options) *Bot {
	if opts.MaxUploads <= 0 {
		opts.MaxUploads = 1
	}
	if opts.RecoveryOptions.Timeout == 0 {
		opts.RecoveryOptions = recovery.DefaultOptions()
	}
	if opts.Access == nil {
		opts.Access = NewAccess(0, nil, nil)
	}
	return &Bot{
		api:       api,
		messenger: messenger,
		opts:      opts,
		uploads:   semaphore.NewWeighted(opts.MaxUploads),
		now:       time.Now,
	}
}

// Run replays missed updates, then serves live updates until ctx ends. On
// return the last processed update id is saved as the new checkpoint.
func (b *Bot) Run(ctx context.Context) error {
	last := 0

	if b.opts.Store != nil && b.opts.Recover {
		var queue []tgbotapi.Update
		sink := recovery.SinkFunc(func(u any) error {
			up, ok := u.(tgbotapi.Update)
			if !ok || up.UpdateID == 0 {
				return fmt.Errorf("%w: %T", recovery.ErrMalformed, u)
			}
			queue = append(queue, up)
			return nil
		})

		fetcher := b.opts.Fetcher
		if fetcher == nil {
			fetcher = NewDifference(b.api)
		}
		rep := recovery.Recover(ctx, b.opts.Store, fetcher, sink, b.opts.RecoveryOptions)
		if rep.Found {
			last = rep.Checkpoint.Pts
		}
		// A stalled slice leaves the checkpoint behind what was replayed.
		for _, up := range queue {
			if up.UpdateID > last {
				last = up.UpdateID
			}
			b.dispatch(ctx, up)
		}
	}

	cfg := tgbotapi.NewUpdate(0)
	if last > 0 {
		cfg.Offset = last + 1
	}
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)
	utils.Info("listening for updates from offset %d", cfg.Offset)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			b.saveCheckpoint(last)
			return nil
		case up, ok := <-updates:
			if !ok {
				b.wg.Wait()
				b.saveCheckpoint(last)
				return nil
			}
			if up.UpdateID > last {
				last = up.UpdateID
			}
			b.dispatch(ctx, up)
		}
	}
}

// Wait blocks until background uploads finish.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) saveCheckpoint(last int) {
	if b.opts.Store == nil || last == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cp := recovery.Checkpoint{Pts: last, Date: b.now().Unix()}
	if err := b.opts.Store.Save(ctx, cp); err != nil {
		utils.Error("failed to save update checkpoint: %v", err)
		return
	}
	utils.Info("saved update checkpoint at %d", last)
}

func (b *Bot) dispatch(ctx context.Context, up tgbotapi.Update) {
	msg := up.Message
	if msg == nil || !msg.IsCommand() {
		return
	}
	if !b.opts.Access.Authorized(msg) {
		utils.Debug("ignoring /%s from unauthorized chat %d", msg.Command(), chatID(msg))
		return
	}

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "ping":
		b.handlePing(ctx, msg)
	case "download", "dl":
		b.handleDownload(ctx, msg)
	case "cancel", "c":
		b.handleCancel(ctx, msg)
	case "status":
		b.handleStatus(ctx, msg)
	case "pd":
		b.handleUpload(ctx, msg)
	case "shutdown":
		b.handleShutdown(ctx, msg)
	}
}
