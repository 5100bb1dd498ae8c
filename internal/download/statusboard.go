package download

import (
	"context"
	"sync"
	"time"

	"github.com/pdmirror/pdmirror/internal/utils"
)

type session struct {
	loc    Location
	cancel context.CancelFunc
	done   chan struct{}
}

// StatusBoard keeps one live aggregate status message per user.
type StatusBoard struct {
	Daemon    Daemon
	Messenger Messenger

	Interval    time.Duration
	DownloadDir string
	FreeSpace   func(path string) (uint64, error)

	startMu  sync.Mutex
	mu       sync.Mutex
	sessions map[int64]*session
	wg       sync.WaitGroup
}

// NewStatusBoard creates a board refreshing every 5 seconds.
func NewStatusBoard(d Daemon, m Messenger, downloadDir string) *StatusBoard {
	return &StatusBoard{
		Daemon:      d,
		Messenger:   m,
		Interval:    5 * time.Second,
		DownloadDir: downloadDir,
		FreeSpace:   utils.FreeSpace,
		sessions:    make(map[int64]*session),
	}
}

// Start replaces userID's session with a new status message in chatID. The
// previous loop is stopped and has made its last edit before Start sends
// anything; its message is deleted when it lives in the same chat. The new
// loop runs until ctx ends, it is replaced, or no downloads remain.
func (b *StatusBoard) Start(ctx context.Context, userID, chatID int64, replyTo int) error {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	b.mu.Lock()
	old := b.sessions[userID]
	delete(b.sessions, userID)
	b.mu.Unlock()

	if old != nil {
		old.cancel()
		<-old.done
		if old.loc.ChatID == chatID {
			if err := b.Messenger.Delete(ctx, old.loc); err != nil {
				utils.Debug("failed to delete old status message: %v", err)
			}
		}
	}

	loc, err := b.Messenger.Send(ctx, chatID, replyTo, fetchingText)
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s := &session{loc: loc, cancel: cancel, done: make(chan struct{})}

	b.mu.Lock()
	b.sessions[userID] = s
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(s.done)
		defer cancel()

		b.run(loopCtx, loc)

		b.mu.Lock()
		if b.sessions[userID] == s {
			delete(b.sessions, userID)
		}
		b.mu.Unlock()
	}()
	return nil
}

// Active reports whether userID has a live session.
func (b *StatusBoard) Active(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.sessions[userID]
	return ok
}

// Stop cancels every session and waits for the loops to exit.
func (b *StatusBoard) Stop() {
	b.mu.Lock()
	for id, s := range b.sessions {
		s.cancel()
		delete(b.sessions, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
}

func (b *StatusBoard) run(ctx context.Context, loc Location) {
	var lastText string
	render := func(text string) {
		// A replaced session must not touch its message again.
		if ctx.Err() != nil || text == lastText {
			return
		}
		if err := b.Messenger.Edit(ctx, loc, text); err != nil {
			utils.Debug("aggregate status edit failed: %v", err)
		}
		lastText = text
	}

	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		list, err := b.Daemon.TellActive(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			utils.Warn("failed to fetch active downloads: %v", err)
			render(fetchErrorText(err))
			continue
		}
		if len(list) == 0 {
			render(noActiveText)
			return
		}
		render(listingText(list, b.free()))
	}
}

func (b *StatusBoard) free() string {
	if b.DownloadDir == "" || b.FreeSpace == nil {
		return ""
	}
	n, err := b.FreeSpace(b.DownloadDir)
	if err != nil {
		utils.Debug("free space for %s: %v", b.DownloadDir, err)
		return ""
	}
	return utils.ReadableBytes(int64(n))
}
