package download

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pdmirror/pdmirror/internal/utils"
)

// ErrAlreadyTracked is returned when the daemon hands out a GID that is
// still being watched.
var ErrAlreadyTracked = errors.New("download already tracked")

// Config tunes the manager's loops. Zero values fall back to defaults.
type Config struct {
	PollInterval   time.Duration
	RenderInterval time.Duration
	StatusInterval time.Duration
	DownloadDir    string
}

// Manager wires the tracker, pollers, status board and canceller together.
type Manager struct {
	Tracker   *Tracker
	Poller    *Poller
	Board     *StatusBoard
	Canceller *Canceller

	daemon    Daemon
	messenger Messenger

	mu       sync.Mutex
	watchers map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// NewManager creates a manager around d and m.
func NewManager(d Daemon, m Messenger, cfg Config) *Manager {
	tracker := NewTracker()

	poller := NewPoller(d, m, tracker)
	if cfg.PollInterval > 0 {
		poller.PollInterval = cfg.PollInterval
	}
	if cfg.RenderInterval > 0 {
		poller.RenderInterval = cfg.RenderInterval
	}

	board := NewStatusBoard(d, m, cfg.DownloadDir)
	if cfg.StatusInterval > 0 {
		board.Interval = cfg.StatusInterval
	}

	return &Manager{
		Tracker:   tracker,
		Poller:    poller,
		Board:     board,
		Canceller: &Canceller{Daemon: d, Messenger: m, Tracker: tracker},
		daemon:    d,
		messenger: m,
		watchers:  make(map[string]context.CancelFunc),
	}
}

// Submit queues uri, replies with its GID in chatID and starts watching it.
// The watch loop lives until the download ends or ctx is cancelled.
func (m *Manager) Submit(ctx context.Context, chatID int64, replyTo int, uri string) (string, error) {
	gid, err := m.daemon.AddURI(ctx, uri)
	if err != nil {
		return "", fmt.Errorf("failed to add download: %w", err)
	}
	utils.Info("added download GID %s for URL %s", gid, uri)

	loc, err := m.messenger.Send(ctx, chatID, replyTo, addedText(gid))
	if err != nil {
		// Nobody could see or cancel the job without its message.
		m.withdraw(ctx, gid)
		return gid, fmt.Errorf("failed to post status message: %w", err)
	}

	if !m.Tracker.Register(gid, loc) {
		// The existing watcher owns the job; only the new message is stray.
		if err := m.messenger.Delete(ctx, loc); err != nil {
			utils.Debug("failed to delete duplicate status message for %s: %v", gid, err)
		}
		return gid, ErrAlreadyTracked
	}

	watchCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.watchers[gid] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			delete(m.watchers, gid)
			m.mu.Unlock()
			cancel()
		}()

		outcome := m.Poller.Watch(watchCtx, gid)
		utils.Log().Info().Str("gid", gid).Stringer("outcome", outcome).Msg("watch finished")
	}()
	return gid, nil
}

// withdraw removes an untracked job from the daemon, best effort.
func (m *Manager) withdraw(ctx context.Context, gid string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := m.daemon.Remove(ctx, gid); err != nil {
		utils.Error("failed to withdraw download %s: %v", gid, err)
		return
	}
	if err := m.daemon.RemoveDownloadResult(ctx, gid); err != nil {
		utils.Debug("failed to purge withdrawn download %s: %v", gid, err)
	}
	utils.Info("withdrew download %s", gid)
}

// Cancel stops a tracked download. See Canceller.Cancel.
func (m *Manager) Cancel(ctx context.Context, gid string) (*CancelResult, error) {
	return m.Canceller.Cancel(ctx, gid)
}

// ShowStatus starts or replaces userID's aggregate status message.
func (m *Manager) ShowStatus(ctx context.Context, userID, chatID int64, replyTo int) error {
	return m.Board.Start(ctx, userID, chatID, replyTo)
}

// Watching returns the number of running watch loops.
func (m *Manager) Watching() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}

// Shutdown stops every loop and waits for them. Downloads keep running in the
// daemon.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, cancel := range m.watchers {
		cancel()
	}
	m.mu.Unlock()

	m.Board.Stop()
	m.wg.Wait()
}

// Wait blocks until every watch loop has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}
