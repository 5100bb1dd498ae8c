// Package tui is the terminal dashboard for downloads running in aria2.
package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/utils"
)

// Lister reports the downloads aria2 is working on. *aria2.Client
// implements it.
type Lister interface {
	TellActive(ctx context.Context) ([]aria2.Status, error)
}

// Options configures the dashboard. Zero values fall back to defaults.
type Options struct {
	Endpoint    string
	DownloadDir string
	Interval    time.Duration

	FreeSpace func(path string) (uint64, error)
	Copy      func(text string) error
	Now       func() time.Time
}

type DownloadModel struct {
	aria2.Status

	FirstSeen time.Time
	progress  progress.Model
}

type RootModel struct {
	lister Lister
	opts   Options

	downloads []*DownloadModel
	cursor    int
	width     int
	height    int

	SpeedHistory []float64
	free         uint64
	lastUpdate   time.Time
	lastErr      error

	showPieces   bool
	notification string
	notifyUntil  time.Time
}

type tickMsg time.Time

type statusMsg struct {
	list []aria2.Status
	err  error
}

// InitialRootModel builds a dashboard that polls lister.
func InitialRootModel(lister Lister, opts Options) RootModel {
	if opts.Interval <= 0 {
		opts.Interval = TickInterval
	}
	if opts.FreeSpace == nil {
		opts.FreeSpace = utils.FreeSpace
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return RootModel{
		lister:     lister,
		opts:       opts,
		showPieces: true,
	}
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

func (m RootModel) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m RootModel) fetch() tea.Cmd {
	lister := m.lister
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), FetchTimeout)
		defer cancel()
		list, err := lister.TellActive(ctx)
		return statusMsg{list: list, err: err}
	}
}

// GetSelectedDownload returns the download under the cursor, or nil.
func (m RootModel) GetSelectedDownload() *DownloadModel {
	if m.cursor < 0 || m.cursor >= len(m.downloads) {
		return nil
	}
	return m.downloads[m.cursor]
}

func newDownloadModel(st aria2.Status, now time.Time) *DownloadModel {
	return &DownloadModel{
		Status:    st,
		FirstSeen: now,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}
