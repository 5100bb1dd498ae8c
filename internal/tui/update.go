package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdmirror/pdmirror/internal/aria2"
	"github.com/pdmirror/pdmirror/internal/utils"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.notification != "" && !m.opts.Now().Before(m.notifyUntil) {
			m.notification = ""
		}
		return m, tea.Batch(m.fetch(), m.tick())

	case statusMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			utils.Debug("dashboard poll failed: %v", msg.err)
			return m, nil
		}
		m.lastErr = nil
		m.apply(msg.list)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.downloads)-1 {
				m.cursor++
			}
		case "p":
			m.showPieces = !m.showPieces
		case "c":
			if d := m.GetSelectedDownload(); d != nil {
				if err := m.opts.Copy(d.GID); err != nil {
					m.notify("Copy failed: " + err.Error())
				} else {
					m.notify("Copied GID " + d.GID)
				}
			}
		case "r":
			return m, m.fetch()
		}
	}
	return m, nil
}

// apply replaces the download list with list, keeping per-download state for
// GIDs seen before. The cursor stays on the same GID when it survives.
func (m *RootModel) apply(list []aria2.Status) {
	now := m.opts.Now()

	selected := ""
	if d := m.GetSelectedDownload(); d != nil {
		selected = d.GID
	}

	known := make(map[string]*DownloadModel, len(m.downloads))
	for _, d := range m.downloads {
		known[d.GID] = d
	}

	next := make([]*DownloadModel, 0, len(list))
	var speed int64
	for _, st := range list {
		d, ok := known[st.GID]
		if ok {
			d.Status = st
		} else {
			d = newDownloadModel(st, now)
		}
		next = append(next, d)
		speed += st.DownloadSpeed
	}
	m.downloads = next

	m.cursor = 0
	for i, d := range m.downloads {
		if d.GID == selected {
			m.cursor = i
			break
		}
	}

	m.SpeedHistory = append(m.SpeedHistory, float64(speed)/Megabyte)
	if len(m.SpeedHistory) > SpeedHistoryLength {
		m.SpeedHistory = m.SpeedHistory[len(m.SpeedHistory)-SpeedHistoryLength:]
	}

	if m.opts.DownloadDir != "" {
		if free, err := m.opts.FreeSpace(m.opts.DownloadDir); err == nil {
			m.free = free
		}
	}
	m.lastUpdate = now
}

func (m *RootModel) notify(text string) {
	m.notification = text
	m.notifyUntil = m.opts.Now().Add(NotificationTimeout)
}
