package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pdmirror/pdmirror/internal/tui/components"
	"github.com/pdmirror/pdmirror/internal/utils"
)

func (m RootModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	availableHeight := m.height - 2
	availableWidth := m.width - 2

	leftWidth := int(float64(availableWidth) * ListWidthRatio)
	rightWidth := availableWidth - leftWidth

	bodyHeight := availableHeight - HeaderHeight
	if bodyHeight < 12 {
		bodyHeight = 12
	}
	graphHeight := bodyHeight / 3
	if graphHeight < 7 {
		graphHeight = 7
	}
	detailHeight := bodyHeight - graphHeight

	header := m.renderHeader(availableWidth)

	listBox := renderBtopBox(fmt.Sprintf("Downloads [%d]", len(m.downloads)),
		m.renderList(leftWidth-4), leftWidth, bodyHeight, ColorAccent, false)

	graphBox := renderBtopBox("Network Activity",
		m.renderGraph(rightWidth-2, graphHeight-2), rightWidth, graphHeight, ColorPrimary, true)

	var detail string
	if d := m.GetSelectedDownload(); d != nil {
		detail = m.renderDetails(d, rightWidth-4)
	} else {
		detail = lipgloss.Place(rightWidth-4, detailHeight-2, lipgloss.Center, lipgloss.Center,
			CardStatsStyle.Render("No download selected"))
	}
	detailBox := renderBtopBox("Details", detail, rightWidth, detailHeight, ColorBorder, true)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		listBox,
		lipgloss.JoinVertical(lipgloss.Left, graphBox, detailBox),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderFooter())
}

func (m RootModel) renderHeader(width int) string {
	var speed int64
	for _, d := range m.downloads {
		speed += d.DownloadSpeed
	}

	stats := []string{
		fmt.Sprintf("%d active", len(m.downloads)),
		humanize.IBytes(uint64(speed)) + "/s",
	}
	if m.opts.DownloadDir != "" {
		stats = append(stats, humanize.IBytes(m.free)+" free")
	}
	if !m.lastUpdate.IsZero() {
		stats = append(stats, "updated "+humanize.RelTime(m.lastUpdate, m.opts.Now(), "ago", "from now"))
	}

	title := TitleStyle.Render("pdmirror")
	if m.opts.Endpoint != "" {
		title += CardStatsStyle.Render(m.opts.Endpoint)
	}
	right := StatsStyle.Render(strings.Join(stats, " · "))

	gap := width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Height(HeaderHeight).Render(title + strings.Repeat(" ", gap) + right)
}

func (m RootModel) renderList(width int) string {
	if len(m.downloads) == 0 {
		return lipgloss.Place(width, 3, lipgloss.Center, lipgloss.Center,
			CardStatsStyle.Render("No active downloads"))
	}

	barWidth := width - ProgressBarWidthOffset
	if barWidth < 10 {
		barWidth = 10
	}

	var rows []string
	for i, d := range m.downloads {
		style := ItemStyle
		marker := "  "
		if i == m.cursor {
			style = SelectedItemStyle
			marker = "> "
		}
		pct := utils.Percent(d.CompletedLength, d.TotalLength)

		d.progress.Width = barWidth
		rows = append(rows,
			style.Render(marker+truncateString(d.Name(), width-2)),
			"  "+d.progress.ViewAs(pct),
			CardStatsStyle.Render(fmt.Sprintf("  %.1f%% · %s / %s · %s/s · ETA %s",
				pct*100,
				utils.ReadableBytes(d.CompletedLength),
				utils.ReadableBytes(d.TotalLength),
				utils.ReadableBytes(d.DownloadSpeed),
				utils.FormatETA(d.Remaining(), float64(d.DownloadSpeed)))),
			"",
		)
	}
	return strings.Join(rows, "\n")
}

func (m RootModel) renderGraph(width, height int) string {
	axisWidth := 6
	graphWidth := width - axisWidth - 2
	if graphWidth < 10 {
		graphWidth = 10
	}
	graphHeight := height - 1
	if graphHeight < 1 {
		graphHeight = 1
	}

	maxSpeed := graphScale(m.SpeedHistory)
	graph := renderSpeedGraph(m.SpeedHistory, graphWidth, graphHeight, maxSpeed, ColorAccent)

	axisStyle := lipgloss.NewStyle().Width(axisWidth).Foreground(ColorSubtext).Align(lipgloss.Right)
	spaces := graphHeight - 2
	if spaces < 0 {
		spaces = 0
	}
	axis := lipgloss.JoinVertical(lipgloss.Right,
		axisStyle.Render(fmt.Sprintf("%.0f", maxSpeed)),
		strings.Repeat("\n", spaces),
		axisStyle.Render("0"),
	)

	current := 0.0
	if len(m.SpeedHistory) > 0 {
		current = m.SpeedHistory[len(m.SpeedHistory)-1]
	}
	title := lipgloss.NewStyle().Width(width - 2).Align(lipgloss.Right).
		Foreground(ColorAccent).Bold(true).
		Render(fmt.Sprintf("Current: %.2f MB/s", current))

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, axis, lipgloss.NewStyle().MarginLeft(1).Render(graph)),
	)
}

func (m RootModel) renderDetails(d *DownloadModel, w int) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			StatsLabelStyle.Render(label), StatsValueStyle.Render(value))
	}

	lines := []string{
		"",
		row("Name:", truncateString(d.Name(), w-14)),
		row("GID:", d.GID),
		row("Status:", d.Status.Status),
		row("Size:", fmt.Sprintf("%s / %s", utils.ReadableBytes(d.CompletedLength), utils.ReadableBytes(d.TotalLength))),
		row("Speed:", utils.ReadableBytes(d.DownloadSpeed)+"/s"),
		row("ETA:", utils.FormatClockETA(d.Remaining(), float64(d.DownloadSpeed))),
		row("Conns:", fmt.Sprintf("%d", d.Connections)),
		row("Seen:", humanize.RelTime(d.FirstSeen, m.opts.Now(), "ago", "from now")),
	}
	if d.Dir != "" {
		lines = append(lines, row("Dir:", truncateString(d.Dir, w-14)))
	}

	if m.showPieces && d.NumPieces > 0 {
		pm := components.NewPieceMapModel(&d.Status, w-2, 4)
		pm.Done = PieceDoneStyle
		pm.Partial = PiecePartialStyle
		pm.Pending = PiecePendingStyle
		lines = append(lines, "",
			CardStatsStyle.Render(fmt.Sprintf("%d pieces of %s", d.NumPieces, humanize.IBytes(uint64(d.PieceLength)))),
			pm.View())
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(strings.Join(lines, "\n"))
}

func (m RootModel) renderFooter() string {
	switch {
	case m.notification != "":
		return NotificationStyle.Render(" " + m.notification)
	case m.lastErr != nil:
		return ErrorStyle.Render(" aria2 unreachable: " + truncateString(m.lastErr.Error(), 60))
	}
	return StatusBarStyle.Render("[↑/↓] Select  [C] Copy GID  [P] Pieces  [R] Refresh  [Q] Quit")
}

func truncateString(s string, i int) string {
	if i < 1 {
		i = 1
	}
	runes := []rune(s)
	if len(runes) > i {
		return string(runes[:i]) + "..."
	}
	return s
}

// renderBtopBox creates a btop-style box with title embedded in the top border
// Example (left):  ╭─ TITLE ─────────────────────────────────╮
// Example (right): ╭─────────────────────────────────── TITLE ─╮
func renderBtopBox(title string, content string, width, height int, borderColor lipgloss.Color, titleRight bool) string {
	const (
		topLeft     = "╭"
		topRight    = "╮"
		bottomLeft  = "╰"
		bottomRight = "╯"
		horizontal  = "─"
		vertical    = "│"
	)

	innerWidth := width - 2
	if innerWidth < 1 {
		innerWidth = 1
	}

	border := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	titleText := fmt.Sprintf(" %s ", title)
	remaining := innerWidth - lipgloss.Width(titleText) - 1
	if remaining < 0 {
		remaining = 0
	}

	var top string
	if titleRight {
		top = border.Render(topLeft+strings.Repeat(horizontal, remaining)) +
			titleStyle.Render(titleText) +
			border.Render(horizontal+topRight)
	} else {
		top = border.Render(topLeft+horizontal) +
			titleStyle.Render(titleText) +
			border.Render(strings.Repeat(horizontal, remaining)+topRight)
	}
	bottom := border.Render(bottomLeft + strings.Repeat(horizontal, innerWidth) + bottomRight)

	contentLines := strings.Split(content, "\n")
	innerHeight := height - 2
	lines := make([]string, 0, innerHeight)
	for i := 0; i < innerHeight; i++ {
		line := ""
		if i < len(contentLines) {
			line = contentLines[i]
		}
		if w := lipgloss.Width(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		} else if w > innerWidth {
			line = lipgloss.NewStyle().MaxWidth(innerWidth).Render(line)
		}
		lines = append(lines, border.Render(vertical)+line+border.Render(vertical))
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, strings.Join(lines, "\n"), bottom)
}
