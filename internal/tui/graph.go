package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var graphBlocks = []string{" ", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// renderSpeedGraph draws data as a bar graph of width x height cells on a
// dashed grid. The newest sample is the right-most column; values are scaled
// against maxVal.
func renderSpeedGraph(data []float64, width, height int, maxVal float64, color lipgloss.Color) string {
	if width < 1 || height < 1 {
		return ""
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	gridStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	barStyle := lipgloss.NewStyle().Foreground(color)

	rows := make([][]string, height)
	for i := range rows {
		rows[i] = make([]string, width)
		for j := range rows[i] {
			if i%2 == 0 {
				rows[i][j] = gridStyle.Render("╌")
			} else {
				rows[i][j] = " "
			}
		}
	}

	visible := data
	if len(visible) > width {
		visible = visible[len(visible)-width:]
	}
	offset := width - len(visible)

	for x, val := range visible {
		if val < 0 {
			val = 0
		}
		pct := val / maxVal
		if pct > 1 {
			pct = 1
		}
		subBlocks := pct * float64(height) * 8

		for y := 0; y < height; y++ {
			v := subBlocks - float64(y*8)
			if v <= 0 {
				break
			}
			char := "█"
			if v < 8 {
				char = graphBlocks[int(v)]
			}
			rows[height-1-y][offset+x] = barStyle.Render(char)
		}
	}

	lines := make([]string, height)
	for i, row := range rows {
		lines[i] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// graphScale rounds the peak up with 10% headroom to a tidy axis maximum.
func graphScale(data []float64) float64 {
	peak := 1.0
	for _, v := range data {
		if v > peak {
			peak = v
		}
	}
	peak *= 1.1
	if peak >= 5 {
		return float64(int((peak+4.99)/5) * 5)
	}
	return float64(int(peak + 0.99))
}
