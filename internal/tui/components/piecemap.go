package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdmirror/pdmirror/internal/aria2"
)

// CellState is the downsampled state of a run of pieces.
type CellState int

const (
	CellPending CellState = iota
	CellPartial
	CellDone
)

// PieceMapModel visualizes an aria2 piece bitfield as a grid.
type PieceMapModel struct {
	Status *aria2.Status
	Width  int // UI render width (columns * 2)
	Height int // rows, clamped to 1..5

	Done    lipgloss.Style
	Partial lipgloss.Style
	Pending lipgloss.Style
}

// NewPieceMapModel creates a piece map for st.
func NewPieceMapModel(st *aria2.Status, width, height int) PieceMapModel {
	return PieceMapModel{
		Status:  st,
		Width:   width,
		Height:  height,
		Done:    lipgloss.NewStyle(),
		Partial: lipgloss.NewStyle(),
		Pending: lipgloss.NewStyle(),
	}
}

// Cells downsamples the bitfield into n cells. A cell is done when every
// piece it covers is done, partial when some are.
func (m PieceMapModel) Cells(n int) []CellState {
	if m.Status == nil || m.Status.NumPieces == 0 || n <= 0 {
		return nil
	}
	pieces := m.Status.NumPieces
	if n > pieces {
		n = pieces
	}

	cells := make([]CellState, n)
	for i := range cells {
		start := i * pieces / n
		end := (i + 1) * pieces / n
		have := 0
		for p := start; p < end; p++ {
			if m.Status.HasPiece(p) {
				have++
			}
		}
		switch {
		case have == end-start:
			cells[i] = CellDone
		case have > 0:
			cells[i] = CellPartial
		}
	}
	return cells
}

// View renders the grid.
func (m PieceMapModel) View() string {
	cols := m.Width / 2
	if cols < 1 {
		cols = 1
	}
	rows := m.Height
	if rows < 1 {
		rows = 1
	}
	if rows > 5 {
		rows = 5
	}

	cells := m.Cells(cols * rows)
	if len(cells) == 0 {
		return ""
	}

	var b strings.Builder
	for i, c := range cells {
		if i > 0 && i%cols == 0 {
			b.WriteByte('\n')
		}
		switch c {
		case CellDone:
			b.WriteString(m.Done.Render("■"))
		case CellPartial:
			b.WriteString(m.Partial.Render("▪"))
		default:
			b.WriteString(m.Pending.Render("□"))
		}
		if (i+1)%cols != 0 {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
