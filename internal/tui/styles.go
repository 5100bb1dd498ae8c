package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/pdmirror/pdmirror/internal/config"
)

// Palette is one colour scheme for the dashboard.
type Palette struct {
	Primary   lipgloss.Color
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Warning   lipgloss.Color
	Text      lipgloss.Color
	Subtext   lipgloss.Color
	Border    lipgloss.Color
	StatusBar lipgloss.Color
}

var (
	// DarkPalette is Dracula.
	DarkPalette = Palette{
		Primary:   "#bd93f9",
		Accent:    "#ff79c6",
		Success:   "#50fa7b",
		Error:     "#ff5555",
		Warning:   "#ffb86c",
		Text:      "#f8f8f2",
		Subtext:   "#6272a4",
		Border:    "#44475a",
		StatusBar: "#282a36",
	}

	// LightPalette is Alucard, Dracula's light variant.
	LightPalette = Palette{
		Primary:   "#644ac9",
		Accent:    "#a3144d",
		Success:   "#14710a",
		Error:     "#cb3a2a",
		Warning:   "#a34d14",
		Text:      "#1f1f1f",
		Subtext:   "#635d97",
		Border:    "#cfcfde",
		StatusBar: "#fffbeb",
	}
)

var (
	ColorPrimary lipgloss.Color
	ColorAccent  lipgloss.Color
	ColorSuccess lipgloss.Color
	ColorError   lipgloss.Color
	ColorWarning lipgloss.Color
	ColorText    lipgloss.Color
	ColorSubtext lipgloss.Color
	ColorBorder  lipgloss.Color

	TitleStyle        lipgloss.Style
	StatsStyle        lipgloss.Style
	ItemStyle         lipgloss.Style
	SelectedItemStyle lipgloss.Style
	CardStatsStyle    lipgloss.Style
	StatsLabelStyle   lipgloss.Style
	StatsValueStyle   lipgloss.Style
	StatusBarStyle    lipgloss.Style
	NotificationStyle lipgloss.Style
	ErrorStyle        lipgloss.Style
	PieceDoneStyle    lipgloss.Style
	PiecePartialStyle lipgloss.Style
	PiecePendingStyle lipgloss.Style
)

func init() {
	usePalette(DarkPalette)
}

// ApplyTheme picks the palette for theme and configures lipgloss for the
// terminal's colour profile. ThemeAdaptive asks the terminal for its
// background colour.
func ApplyTheme(theme int) {
	out := termenv.NewOutput(os.Stdout)
	lipgloss.SetColorProfile(out.ColorProfile())

	dark := theme == config.ThemeDark
	if theme != config.ThemeLight && theme != config.ThemeDark {
		dark = out.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(dark)

	if dark {
		usePalette(DarkPalette)
	} else {
		usePalette(LightPalette)
	}
}

func usePalette(p Palette) {
	ColorPrimary = p.Primary
	ColorAccent = p.Accent
	ColorSuccess = p.Success
	ColorError = p.Error
	ColorWarning = p.Warning
	ColorText = p.Text
	ColorSubtext = p.Subtext
	ColorBorder = p.Border

	TitleStyle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(DefaultPaddingY, DefaultPaddingX)

	StatsStyle = lipgloss.NewStyle().
		Foreground(ColorSubtext).
		Padding(DefaultPaddingY, DefaultPaddingX)

	ItemStyle = lipgloss.NewStyle().
		Foreground(ColorText)

	SelectedItemStyle = lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true)

	CardStatsStyle = lipgloss.NewStyle().
		Foreground(ColorSubtext).
		Italic(true)

	StatsLabelStyle = lipgloss.NewStyle().
		Foreground(ColorSubtext).
		Width(12)

	StatsValueStyle = lipgloss.NewStyle().
		Foreground(ColorText)

	StatusBarStyle = lipgloss.NewStyle().
		Foreground(ColorSubtext).
		Background(p.StatusBar).
		Padding(DefaultPaddingY, DefaultPaddingX)

	NotificationStyle = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)

	PieceDoneStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	PiecePartialStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	PiecePendingStyle = lipgloss.NewStyle().Foreground(ColorBorder)
}
