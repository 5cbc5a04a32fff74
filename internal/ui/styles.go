package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
	colorWarn      = lipgloss.Color("214") // Amber
	colorError     = lipgloss.Color("196") // Red
)

// Palette holds the theme-dependent styles.
type Palette struct {
	Text        lipgloss.Style
	Title       lipgloss.Style
	Panel       lipgloss.Style
	PanelFocus  lipgloss.Style
	StatusBar   lipgloss.Style
	Placeholder lipgloss.Style
}

// PaletteFor returns the styles for "dark" or "light". Anything else is dark.
func PaletteFor(theme string) Palette {
	fg, bg, border := lipgloss.Color("255"), lipgloss.Color("236"), lipgloss.Color("238")
	if theme == "light" {
		fg, bg, border = lipgloss.Color("235"), lipgloss.Color("254"), lipgloss.Color("250")
	}
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	return Palette{
		Text:        lipgloss.NewStyle().Foreground(fg),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(colorHighlight),
		Panel:       panel,
		PanelFocus:  panel.BorderForeground(colorPrimary),
		StatusBar:   lipgloss.NewStyle().Foreground(fg).Background(bg).Padding(0, 1),
		Placeholder: lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
	}
}

// Header style for the dashboard title line.
var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// SourceBadge marks data served from a fallback set.
var SourceBadge = lipgloss.NewStyle().
	Foreground(colorWarn).
	Background(lipgloss.Color("236")).
	Padding(0, 1).
	MarginLeft(1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for the per-panel error banner.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(colorError).
	Bold(true)

// OKStyle for healthy status text.
var OKStyle = lipgloss.NewStyle().
	Foreground(colorSuccess)

// MutedStyle for secondary text.
var MutedStyle = lipgloss.NewStyle().
	Foreground(colorSecondary)

// Rating colors for stargazing and geomagnetic classes.
var (
	GoodStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	FairStyle = lipgloss.NewStyle().Foreground(colorWarn)
	PoorStyle = lipgloss.NewStyle().Foreground(colorError)
)

// TutorStyle frames the tutor answer box.
var TutorStyle = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), true, false, false, false).
	BorderForeground(colorPrimary).
	Padding(0, 1)

// DebugHeaderStyle for section headings in the debug overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight)

// DebugPanel frames the debug overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)
