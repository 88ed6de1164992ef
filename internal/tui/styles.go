package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains lipgloss styles for the console.
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Help        lipgloss.Style
	Toast       lipgloss.Style
}

type palette struct {
	accent, muted, info, danger, ok, warn, onAccent lipgloss.Color
}

var palettes = map[string]palette{
	"light": {accent: "63", muted: "241", info: "30", danger: "160", ok: "28", warn: "136", onAccent: "230"},
	"dark":  {accent: "63", muted: "245", info: "86", danger: "196", ok: "46", warn: "226", onAccent: "230"},
}

// DefaultStyles returns the light theme.
func DefaultStyles() Styles {
	return StylesFor("light")
}

// StylesFor returns the styles of a ui.theme value. Unknown themes fall back
// to light.
func StylesFor(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		p = palettes["light"]
	}
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.accent).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(p.muted),
		Status:   lipgloss.NewStyle().Bold(true).Foreground(p.info),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(p.danger),
		Success:  lipgloss.NewStyle().Bold(true).Foreground(p.ok),
		Warning:  lipgloss.NewStyle().Bold(true).Foreground(p.warn),
		Muted:    lipgloss.NewStyle().Foreground(p.muted),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.accent).
			Padding(0, 1),
		Highlighted: lipgloss.NewStyle().
			Background(p.accent).
			Foreground(p.onAccent).
			Bold(true).
			Padding(0, 1),
		Help:  lipgloss.NewStyle().Foreground(p.muted).MarginTop(1),
		Toast: lipgloss.NewStyle().Padding(0, 1),
	}
}
