package tui

import (
	"sync"

	"charm.land/lipgloss/v2"
)

// Palette colors. Only roles get color; other text keeps the terminal's
// foreground.
const (
	colorAccent = "#7AA2F7"
	colorMuted  = "#6B7089"
	colorHuman  = "#E0AF68"
	colorError  = "#F7768E"
	colorDone   = "#9ECE6A"
)

// Styles holds the computed lipgloss styles for the session view.
type Styles struct {
	Intro  lipgloss.Style
	Title  lipgloss.Style
	Hint   lipgloss.Style
	Banner lipgloss.Style

	// Persona picker
	PickerItem     lipgloss.Style
	PickerSelected lipgloss.Style
	PickerTagline  lipgloss.Style

	// Transcript
	Loading      lipgloss.Style
	Suggestion   lipgloss.Style
	HumanMessage lipgloss.Style
	AIMessage    lipgloss.Style
	SystemNormal lipgloss.Style
	SystemHint   lipgloss.Style
	SystemError  lipgloss.Style
	Status       lipgloss.Style
	StatusDone   lipgloss.Style
	Cursor       lipgloss.Style

	Image  lipgloss.Style
	Footer lipgloss.Style
}

var (
	stylesOnce sync.Once
	styles     Styles
)

// GetStyles returns the shared styles, building them on first use.
func GetStyles() *Styles {
	stylesOnce.Do(func() {
		styles = buildStyles()
	})
	return &styles
}

func buildStyles() Styles {
	muted := lipgloss.Color(colorMuted)
	accent := lipgloss.Color(colorAccent)

	return Styles{
		Intro: lipgloss.NewStyle().
			Foreground(muted).
			MarginBottom(1),
		Title: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		Hint: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)).
			Bold(true),

		PickerItem: lipgloss.NewStyle().
			PaddingLeft(2),
		PickerSelected: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		PickerTagline: lipgloss.NewStyle().
			Foreground(muted).
			PaddingLeft(4),

		Loading: lipgloss.NewStyle().
			Foreground(muted),
		Suggestion: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),
		HumanMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorHuman)),
		AIMessage:    lipgloss.NewStyle(),
		SystemNormal: lipgloss.NewStyle(),
		SystemHint: lipgloss.NewStyle().
			Foreground(muted).
			Italic(true),
		SystemError: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorError)),
		Status: lipgloss.NewStyle().
			Foreground(accent),
		StatusDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDone)),
		Cursor: lipgloss.NewStyle().
			Foreground(accent),

		Image: lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1),
		Footer: lipgloss.NewStyle().
			Foreground(muted),
	}
}
