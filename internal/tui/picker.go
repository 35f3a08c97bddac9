package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/session"
)

func (m *Model) fetchPersonas() tea.Cmd {
	m.fetching = true
	backend := m.backend
	ctx := m.ctx
	return func() tea.Msg {
		personas, err := backend.Personas(ctx)
		return personasLoadedMsg{personas: personas, err: err}
	}
}

// handlePickerKey moves the cursor, which stays within the list, or selects
// the persona under it.
func (m *Model) handlePickerKey(msg tea.KeyMsg) tea.Cmd {
	if len(m.personas) == 0 {
		return nil
	}
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, len(m.personas))
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, len(m.personas))
	case key.Matches(msg, m.keys.Enter):
		return m.dispatch(session.SelectPersona{Persona: m.personas[m.cursor]})
	}
	return nil
}

func (m *Model) pickerView() string {
	s := GetStyles()
	if m.personaErr != nil {
		return s.Banner.Render(i18n.T("tui.picker.error", "error: failed to load personas"))
	}
	if len(m.personas) == 0 {
		return s.Hint.Render(i18n.T("tui.picker.loading", "loading personas..."))
	}

	var b strings.Builder
	b.WriteString(s.Title.Render(i18n.T("tui.picker.title", "pick your scene partner...")))
	b.WriteString("\n")
	for i, p := range m.personas {
		if i == m.cursor {
			b.WriteString(s.PickerSelected.Render("▶ " + p.Name))
			b.WriteString("\n")
			if p.Tagline != "" {
				b.WriteString(s.PickerTagline.Render(p.Tagline))
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString(s.PickerItem.Render(p.Name))
		b.WriteString("\n")
	}
	b.WriteString(s.Hint.Render(i18n.T("tui.picker.hint", "up/down to navigate, enter to load")))
	return b.String()
}
