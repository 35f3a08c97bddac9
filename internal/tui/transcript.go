package tui

import (
	"os"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/go-yesand/internal/anim"
	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/session"
)

const streamCursor = "▋"

// renderContent lays out everything above the input line for the current
// phase.
func (m *Model) renderContent() string {
	s := GetStyles()
	width := max(20, m.width)
	sess := m.session

	parts := []string{s.Intro.Width(width).Render(i18n.T("tui.intro",
		"yes,and.ai allows you to imagine collaboratively with an AI persona. Select a scene partner, chat it out, then see your scene come to life through an AI generated image."))}

	if sess.Phase != session.PhaseIdle && sess.Phase != session.PhaseLoading &&
		sess.Persona != nil && sess.SuggestionWord != "" {
		parts = append(parts, m.renderRows(anim.Transcript(BuildLoadingScript(sess.Persona, sess.SuggestionWord))))
	}

	generated := s.StatusDone.Render(i18n.T("tui.status.generated", "generating image... done."))
	switch sess.Phase {
	case session.PhaseIdle:
		parts = append(parts, m.pickerView())

	case session.PhaseLoading:
		if m.loading != nil {
			parts = append(parts, m.renderRows(m.loading.Rows()))
		}

	case session.PhaseReady, session.PhaseChatting:
		parts = append(parts, m.messagesView(width))

	case session.PhaseGenerating:
		status := ""
		if m.status != nil {
			status = m.status.View()
		}
		parts = append(parts, m.messagesView(width), m.spinner.View()+" "+s.Status.Render(status))

	case session.PhaseRevealing:
		parts = append(parts, m.messagesView(width), generated, m.imageBlock())

	case session.PhaseDone:
		parts = append(parts, m.messagesView(width), generated, m.imageBlock(),
			i18n.T("tui.prompt.download", "download? [y/n]"))

	case session.PhaseFinished:
		parts = append(parts, m.messagesView(width), generated, m.imageBlock(),
			i18n.T("tui.prompt.newScene", "new scene? [y/n]"))
	}

	return joinNonEmpty(parts)
}

// renderRows draws loading script rows. The row being typed carries a
// cursor and a parked script shows a spinner under its last line.
func (m *Model) renderRows(rows []anim.Row) string {
	s := GetStyles()
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Waiting {
			lines = append(lines, m.spinner.View())
			continue
		}
		text := strings.Join(row.Segments, "")
		style := s.Loading
		if strings.HasPrefix(text, "▶") {
			style = s.Suggestion
		}
		out := style.Render(text)
		if row.Typing {
			out += s.Cursor.Render(streamCursor)
		}
		lines = append(lines, out)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) messagesView(width int) string {
	s := GetStyles()
	msgs := m.session.Messages
	lastAI := -1
	for i, msg := range msgs {
		if msg.Role == session.RoleAI {
			lastAI = i
		}
	}

	lines := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		switch msg.Role {
		case session.RoleHuman:
			lines = append(lines, s.HumanMessage.Width(width).Render("> "+msg.Content))

		case session.RoleAI:
			if m.session.IsStreaming && i == lastAI {
				lines = append(lines, s.AIMessage.Width(width).Render(msg.Content+s.Cursor.Render(streamCursor)))
				continue
			}
			if m.cfg.Markdown && msg.Content != "" {
				if out, ok := m.renderMarkdown(msg.Content, width); ok {
					lines = append(lines, out)
					continue
				}
			}
			lines = append(lines, s.AIMessage.Width(width).Render(msg.Content))

		default:
			lines = append(lines, systemStyle(msg.Variant).Width(width).Render(msg.Content))
		}
	}
	return strings.Join(lines, "\n")
}

func systemStyle(v session.Variant) lipgloss.Style {
	s := GetStyles()
	switch v {
	case session.VariantNormal:
		return s.SystemNormal
	case session.VariantError:
		return s.SystemError
	}
	return s.SystemHint
}

func (m *Model) imageBlock() string {
	s := GetStyles()
	out := m.imageView()
	if m.noImage {
		out += "\n" + s.Hint.Render(i18n.T("tui.image.unavailable", "image unavailable"))
	}
	return s.Image.Render(out)
}

func (m *Model) inputView() string {
	if !m.session.AcceptsInput() {
		return ""
	}
	return m.input.View()
}

func (m *Model) syncPlaceholder() {
	switch m.session.Phase {
	case session.PhaseDone, session.PhaseFinished:
		m.input.Placeholder = i18n.T("tui.input.yesno", "y / n")
	default:
		m.input.Placeholder = i18n.T("tui.input.chat", "enter to send...")
	}
}

func (m *Model) footerView() string {
	var bindings []key.Binding
	if m.session.Phase == session.PhaseIdle {
		selectKey := m.keys.Enter
		selectKey.SetHelp("enter", i18n.T("tui.help.select", "select"))
		bindings = []key.Binding{m.keys.Up, selectKey, m.keys.Quit}
	} else {
		if m.session.AcceptsInput() {
			bindings = append(bindings, m.keys.Enter)
		}
		if m.session.CanGenerate() {
			bindings = append(bindings, m.keys.Generate)
		}
		bindings = append(bindings, m.keys.Reset, m.keys.Quit)
	}

	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, h.Key+" "+h.Desc)
	}
	return GetStyles().Footer.Render(strings.Join(items, " · "))
}

// tildePath abbreviates the home directory to ~.
func tildePath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == home {
		return "~"
	}
	if rel, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rel
	}
	return path
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
