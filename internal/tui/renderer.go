package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/wethinkt/go-yesand/internal/tuilog"
)

// Shared glamour renderer (created lazily, rebuilt when the width changes)
var sharedRenderer *glamour.TermRenderer
var sharedRendererWidth int

func getRenderer(width int) *glamour.TermRenderer {
	if sharedRenderer == nil || sharedRendererWidth != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStylePath("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			tuilog.Log.Warn("glamour renderer unavailable", "error", err)
			return nil
		}
		sharedRenderer = r
		sharedRendererWidth = width
	}
	return sharedRenderer
}

// renderMarkdown renders a finished reply. Rendered output is cached per
// reply until the width changes.
func (m *Model) renderMarkdown(text string, width int) (string, bool) {
	if out, ok := m.markdown[text]; ok {
		return out, true
	}
	r := getRenderer(width)
	if r == nil {
		return "", false
	}
	out, err := r.Render(text)
	if err != nil {
		tuilog.Log.Warn("markdown render failed", "error", err)
		return "", false
	}
	out = strings.Trim(out, "\n")
	if m.markdown == nil {
		m.markdown = make(map[string]string)
	}
	m.markdown[text] = out
	return out, true
}
