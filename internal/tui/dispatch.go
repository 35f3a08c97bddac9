package tui

import (
	"errors"
	"reflect"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/anim"
	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/metrics"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/token"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

const (
	statusSpeed = 25 * time.Millisecond
	statusStep  = 2
)

// dispatch applies e to the session and starts or tears down whatever the
// new phase needs. It is the only place the session changes.
func (m *Model) dispatch(e session.Event) tea.Cmd {
	prev := m.session
	next := session.Apply(prev, e)
	applied := !reflect.DeepEqual(prev, next)
	metrics.Event(e.Kind(), applied, string(prev.Phase), string(next.Phase))
	if !applied {
		tuilog.Log.Debug("event ignored", "event", e.Kind(), "phase", prev.Phase)
		return nil
	}
	m.session = next
	tuilog.Log.Debug("event applied", "event", e.Kind(), "from", prev.Phase, "to", next.Phase)

	if prev.Phase != next.Phase {
		return m.enter(prev.Phase, next.Phase)
	}
	if _, ok := e.(session.SetSuggestion); ok && next.Phase == session.PhaseLoading {
		return m.reloadScript()
	}
	return nil
}

// dispatchAll dispatches events in order.
func (m *Model) dispatchAll(events ...session.Event) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(events))
	for _, e := range events {
		cmds = append(cmds, m.dispatch(e))
	}
	return tea.Batch(cmds...)
}

// enter runs the side effects of moving from one phase to another.
// Cancellation always happens before new work is issued.
func (m *Model) enter(from, to session.Phase) tea.Cmd {
	switch to {
	case session.PhaseIdle:
		var cmds []tea.Cmd
		if m.graphics == graphicsKitty && m.sentFrame != nil {
			cmds = append(cmds, tea.Raw(kittyDeleteSequence(m.imageID)))
		}
		m.teardown()
		if m.personaErr != nil && !m.fetching {
			cmds = append(cmds, m.fetchPersonas())
		}
		return tea.Batch(cmds...)

	case session.PhaseLoading:
		return m.startLoading()

	case session.PhaseReady:
		m.tokens.Revoke(token.SlotLoading)
		m.loading = nil
		return nil

	case session.PhaseChatting:
		if from == session.PhaseGenerating {
			m.tokens.Revoke(token.SlotStatus)
			m.status = nil
		}
		return nil

	case session.PhaseGenerating:
		tok, ctx := m.tokens.Issue(token.SlotStatus)
		m.status = anim.NewTypewriter(ctx, tok, m.clock)
		return m.status.Start(i18n.T("tui.status.generating", "generating image..."), statusSpeed, statusStep)

	case session.PhaseRevealing:
		m.tokens.Revoke(token.SlotStatus)
		m.status = nil
		return m.startReveal()

	case session.PhaseDone:
		m.tokens.Revoke(token.SlotReveal)
		return nil
	}
	return nil
}

// teardown cancels everything the previous session started.
func (m *Model) teardown() {
	m.tokens.RevokeAll()
	if m.loading != nil {
		m.loading.Stop()
	}
	if m.status != nil {
		m.status.Stop()
	}
	if m.reveal != nil {
		m.reveal.Stop()
	}
	m.loading = nil
	m.status = nil
	m.reveal = nil
	m.revealCtx = nil
	m.noImage = false
	m.sentFrame = nil
	m.input.Reset()
	m.follow = true
	m.markdown = nil
}

func (m *Model) startLoading() tea.Cmd {
	tok, ctx := m.tokens.Issue(token.SlotLoading)
	m.loading = anim.NewSequencer(ctx, tok, m.clock)
	p := m.session.Persona
	script := m.loading.Load(p.ID, BuildLoadingScript(p, ""), false)

	backend := m.backend
	suggest := func() tea.Msg {
		word, err := backend.Suggestion(ctx)
		return suggestionMsg{tok: tok, word: word, err: err}
	}
	return tea.Batch(script, suggest)
}

// reloadScript rebuilds the loading script around the suggestion word. The
// sequencer keeps its place, so a parked script resumes where it waited.
func (m *Model) reloadScript() tea.Cmd {
	if m.loading == nil {
		return nil
	}
	p := m.session.Persona
	word := m.session.SuggestionWord
	return m.loading.Load(p.ID, BuildLoadingScript(p, word), word != "")
}

func (m *Model) handleSuggestion(msg suggestionMsg) tea.Cmd {
	if !m.tokens.Current(token.SlotLoading, msg.tok) {
		return nil
	}
	if msg.err == nil && strings.TrimSpace(msg.word) == "" {
		msg.err = errors.New("backend sent an empty word")
	}
	if msg.err != nil {
		tuilog.Log.Warn("failed to fetch suggestion", "error", msg.err)
		return m.dispatchAll(
			session.AddErrorMessage{Content: i18n.T("tui.error.suggestion", "error: failed to fetch suggestion")},
			session.SetSuggestion{Word: "???"},
		)
	}
	tuilog.Log.Info("suggestion received", "word", msg.word)
	return m.dispatch(session.SetSuggestion{Word: msg.word})
}
