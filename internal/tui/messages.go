package tui

import (
	"image"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
	"github.com/wethinkt/go-yesand/internal/token"
)

// ConfigChangedMsg carries a reloaded configuration into the running program.
type ConfigChangedMsg struct {
	Config config.Config
}

type personasLoadedMsg struct {
	personas []session.Persona
	err      error
}

type suggestionMsg struct {
	tok  token.Token
	word string
	err  error
}

// streamStartedMsg is sent once the chat response is open.
type streamStartedMsg struct {
	tok token.Token
	ch  <-chan sse.Event
}

// streamEventMsg delivers one decoded event and hands the channel back for
// the next read.
type streamEventMsg struct {
	tok token.Token
	ev  sse.Event
	ch  <-chan sse.Event
}

type streamFailedMsg struct {
	tok token.Token
	err error
}

// streamClosedMsg means the channel closed without a terminal event.
type streamClosedMsg struct {
	tok token.Token
}

type generationMsg struct {
	tok  token.Token
	gen  api.Generation
	err  error
	took time.Duration
}

type imageLoadedMsg struct {
	tok token.Token
	img image.Image
	err error
}

type downloadedMsg struct {
	path string
	err  error
}

// resetMsg resets the session on the turn after the new-scene answer.
type resetMsg struct {
	tok token.Token
}

// waitForStreamEvent blocks until the next event arrives on ch.
func waitForStreamEvent(tok token.Token, ch <-chan sse.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return streamClosedMsg{tok: tok}
		}
		return streamEventMsg{tok: tok, ev: ev, ch: ch}
	}
}
