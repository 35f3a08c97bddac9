package tui

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/metrics"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
	"github.com/wethinkt/go-yesand/internal/token"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

// submit handles an entered line according to the phase: a chat turn, or
// the answer to the download or new-scene prompt.
func (m *Model) submit() tea.Cmd {
	if !m.session.AcceptsInput() {
		return nil
	}
	text := m.input.Value()
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	m.input.Reset()
	m.follow = true

	switch m.session.Phase {
	case session.PhaseReady, session.PhaseChatting:
		return m.sendMessage(text)
	case session.PhaseDone:
		return m.answerDownload(trimmed)
	case session.PhaseFinished:
		return m.answerNewScene(trimmed)
	}
	return nil
}

// sendMessage records the human turn, opens an empty ai turn and starts the
// reply stream. The request carries the chat so far plus the new line.
func (m *Model) sendMessage(text string) tea.Cmd {
	history := append(m.session.ChatMessages(), session.Message{Role: session.RoleHuman, Content: text})
	personaID := m.session.Persona.ID

	cmd := m.dispatchAll(
		session.SendMessage{Content: text},
		session.StartAIMessage{},
	)

	tok, ctx := m.tokens.Issue(token.SlotStream)
	backend := m.backend
	open := func() tea.Msg {
		ch, err := backend.StreamChat(ctx, personaID, history)
		if err != nil {
			return streamFailedMsg{tok: tok, err: err}
		}
		return streamStartedMsg{tok: tok, ch: ch}
	}
	return tea.Batch(cmd, open)
}

func (m *Model) handleStreamEvent(msg streamEventMsg) tea.Cmd {
	if !m.tokens.Current(token.SlotStream, msg.tok) {
		return nil
	}
	switch msg.ev.Type {
	case sse.EventChunk:
		metrics.StreamChunk()
		return tea.Batch(
			m.dispatch(session.AppendAIChunk{Chunk: msg.ev.Content}),
			waitForStreamEvent(msg.tok, msg.ch),
		)
	case sse.EventDone:
		return m.finishStream()
	case sse.EventError:
		return m.failStream(streamError(msg.ev.Message))
	}
	return waitForStreamEvent(msg.tok, msg.ch)
}

type streamError string

func (e streamError) Error() string { return "chat stream: " + string(e) }

func (m *Model) finishStream() tea.Cmd {
	m.tokens.Revoke(token.SlotStream)
	metrics.StreamFinished(true)
	return m.dispatch(session.EndAIMessage{})
}

func (m *Model) failStream(err error) tea.Cmd {
	m.tokens.Revoke(token.SlotStream)
	metrics.StreamFinished(false)
	tuilog.Log.Error("chat failed", "error", err)
	return m.dispatchAll(
		session.AddErrorMessage{Content: i18n.T("tui.error.chat", "error: chat failed")},
		session.EndAIMessage{},
	)
}

// generate asks for an image of the conversation so far.
func (m *Model) generate() tea.Cmd {
	if !m.session.CanGenerate() {
		return nil
	}
	msgs := m.session.ChatMessages()
	personaID := m.session.Persona.ID
	cmd := m.dispatch(session.Generate{})

	tok, ctx := m.tokens.Issue(token.SlotGenerate)
	backend := m.backend
	request := func() tea.Msg {
		start := time.Now()
		gen, err := backend.Generate(ctx, personaID, msgs)
		return generationMsg{tok: tok, gen: gen, err: err, took: time.Since(start)}
	}
	return tea.Batch(cmd, request)
}

func (m *Model) handleGeneration(msg generationMsg) tea.Cmd {
	if !m.tokens.Current(token.SlotGenerate, msg.tok) {
		return nil
	}
	m.tokens.Revoke(token.SlotGenerate)
	metrics.Generation(msg.err == nil, msg.took)
	if msg.err != nil {
		tuilog.Log.Error("generation failed", "error", msg.err)
		return m.dispatchAll(
			session.AddErrorMessage{Content: i18n.T("tui.error.generation", "error: generation failed")},
			session.GenerateFailed{},
		)
	}
	tuilog.Log.Info("image ready", "url", msg.gen.ImageURL, "took", msg.took)
	return m.dispatch(session.ImageReady{ImageURL: msg.gen.ImageURL, PromptUsed: msg.gen.PromptUsed})
}

// answerDownload echoes the answer and, on y, saves the image.
func (m *Model) answerDownload(answer string) tea.Cmd {
	cmds := []tea.Cmd{m.dispatch(session.AddSystemMessage{Content: "> " + answer, Variant: session.VariantNormal})}
	if strings.ToLower(answer) == "y" {
		cmds = append(cmds,
			m.download(m.session.ImageURL),
			m.dispatch(session.AddSystemMessage{
				Content: i18n.Tf("tui.download.started", "downloading image to %s...", tildePath(m.saver.Dir())),
			}),
		)
	}
	cmds = append(cmds, m.dispatch(session.DownloadAnswered{}))
	return tea.Batch(cmds...)
}

// answerNewScene echoes the answer. Either y or n returns to the persona
// picker on the next turn; anything else leaves the prompt up.
func (m *Model) answerNewScene(answer string) tea.Cmd {
	cmd := m.dispatch(session.AddSystemMessage{Content: "> " + answer, Variant: session.VariantNormal})
	switch strings.ToLower(answer) {
	case "y", "n":
		tok, _ := m.tokens.Issue(token.SlotPrompt)
		return tea.Batch(cmd, func() tea.Msg { return resetMsg{tok: tok} })
	}
	return cmd
}

// download runs on the program context rather than a slot, so a reset does
// not abort a save already under way.
func (m *Model) download(imageURL string) tea.Cmd {
	saver := m.saver
	ctx := m.ctx
	return func() tea.Msg {
		path, err := saver.Save(ctx, imageURL)
		return downloadedMsg{path: path, err: err}
	}
}

func (m *Model) handleDownloaded(msg downloadedMsg) {
	metrics.Download(msg.err == nil)
	if msg.err != nil {
		tuilog.Log.Warn("download did not complete", "error", msg.err)
		return
	}
	tuilog.Log.Debug("download finished", "path", msg.path)
}
