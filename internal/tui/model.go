package tui

import (
	"context"
	"image"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wethinkt/go-yesand/internal/anim"
	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/i18n"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
	"github.com/wethinkt/go-yesand/internal/token"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
)

// Backend is what a session needs from the scene backend. *api.Client
// implements it.
type Backend interface {
	Personas(ctx context.Context) ([]session.Persona, error)
	Suggestion(ctx context.Context) (string, error)
	StreamChat(ctx context.Context, personaID string, msgs []session.Message) (<-chan sse.Event, error)
	Generate(ctx context.Context, personaID string, msgs []session.Message) (api.Generation, error)
	ProxyDownloadURL(imageURL string) string
	FetchImage(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Saver stores a generated image locally. *download.Saver implements it.
type Saver interface {
	Save(ctx context.Context, imageURL string) (string, error)
	Dir() string
}

// Options configures a Model.
type Options struct {
	Config  config.Config
	Backend Backend
	Saver   Saver
	Clock   anim.Clock

	// Rebuild returns collaborators for a reloaded config. When nil the
	// current ones are kept.
	Rebuild func(config.Config) (Backend, Saver)
}

// Model hosts one scene session. Every change to the session goes through
// dispatch.
type Model struct {
	ctx     context.Context
	cfg     config.Config
	backend Backend
	saver   Saver
	clock   anim.Clock
	rebuild func(config.Config) (Backend, Saver)
	tokens  *token.Registry
	keys    keyMap

	session    session.Session
	personas   []session.Persona
	personaErr error
	fetching   bool
	cursor     int

	loading   *anim.Sequencer
	status    *anim.Typewriter
	reveal    *anim.Reveal
	revealCtx context.Context
	noImage   bool

	graphics  graphicsMode
	sentFrame image.Image
	sentCols  int
	imageID   int

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
	follow   bool
	markdown map[string]string
	quitting bool
}

// New returns a model for one program run. ctx bounds every request and
// timer the session starts.
func New(ctx context.Context, opts Options) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	clock := opts.Clock
	if clock == nil {
		clock = anim.RealClock{}
	}

	ti := textinput.New()
	ti.Placeholder = i18n.T("tui.input.chat", "enter to send...")
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Focus()

	vp := viewport.New()
	vp.SetWidth(defaultWidth)
	vp.SetHeight(defaultHeight - 2)

	sp := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))),
	)

	m := &Model{
		ctx:      ctx,
		cfg:      opts.Config,
		backend:  opts.Backend,
		saver:    opts.Saver,
		clock:    clock,
		rebuild:  opts.Rebuild,
		tokens:   token.NewRegistry(ctx),
		keys:     defaultKeyMap(),
		session:  session.Initial(),
		graphics: resolveGraphics(opts.Config.Graphics),
		input:    ti,
		viewport: vp,
		spinner:  sp,
		width:    defaultWidth,
		height:   defaultHeight,
		follow:   true,
	}
	m.refresh()
	return m
}

// Session returns the current session state.
func (m *Model) Session() session.Session { return m.session }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchPersonas(), m.spinner.Tick, textinput.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	m.refresh()
	return m, tea.Batch(cmd, m.syncImage())
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd

	case personasLoadedMsg:
		m.fetching = false
		if msg.err != nil {
			tuilog.Log.Error("failed to load personas", "error", msg.err)
			m.personaErr = msg.err
			return nil
		}
		tuilog.Log.Info("personas loaded", "count", len(msg.personas))
		m.personaErr = nil
		m.personas = msg.personas
		m.cursor = clampCursor(m.cursor, len(m.personas))
		return nil

	case suggestionMsg:
		return m.handleSuggestion(msg)

	case streamStartedMsg:
		if !m.tokens.Current(token.SlotStream, msg.tok) {
			return nil
		}
		return waitForStreamEvent(msg.tok, msg.ch)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case streamFailedMsg:
		if !m.tokens.Current(token.SlotStream, msg.tok) {
			return nil
		}
		return m.failStream(msg.err)

	case streamClosedMsg:
		if !m.tokens.Current(token.SlotStream, msg.tok) {
			return nil
		}
		return m.finishStream()

	case generationMsg:
		return m.handleGeneration(msg)

	case imageLoadedMsg:
		return m.handleImage(msg)

	case downloadedMsg:
		m.handleDownloaded(msg)
		return nil

	case resetMsg:
		if !m.tokens.Current(token.SlotPrompt, msg.tok) {
			return nil
		}
		return m.dispatch(session.Reset{})

	case ConfigChangedMsg:
		return m.applyConfig(msg.Config)

	case anim.ScriptDoneMsg:
		if m.loading == nil || !m.tokens.Current(token.SlotLoading, msg.Token) {
			return nil
		}
		return m.dispatch(session.LoadingComplete{})

	case anim.RevealDoneMsg:
		return m.handleRevealDone(msg)
	}

	return m.forwardToSchedulers(msg)
}

// forwardToSchedulers hands a message to every live scheduler. Each one
// ignores ticks it did not stamp.
func (m *Model) forwardToSchedulers(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if m.loading != nil {
		cmds = append(cmds, m.loading.Update(msg))
	}
	if m.status != nil {
		cmds = append(cmds, m.status.Update(msg))
	}
	if m.reveal != nil {
		cmds = append(cmds, m.reveal.Update(msg))
	}
	if m.session.AcceptsInput() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Reset):
		return m.dispatch(session.Reset{})
	case key.Matches(msg, m.keys.Generate):
		return m.generate()
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		m.follow = m.viewport.AtBottom()
		return nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
		m.follow = m.viewport.AtBottom()
		return nil
	}

	if m.session.Phase == session.PhaseIdle {
		return m.handlePickerKey(msg)
	}
	if key.Matches(msg, m.keys.Enter) {
		return m.submit()
	}
	if !m.session.AcceptsInput() {
		return nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.SetWidth(width)
	m.viewport.SetHeight(max(1, height-2))
	m.input.SetWidth(max(10, width-4))
	m.markdown = nil
}

// refresh re-renders the transcript into the viewport, staying pinned to
// the bottom unless the user scrolled away.
func (m *Model) refresh() {
	m.syncPlaceholder()
	m.viewport.SetContent(m.renderContent())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}
	content := m.viewport.View() + "\n" + m.inputView() + "\n" + m.footerView()
	v := tea.NewView(content)
	v.AltScreen = true
	return v
}

// applyConfig switches to a reloaded config. A persona catalog that failed
// to load is fetched again, since the new api_base may be the fix.
func (m *Model) applyConfig(cfg config.Config) tea.Cmd {
	tuilog.Log.Info("config reloaded", "api_base", cfg.APIBase, "language", cfg.Language, "graphics", cfg.Graphics)
	prevLang := i18n.Lang()
	m.cfg = cfg
	if m.rebuild != nil {
		m.backend, m.saver = m.rebuild(cfg)
	}
	i18n.Init(i18n.ResolveLocale(cfg.Language))
	if i18n.Lang() != prevLang {
		m.keys = defaultKeyMap()
	}
	m.graphics = resolveGraphics(cfg.Graphics)
	m.sentFrame = nil
	m.markdown = nil
	if m.personaErr != nil && m.session.Phase == session.PhaseIdle {
		return m.fetchPersonas()
	}
	return nil
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return max(0, min(cursor, n-1))
}
