package anim

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wethinkt/go-yesand/internal/token"
)

// TypewriterTickMsg advances the typewriter stamped with Token and Run.
type TypewriterTickMsg struct {
	Token token.Token
	Run   uint64
}

// TypewriterDoneMsg is emitted once per run when the full text is shown.
type TypewriterDoneMsg struct {
	Token token.Token
	Run   uint64
}

// Typewriter reveals a string a few runes per tick.
type Typewriter struct {
	tok    token.Token
	clock  Clock
	parent context.Context
	cancel context.CancelFunc
	ctx    context.Context

	run    uint64
	text   []rune
	shown  int
	speed  time.Duration
	step   int
	active bool
	done   bool
}

// NewTypewriter returns an idle typewriter. Its timers stop when ctx is done.
func NewTypewriter(ctx context.Context, tok token.Token, clock Clock) *Typewriter {
	if clock == nil {
		clock = RealClock{}
	}
	return &Typewriter{tok: tok, clock: clock, parent: ctx}
}

// Start begins a new run over text, cancelling any pending tick of the
// previous run. Each tick, step more runes become visible; speed is the
// delay between ticks. Empty text completes on the first tick, never
// synchronously.
func (t *Typewriter) Start(text string, speed time.Duration, step int) tea.Cmd {
	t.Stop()
	if step < 1 {
		step = 1
	}
	t.run++
	t.ctx, t.cancel = context.WithCancel(t.parent)
	t.text = []rune(text)
	t.shown = 0
	t.speed = speed
	t.step = step
	t.active = true
	t.done = false

	delay := speed
	if len(t.text) == 0 {
		delay = 0
	}
	return t.schedule(delay)
}

// Update handles this typewriter's ticks and ignores everything else,
// including ticks from earlier runs.
func (t *Typewriter) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(TypewriterTickMsg)
	if !ok || tick.Token != t.tok || tick.Run != t.run || !t.active {
		return nil
	}

	t.shown = min(t.shown+t.step, len(t.text))
	if t.shown < len(t.text) {
		return t.schedule(t.speed)
	}

	t.active = false
	t.done = true
	t.cancel()
	done := TypewriterDoneMsg{Token: t.tok, Run: t.run}
	return func() tea.Msg { return done }
}

// Stop cancels the pending tick, if any. The visible text is kept.
func (t *Typewriter) Stop() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.active = false
}

// View returns the currently visible prefix.
func (t *Typewriter) View() string { return string(t.text[:t.shown]) }

// Done reports whether the current run has completed.
func (t *Typewriter) Done() bool { return t.done }

// Active reports whether a run is in progress.
func (t *Typewriter) Active() bool { return t.active }

// Run returns the current run counter.
func (t *Typewriter) Run() uint64 { return t.run }

// Token returns the generation token stamped on this typewriter's messages.
func (t *Typewriter) Token() token.Token { return t.tok }

func (t *Typewriter) schedule(d time.Duration) tea.Cmd {
	return t.clock.After(t.ctx, d, TypewriterTickMsg{Token: t.tok, Run: t.run})
}
