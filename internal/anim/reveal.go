package anim

import (
	"context"
	"image"
	"time"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/image/draw"

	"github.com/wethinkt/go-yesand/internal/token"
)

// Final is the RevealStep size meaning full resolution.
const Final = 0

// DefaultDisplaySize is the edge length, in pixels, of revealed frames.
const DefaultDisplaySize = 512

// RevealStep is one resolution stage and how long it is held.
type RevealStep struct {
	Size int
	Hold time.Duration
}

// DefaultRevealSteps is the shared reveal schedule: a coarse grid that
// doubles in resolution, holding the blockiest stages longest.
var DefaultRevealSteps = []RevealStep{
	{Size: 2, Hold: 400 * time.Millisecond},
	{Size: 4, Hold: 350 * time.Millisecond},
	{Size: 8, Hold: 300 * time.Millisecond},
	{Size: 16, Hold: 250 * time.Millisecond},
	{Size: 32, Hold: 225 * time.Millisecond},
	{Size: 64, Hold: 200 * time.Millisecond},
	{Size: 128, Hold: 150 * time.Millisecond},
	{Size: 256, Hold: 125 * time.Millisecond},
	{Size: Final},
}

// RenderFunc produces the frame for one step.
type RenderFunc func(src image.Image, size, display int) image.Image

// Pixelate downsamples src to size x size with bilinear filtering and blows
// the result back up to display x display without interpolation. A size of
// Final, or one at least as large as display, scales src straight to display.
func Pixelate(src image.Image, size, display int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, display, display))
	if src == nil || src.Bounds().Empty() {
		return dst
	}
	if size <= Final || size >= display {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return dst
	}
	small := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(small, small.Bounds(), src, src.Bounds(), draw.Src, nil)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)
	return dst
}

// RevealDoneMsg is emitted once, after the final frame is rendered.
type RevealDoneMsg struct {
	Token token.Token
}

type revealStepMsg struct {
	Token token.Token
	Index int
}

// RevealOption configures a Reveal.
type RevealOption func(*Reveal)

// WithRenderFunc replaces Pixelate.
func WithRenderFunc(f RenderFunc) RevealOption {
	return func(r *Reveal) { r.render = f }
}

// Reveal steps an image from a coarse grid to full resolution.
type Reveal struct {
	tok     token.Token
	clock   Clock
	ctx     context.Context
	cancel  context.CancelFunc
	src     image.Image
	steps   []RevealStep
	display int
	render  RenderFunc

	index   int
	frame   image.Image
	started bool
	done    bool
}

// NewReveal prepares a timed reveal of src. Nothing is rendered until Start.
func NewReveal(ctx context.Context, tok token.Token, clock Clock, src image.Image, steps []RevealStep, display int, opts ...RevealOption) *Reveal {
	if clock == nil {
		clock = RealClock{}
	}
	if len(steps) == 0 {
		steps = []RevealStep{{Size: Final}}
	}
	if display <= 0 {
		display = DefaultDisplaySize
	}
	rctx, cancel := context.WithCancel(ctx)
	r := &Reveal{
		tok:     tok,
		clock:   clock,
		ctx:     rctx,
		cancel:  cancel,
		src:     src,
		steps:   steps,
		display: display,
		render:  Pixelate,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRevealed renders src at full resolution straight away. It never starts
// a timer and never emits RevealDoneMsg.
func NewRevealed(src image.Image, display int, opts ...RevealOption) *Reveal {
	if display <= 0 {
		display = DefaultDisplaySize
	}
	r := &Reveal{
		src:     src,
		steps:   []RevealStep{{Size: Final}},
		display: display,
		render:  Pixelate,
		started: true,
		done:    true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.frame = r.render(src, Final, display)
	return r
}

// Start renders the first step and schedules the next.
func (r *Reveal) Start() tea.Cmd {
	if r.started {
		return nil
	}
	r.started = true
	return r.show(0)
}

// Update handles this reveal's step timers.
func (r *Reveal) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(revealStepMsg)
	if !ok || r.done || m.Token != r.tok || m.Index != r.index {
		return nil
	}
	return r.show(r.index + 1)
}

// Stop cancels the pending step timer.
func (r *Reveal) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Frame returns the most recently rendered frame, or nil before Start.
func (r *Reveal) Frame() image.Image { return r.frame }

// Step returns the index of the frame on screen.
func (r *Reveal) Step() int { return r.index }

// Done reports whether the final frame has been rendered.
func (r *Reveal) Done() bool { return r.done }

// Display returns the frame edge length in pixels.
func (r *Reveal) Display() int { return r.display }

func (r *Reveal) show(i int) tea.Cmd {
	r.index = i
	step := r.steps[i]
	size := step.Size
	if i == len(r.steps)-1 {
		size = Final
	}
	r.frame = r.render(r.src, size, r.display)

	if i == len(r.steps)-1 {
		r.done = true
		r.Stop()
		done := RevealDoneMsg{Token: r.tok}
		return func() tea.Msg { return done }
	}
	return r.clock.After(r.ctx, step.Hold, revealStepMsg{Token: r.tok, Index: i})
}
