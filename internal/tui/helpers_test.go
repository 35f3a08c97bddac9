package tui

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/wethinkt/go-yesand/internal/api"
	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/sse"
)

// immediateClock fires every timer at once unless its context is done.
type immediateClock struct{}

func (immediateClock) After(ctx context.Context, _ time.Duration, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if ctx.Err() != nil {
			return nil
		}
		return msg
	}
}

type fakeBackend struct {
	personas    []session.Persona
	personasErr error
	word        string
	wordErr     error
	events      []sse.Event
	streamErr   error
	gen         api.Generation
	genErr      error
	image       []byte
	imageErr    error

	streamed   [][]session.Message
	streamCtxs []context.Context
	generated  [][]session.Message
	fetched    []string
}

func (f *fakeBackend) Personas(context.Context) ([]session.Persona, error) {
	return f.personas, f.personasErr
}

func (f *fakeBackend) Suggestion(context.Context) (string, error) {
	return f.word, f.wordErr
}

func (f *fakeBackend) StreamChat(ctx context.Context, _ string, msgs []session.Message) (<-chan sse.Event, error) {
	f.streamed = append(f.streamed, msgs)
	f.streamCtxs = append(f.streamCtxs, ctx)
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	ch := make(chan sse.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (f *fakeBackend) Generate(_ context.Context, _ string, msgs []session.Message) (api.Generation, error) {
	f.generated = append(f.generated, msgs)
	return f.gen, f.genErr
}

func (f *fakeBackend) ProxyDownloadURL(imageURL string) string {
	return "http://backend/proxy-image?url=" + imageURL
}

func (f *fakeBackend) FetchImage(_ context.Context, rawURL string) ([]byte, string, error) {
	f.fetched = append(f.fetched, rawURL)
	return f.image, "image/png", f.imageErr
}

type fakeSaver struct {
	dir   string
	saved []string
	err   error
}

func (f *fakeSaver) Save(_ context.Context, imageURL string) (string, error) {
	f.saved = append(f.saved, imageURL)
	return f.dir + "/yesand.png", f.err
}

func (f *fakeSaver) Dir() string { return f.dir }

var testPersonas = []session.Persona{
	{
		ID:      "noir",
		Name:    "The Detective",
		Tagline: "every scene has a body",
		Aesthetic: session.Aesthetic{
			PullsToward:   []string{"rain", "neon"},
			PullsAwayFrom: []string{"daylight"},
		},
	},
	{
		ID:      "bard",
		Name:    "The Bard",
		Tagline: "all the world's a stage",
	},
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(60 * x), G: uint8(60 * y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func newTestModel(t *testing.T, b *fakeBackend, s *fakeSaver) *Model {
	t.Helper()
	if s == nil {
		s = &fakeSaver{dir: "/tmp/yesand-test"}
	}
	cfg := config.Default()
	cfg.Graphics = config.GraphicsBlocks
	cfg.Markdown = false
	cfg.RevealSize = 16
	return New(context.Background(), Options{
		Config:  cfg,
		Backend: b,
		Saver:   s,
		Clock:   immediateClock{},
	})
}

// driver feeds command results back into the model in FIFO order, the way
// the bubbletea loop would. Messages matching hold are kept aside instead.
type driver struct {
	t    *testing.T
	m    *Model
	hold func(tea.Msg) bool
	held []tea.Msg
	quit bool
}

func newDriver(t *testing.T, m *Model) *driver {
	return &driver{t: t, m: m}
}

func (d *driver) run(cmd tea.Cmd) {
	d.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 10000 {
			d.t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			d.quit = true
			continue
		}
		if d.hold != nil && d.hold(msg) {
			d.held = append(d.held, msg)
			continue
		}
		_, next := d.m.Update(msg)
		queue = append(queue, next)
	}
}

// send delivers msg to the model and runs whatever follows.
func (d *driver) send(msg tea.Msg) {
	d.t.Helper()
	_, cmd := d.m.Update(msg)
	d.run(cmd)
}

func (d *driver) press(k tea.KeyPressMsg) {
	d.t.Helper()
	d.send(k)
}

func (d *driver) submit(text string) {
	d.t.Helper()
	d.m.input.SetValue(text)
	d.press(keyEnter)
}

var (
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyUp    = tea.KeyPressMsg{Code: tea.KeyUp}
	keyDown  = tea.KeyPressMsg{Code: tea.KeyDown}
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
	keyGen   = tea.KeyPressMsg{Code: 'g', Mod: tea.ModCtrl}
	keyQuit  = tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
)

// readyDriver loads the personas, picks the first one and plays the loading
// script through to READY.
func readyDriver(t *testing.T, b *fakeBackend, s *fakeSaver) *driver {
	t.Helper()
	d := newDriver(t, newTestModel(t, b, s))
	d.run(d.m.fetchPersonas())
	d.press(keyEnter)
	if got := d.m.Session().Phase; got != session.PhaseReady {
		t.Fatalf("phase after loading = %s, want READY", got)
	}
	return d
}

// content returns the rendered transcript without styling.
func content(m *Model) string {
	return ansi.Strip(m.renderContent())
}

func mustContain(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Errorf("output missing %q:\n%s", needle, haystack)
	}
}
