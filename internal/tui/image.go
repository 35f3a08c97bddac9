package tui

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/ansi/kitty"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/wethinkt/go-yesand/internal/anim"
	"github.com/wethinkt/go-yesand/internal/config"
	"github.com/wethinkt/go-yesand/internal/metrics"
	"github.com/wethinkt/go-yesand/internal/session"
	"github.com/wethinkt/go-yesand/internal/token"
	"github.com/wethinkt/go-yesand/internal/tuilog"
)

const maxImageColumns = 48

// graphicsMode is how reveal frames reach the terminal.
type graphicsMode int

const (
	// graphicsBlocks draws frames with colored half-block characters.
	graphicsBlocks graphicsMode = iota
	// graphicsKitty transmits frames with the kitty graphics protocol and
	// places them with unicode placeholders, so they scroll with the text.
	graphicsKitty
)

func resolveGraphics(setting string) graphicsMode {
	switch setting {
	case config.GraphicsKitty:
		return graphicsKitty
	case config.GraphicsBlocks:
		return graphicsBlocks
	}
	if detectKitty() {
		return graphicsKitty
	}
	return graphicsBlocks
}

// detectKitty reports whether the terminal speaks the kitty graphics protocol.
func detectKitty() bool {
	term := os.Getenv("TERM")
	switch os.Getenv("TERM_PROGRAM") {
	case "kitty", "ghostty", "WezTerm":
		return true
	}
	return strings.Contains(term, "kitty")
}

// imageGrid returns the cell size of the image for a terminal width. Cells
// are about twice as tall as wide, so a square image spans half as many rows.
func imageGrid(width int) (cols, rows int) {
	cols = max(2, min(width-4, maxImageColumns))
	return cols, max(1, cols/2)
}

// startReveal fetches the generated image for the reveal.
func (m *Model) startReveal() tea.Cmd {
	tok, ctx := m.tokens.Issue(token.SlotReveal)
	m.revealCtx = ctx
	m.reveal = nil
	m.noImage = false
	m.sentFrame = nil
	m.imageID = kittyImageID(tok)

	backend := m.backend
	imageURL := m.session.ImageURL
	return func() tea.Msg {
		data, _, err := backend.FetchImage(ctx, imageURL)
		if err != nil {
			tuilog.Log.Debug("direct image fetch failed, trying proxy", "error", err)
			data, _, err = backend.FetchImage(ctx, backend.ProxyDownloadURL(imageURL))
		}
		if err != nil {
			return imageLoadedMsg{tok: tok, err: err}
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return imageLoadedMsg{tok: tok, err: fmt.Errorf("decode image: %w", err)}
		}
		return imageLoadedMsg{tok: tok, img: img}
	}
}

// handleImage starts the reveal. An image that could not be fetched is
// revealed as a blank frame so the session still reaches the prompts.
func (m *Model) handleImage(msg imageLoadedMsg) tea.Cmd {
	if !m.tokens.Current(token.SlotReveal, msg.tok) {
		return nil
	}
	if msg.err != nil {
		tuilog.Log.Error("image unavailable for reveal", "error", msg.err)
		m.noImage = true
	}
	m.reveal = anim.NewReveal(m.revealCtx, msg.tok, m.clock, msg.img, anim.DefaultRevealSteps, m.cfg.RevealSize)
	return m.reveal.Start()
}

func (m *Model) handleRevealDone(msg anim.RevealDoneMsg) tea.Cmd {
	if m.reveal == nil || !m.tokens.Current(token.SlotReveal, msg.Token) {
		return nil
	}
	metrics.RevealCompleted()
	return m.dispatch(session.RevealComplete{})
}

// syncImage transmits the current frame to a kitty terminal whenever it
// changes. Block rendering needs nothing sent ahead of the view.
func (m *Model) syncImage() tea.Cmd {
	if m.graphics != graphicsKitty || m.reveal == nil {
		return nil
	}
	frame := m.reveal.Frame()
	cols, rows := imageGrid(m.width)
	if frame == nil || (frame == m.sentFrame && cols == m.sentCols) {
		return nil
	}
	seq, err := kittyTransmitSequence(frame, m.imageID, cols, rows)
	if err != nil {
		tuilog.Log.Warn("kitty transmit failed", "error", err)
		return nil
	}
	m.sentFrame = frame
	m.sentCols = cols
	return tea.Raw(seq)
}

func (m *Model) imageView() string {
	if m.reveal == nil || m.reveal.Frame() == nil {
		return m.spinner.View()
	}
	cols, rows := imageGrid(m.width)
	if m.graphics == graphicsKitty {
		return kittyPlaceholderGrid(m.imageID, cols, rows)
	}
	return halfBlocks(m.reveal.Frame(), cols, rows)
}

// kittyImageID maps a reveal token to a nonzero 24-bit image id, the range
// a placeholder's foreground color can carry.
func kittyImageID(tok token.Token) int {
	id := int(uint64(tok) & 0xFFFFFF)
	if id == 0 {
		id = 1
	}
	return id
}

// kittyTransmitSequence encodes img for virtual placement (U=1) under id.
// Sending a new frame under the same id replaces the previous one in place.
func kittyTransmitSequence(img image.Image, id, cols, rows int) (string, error) {
	var buf bytes.Buffer
	err := kitty.EncodeGraphics(&buf, img, &kitty.Options{
		Action:           kitty.TransmitAndPut,
		Format:           kitty.PNG,
		Transmission:     kitty.Direct,
		ID:               id,
		Columns:          cols,
		Rows:             rows,
		VirtualPlacement: true,
		Chunk:            true,
		Quite:            1,
	})
	if err != nil {
		return "", fmt.Errorf("kitty encode: %w", err)
	}
	return buf.String(), nil
}

// kittyDeleteSequence frees the image data held under id.
func kittyDeleteSequence(id int) string {
	return ansi.KittyGraphics(nil, "a=d", "d=I", fmt.Sprintf("i=%d", id), "q=2")
}

// kittyPlaceholderGrid lays out the placeholder cells the terminal replaces
// with image id.
func kittyPlaceholderGrid(id, cols, rows int) string {
	fg := fmt.Sprintf("\x1b[38;2;%d;%d;%dm", byte(id>>16), byte(id>>8), byte(id))
	placeholder := string(kitty.Placeholder)

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		sb.WriteString(fg)
		diacritic := string(kitty.Diacritic(row))
		for col := 0; col < cols; col++ {
			sb.WriteString(placeholder)
			sb.WriteString(diacritic)
		}
		sb.WriteString("\x1b[39m")
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// halfBlocks draws img in cols x rows cells. Each cell is an upper half
// block whose foreground is the top pixel and background the bottom one.
func halfBlocks(img image.Image, cols, rows int) string {
	cells := image.NewRGBA(image.Rect(0, 0, cols, rows*2))
	draw.NearestNeighbor.Scale(cells, cells.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sb strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := cells.RGBAAt(x, 2*y)
			bottom := cells.RGBAAt(x, 2*y+1)
			fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀",
				top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		sb.WriteString("\x1b[0m")
		if y < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
