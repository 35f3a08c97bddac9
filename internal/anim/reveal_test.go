package anim

import (
	"context"
	"image"
	"image/color"
	"reflect"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
)

type renderLog struct {
	sizes []int
}

func (l *renderLog) render(src image.Image, size, display int) image.Image {
	l.sizes = append(l.sizes, size)
	return image.NewRGBA(image.Rect(0, 0, display, display))
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	return img
}

func TestRevealCompletesOnceAfterFinal(t *testing.T) {
	log := &renderLog{}
	clock := &fakeClock{}
	steps := []RevealStep{
		{Size: 2, Hold: 40 * time.Millisecond},
		{Size: 4, Hold: 30 * time.Millisecond},
		{Size: Final},
	}
	r := NewReveal(context.Background(), 11, clock, testImage(), steps, 32, WithRenderFunc(log.render))

	if r.Frame() != nil || len(log.sizes) != 0 {
		t.Fatal("reveal rendered before Start")
	}

	completions := 0
	var rendersAtDone int
	pump(t, r.Start(), r.Update, func(msg tea.Msg) {
		if _, ok := msg.(RevealDoneMsg); ok {
			completions++
			rendersAtDone = len(log.sizes)
		}
	})

	if want := []int{2, 4, Final}; !reflect.DeepEqual(log.sizes, want) {
		t.Errorf("rendered sizes = %v, want %v", log.sizes, want)
	}
	if completions != 1 {
		t.Errorf("completions = %d, want 1", completions)
	}
	if rendersAtDone != 3 {
		t.Errorf("completion arrived after %d renders, want 3", rendersAtDone)
	}
	if want := []time.Duration{40 * time.Millisecond, 30 * time.Millisecond}; !reflect.DeepEqual(clock.delays, want) {
		t.Errorf("holds = %v, want %v", clock.delays, want)
	}
	if !r.Done() || r.Step() != 2 {
		t.Errorf("done = %v step = %d", r.Done(), r.Step())
	}
	if cmd := r.Start(); cmd != nil {
		t.Error("second Start restarted the reveal")
	}
}

func TestRevealLastStepAlwaysFullResolution(t *testing.T) {
	log := &renderLog{}
	steps := []RevealStep{{Size: 2, Hold: time.Millisecond}, {Size: 8}}
	r := NewReveal(context.Background(), 1, &fakeClock{}, testImage(), steps, 16, WithRenderFunc(log.render))

	pump(t, r.Start(), r.Update, nil)

	if want := []int{2, Final}; !reflect.DeepEqual(log.sizes, want) {
		t.Errorf("rendered sizes = %v, want %v", log.sizes, want)
	}
}

func TestRevealedRendersOnceWithoutCompletion(t *testing.T) {
	log := &renderLog{}
	r := NewRevealed(testImage(), 32, WithRenderFunc(log.render))

	if want := []int{Final}; !reflect.DeepEqual(log.sizes, want) {
		t.Errorf("rendered sizes = %v, want %v", log.sizes, want)
	}
	if !r.Done() || r.Frame() == nil {
		t.Error("pre-revealed image should be done with a frame")
	}
	if cmd := r.Start(); cmd != nil {
		t.Error("pre-revealed Start scheduled work")
	}
	if cmd := r.Update(revealStepMsg{Index: 0}); cmd != nil {
		t.Error("pre-revealed Update scheduled work")
	}
	r.Stop()
}

func TestRevealStopDropsPendingStep(t *testing.T) {
	r := NewReveal(context.Background(), 3, &fakeClock{}, testImage(), DefaultRevealSteps, 16)
	cmd := r.Start()
	r.Stop()

	if msgs := runAllCmdMessages(cmd); len(msgs) != 0 {
		t.Errorf("step fired after Stop: %v", msgs)
	}
	if cmd := r.Update(revealStepMsg{Token: 4, Index: 0}); cmd != nil {
		t.Error("foreign token advanced the reveal")
	}
	if cmd := r.Update(revealStepMsg{Token: 3, Index: 5}); cmd != nil {
		t.Error("out of order step advanced the reveal")
	}
}

func TestDefaultRevealSteps(t *testing.T) {
	last := DefaultRevealSteps[len(DefaultRevealSteps)-1]
	if last.Size != Final {
		t.Errorf("last step size = %d, want Final", last.Size)
	}
	for i := 1; i < len(DefaultRevealSteps)-1; i++ {
		prev, cur := DefaultRevealSteps[i-1], DefaultRevealSteps[i]
		if cur.Size != prev.Size*2 {
			t.Errorf("step %d size %d does not double %d", i, cur.Size, prev.Size)
		}
		if cur.Hold > prev.Hold {
			t.Errorf("step %d holds longer than step %d", i, i-1)
		}
	}
}

func TestPixelateBlocks(t *testing.T) {
	frame := Pixelate(testImage(), 2, 16)
	if b := frame.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("bounds = %v", b)
	}
	// A 2x2 grid blown up to 16x16 gives four uniform 8x8 blocks.
	for _, corner := range []image.Point{{0, 0}, {8, 0}, {0, 8}, {8, 8}} {
		want := frame.At(corner.X, corner.Y)
		for y := corner.Y; y < corner.Y+8; y++ {
			for x := corner.X; x < corner.X+8; x++ {
				if frame.At(x, y) != want {
					t.Fatalf("pixel (%d,%d) differs from block at %v", x, y, corner)
				}
			}
		}
	}
	if frame.At(0, 0) == frame.At(15, 15) {
		t.Error("opposite blocks should differ for a gradient")
	}
}

func TestPixelateEmptySource(t *testing.T) {
	frame := Pixelate(nil, 4, 8)
	if b := frame.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("bounds = %v", b)
	}
}
