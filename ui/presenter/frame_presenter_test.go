package presenter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/soocke/promptcam/domain/frame"
	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/pipeline"
	"github.com/soocke/promptcam/ui/model"
)

type mockFrameView struct {
	surface geometry.Size
	shown   [][]byte
}

func (v *mockFrameView) Surface() geometry.Size { return v.surface }
func (v *mockFrameView) ShowFrame(png []byte)   { v.shown = append(v.shown, png) }

func (v *mockFrameView) last(t *testing.T) image.Image {
	t.Helper()
	if len(v.shown) == 0 {
		t.Fatalf("nothing shown")
	}
	img, err := png.Decode(bytes.NewReader(v.shown[len(v.shown)-1]))
	if err != nil {
		t.Fatalf("decode shown png: %v", err)
	}
	return img
}

func solidFrame(w, h int, c color.RGBA, seq uint64) frame.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return frame.Frame{Image: img, CapturedAt: time.Now(), Sequence: seq}
}

type frameHarness struct {
	cell    *pipeline.LatestCell
	capture *model.CaptureModel
	sel     *model.SelectionModel
	view    *mockFrameView
	p       *FramePresenter
}

func newFrameHarness() *frameHarness {
	h := &frameHarness{
		cell:    &pipeline.LatestCell{},
		capture: &model.CaptureModel{},
		sel:     model.NewSelectionModel(),
		view:    &mockFrameView{surface: geometry.Size{W: 400, H: 400}},
	}
	h.p = NewFramePresenter(h.cell, h.capture, h.sel, h.view, color.Black)
	return h
}

func sameRGB(a, b color.Color) bool {
	r1, g1, b1, _ := a.RGBA()
	r2, g2, b2, _ := b.RGBA()
	return r1>>8 == r2>>8 && g1>>8 == g2>>8 && b1>>8 == b2>>8
}

func TestFramePresenter_PlaceholderWhenCameraOff(t *testing.T) {
	h := newFrameHarness()
	h.p.Render()
	if len(h.view.shown) != 1 {
		t.Fatalf("expected one placeholder render, got %d", len(h.view.shown))
	}
	h.p.Render()
	if len(h.view.shown) != 1 {
		t.Fatalf("unchanged placeholder re-rendered")
	}
	// A frame published while capture is off is consumed but not shown.
	h.cell.Publish(pipeline.AnnotatedFrame{Frame: solidFrame(20, 10, color.RGBA{R: 255, A: 255}, 1)})
	h.p.Render()
	if f, _ := h.p.Displayed(); !f.Empty() {
		t.Fatalf("frame displayed while camera off")
	}
}

func TestFramePresenter_LetterboxesLatestFrame(t *testing.T) {
	h := newFrameHarness()
	h.capture.SetEnabled(true)
	red := color.RGBA{R: 255, A: 255}
	h.cell.Publish(pipeline.AnnotatedFrame{Frame: solidFrame(200, 100, red, 7)})
	h.p.Render()

	f, d := h.p.Displayed()
	if f.Sequence != 7 {
		t.Fatalf("displayed sequence = %d, want 7", f.Sequence)
	}
	if d != (geometry.DisplayRect{X: 0, Y: 100, W: 400, H: 200}) {
		t.Fatalf("display rect = %+v", d)
	}
	img := h.view.last(t)
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 400 {
		t.Fatalf("shown size = %v, want surface size", img.Bounds())
	}
	if !sameRGB(img.At(200, 200), red) {
		t.Fatalf("center pixel = %v, want frame color", img.At(200, 200))
	}
	if !sameRGB(img.At(200, 50), color.Black) {
		t.Fatalf("bar pixel = %v, want background", img.At(200, 50))
	}

	n := len(h.view.shown)
	h.p.Render()
	if len(h.view.shown) != n {
		t.Fatalf("render without change pushed a frame")
	}
	h.p.Invalidate()
	h.p.Render()
	if len(h.view.shown) != n+1 {
		t.Fatalf("invalidate did not redraw")
	}
	if h.p.Current().Frame.Sequence != 7 {
		t.Fatalf("current result lost")
	}
}

func TestFramePresenter_FaultShowsNoSignal(t *testing.T) {
	h := newFrameHarness()
	h.capture.SetEnabled(true)
	h.cell.Publish(pipeline.AnnotatedFrame{Frame: solidFrame(40, 40, color.RGBA{G: 255, A: 255}, 1)})
	h.p.Render()
	if f, _ := h.p.Displayed(); f.Empty() {
		t.Fatalf("frame not displayed")
	}
	h.capture.SetFault(errTest)
	h.p.Render()
	if f, d := h.p.Displayed(); !f.Empty() || !d.Empty() {
		t.Fatalf("faulted preview still reports a frame")
	}
}

func TestFramePresenter_DrawsDragAndPending(t *testing.T) {
	h := newFrameHarness()
	h.capture.SetEnabled(true)
	h.cell.Publish(pipeline.AnnotatedFrame{Frame: solidFrame(200, 100, color.RGBA{B: 255, A: 255}, 1)})
	h.p.Render()

	h.sel.BeginDrag(100, 150)
	h.sel.UpdateDrag(300, 250)
	h.p.Invalidate()
	h.p.Render()
	img := h.view.last(t)
	if !sameRGB(img.At(100, 150), dragColor) {
		t.Fatalf("drag corner = %v, want white", img.At(100, 150))
	}

	h.sel.EndDrag()
	h.sel.SetPending(model.Pending{Box: geometry.Box(50, 25, 150, 75)})
	h.p.Invalidate()
	h.p.Render()
	img = h.view.last(t)
	// box maps to (100,150)-(300,250) on the surface
	if !sameRGB(img.At(100, 200), pendingColor) {
		t.Fatalf("pending edge = %v, want green", img.At(100, 200))
	}
}

func TestFramePresenter_NilSafe(t *testing.T) {
	var p *FramePresenter
	p.Render()
	p.Invalidate()
	if f, _ := p.Displayed(); !f.Empty() {
		t.Fatalf("nil presenter returned a frame")
	}
}
