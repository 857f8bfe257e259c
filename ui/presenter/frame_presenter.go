package presenter

import (
	"image"
	"image/color"

	"github.com/soocke/promptcam/domain/frame"
	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/pipeline"
	"github.com/soocke/promptcam/ui/images"
	"github.com/soocke/promptcam/ui/model"
)

const (
	PlaceholderCameraOff = "Camera Off"
	PlaceholderNoSignal  = "No signal"
	PendingCaption       = "Press SAVE"
)

var (
	dragColor    = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	pendingColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
)

// ResultSource is the worker's publication slot.
type ResultSource interface {
	Since(version uint64) (pipeline.AnnotatedFrame, uint64, bool)
}

// CaptureState is the read side of the capture model.
type CaptureState interface {
	Enabled() bool
	Fault() error
}

// SelectionState exposes what the preview draws on top of the frame.
type SelectionState interface {
	Dragging() (geometry.ScreenRect, bool)
	Pending() (model.Pending, bool)
}

// FrameView is the preview surface.
type FrameView interface {
	Surface() geometry.Size
	ShowFrame(png []byte)
}

// FramePresenter letterboxes the latest published frame into the preview and
// draws the selection gesture on top. It runs on the UI thread only.
type FramePresenter struct {
	results   ResultSource
	capture   CaptureState
	selection SelectionState
	view      FrameView
	bg        color.Color

	version     uint64
	current     pipeline.AnnotatedFrame
	display     geometry.DisplayRect
	surface     geometry.Size
	placeholder string
	dirty       bool
}

func NewFramePresenter(results ResultSource, capture CaptureState, selection SelectionState, view FrameView, bg color.Color) *FramePresenter {
	if bg == nil {
		bg = color.Black
	}
	return &FramePresenter{results: results, capture: capture, selection: selection, view: view, bg: bg}
}

// Invalidate forces a redraw on the next Render.
func (p *FramePresenter) Invalidate() {
	if p != nil {
		p.dirty = true
	}
}

// Displayed returns the frame currently on screen and where it sits on the
// surface. The frame is empty while a placeholder is shown.
func (p *FramePresenter) Displayed() (frame.Frame, geometry.DisplayRect) {
	if p == nil {
		return frame.Frame{}, geometry.DisplayRect{}
	}
	return p.current.Frame, p.display
}

// Current returns the result last taken from the worker.
func (p *FramePresenter) Current() pipeline.AnnotatedFrame {
	if p == nil {
		return pipeline.AnnotatedFrame{}
	}
	return p.current
}

// Render pulls a newer result if there is one and redraws when anything
// visible changed. It never blocks on the worker.
func (p *FramePresenter) Render() {
	if p == nil || p.view == nil || p.results == nil {
		return
	}
	if a, v, ok := p.results.Since(p.version); ok {
		p.version = v
		p.current = a
		p.dirty = true
	}
	if s := p.view.Surface(); s != p.surface {
		p.surface = s
		p.dirty = true
	}

	if msg := p.placeholderText(); msg != "" {
		if p.placeholder != msg || p.dirty {
			p.view.ShowFrame(images.EncodePNG(images.Placeholder(p.surface, p.bg, msg)))
		}
		p.placeholder = msg
		p.current = pipeline.AnnotatedFrame{}
		p.display = geometry.DisplayRect{}
		p.dirty = false
		return
	}
	if !p.dirty && p.placeholder == "" {
		return
	}
	p.placeholder = ""
	p.dirty = false

	canvas, d := images.Letterbox(p.current.Image(), p.surface, p.bg)
	p.display = d
	p.drawSelection(canvas)
	p.view.ShowFrame(images.EncodePNG(canvas))
}

func (p *FramePresenter) placeholderText() string {
	if p.capture != nil {
		if !p.capture.Enabled() {
			return PlaceholderCameraOff
		}
		if p.capture.Fault() != nil {
			return PlaceholderNoSignal
		}
	}
	if p.current.Frame.Empty() {
		return PlaceholderNoSignal
	}
	return ""
}

// drawSelection paints the live drag, or the pending box when no drag is in
// progress.
func (p *FramePresenter) drawSelection(canvas *image.NRGBA) {
	if p.selection == nil {
		return
	}
	if r, ok := p.selection.Dragging(); ok {
		images.DashedRect(canvas, r.Rect(), dragColor, 2, 6)
		return
	}
	pending, ok := p.selection.Pending()
	if !ok {
		return
	}
	r := geometry.ToDisplay(pending.Box, p.display, geometry.SizeOf(p.current.Frame.Image)).Rect()
	images.StrokeRect(canvas, r, pendingColor, 2)
	y := max(r.Min.Y-17, 0)
	images.Caption(canvas, r.Min.X, y, PendingCaption, pendingColor, nil)
}
