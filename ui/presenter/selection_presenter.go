package presenter

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/promptcam/domain/frame"
	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/images"
	"github.com/soocke/promptcam/ui/model"
)

// SelectionModel is the gesture and pending-selection state.
type SelectionModel interface {
	SelectionState
	BeginDrag(x, y int)
	UpdateDrag(x, y int) bool
	EndDrag() (geometry.ScreenRect, bool)
	SetPending(model.Pending)
	TakePending() (model.Pending, bool)
	ClearPending()
	Label() query.Label
	SetLabel(query.Label)
}

// DisplayedFrame is implemented by FramePresenter.
type DisplayedFrame interface {
	Displayed() (frame.Frame, geometry.DisplayRect)
	Invalidate()
}

// SampleAdder is the part of the sample store a selection feeds.
type SampleAdder interface {
	Add(box geometry.BoundingBox, label query.Label, crop *image.RGBA) int
	Counts() (pos, neg int)
}

// SelectionView shows selection feedback.
type SelectionView interface {
	SetStatus(string)
	SetSaveEnabled(bool)
}

// SelectionPresenter turns pointer gestures on the preview into pending
// selections and saves them as samples.
type SelectionPresenter struct {
	model  SelectionModel
	frames DisplayedFrame
	store  SampleAdder
	view   SelectionView
	minPx  int
	logger *slog.Logger
}

func NewSelectionPresenter(m SelectionModel, frames DisplayedFrame, store SampleAdder, view SelectionView, minPx int, logger *slog.Logger) *SelectionPresenter {
	if minPx < 1 {
		minPx = geometry.MinSelectionPx
	}
	return &SelectionPresenter{model: m, frames: frames, store: store, view: view, minPx: minPx, logger: logger}
}

func (p *SelectionPresenter) ready() bool {
	return p != nil && p.model != nil && p.frames != nil && p.view != nil
}

func (p *SelectionPresenter) PointerDown(x, y int) {
	if !p.ready() {
		return
	}
	p.model.BeginDrag(x, y)
	p.frames.Invalidate()
}

func (p *SelectionPresenter) PointerMove(x, y int) {
	if !p.ready() {
		return
	}
	if p.model.UpdateDrag(x, y) {
		p.frames.Invalidate()
	}
}

// PointerUp ends the gesture. A rectangle that maps to a box of at least
// minPx on both sides becomes the pending selection; anything else is
// dropped and the previous pending selection stays.
func (p *SelectionPresenter) PointerUp(x, y int) {
	if !p.ready() {
		return
	}
	p.model.UpdateDrag(x, y)
	rect, ok := p.model.EndDrag()
	p.frames.Invalidate()
	if !ok {
		return
	}
	f, d := p.frames.Displayed()
	if f.Empty() {
		return
	}
	box, ok := geometry.ToOriginalMin(rect, d, geometry.SizeOf(f.Image), p.minPx)
	if !ok {
		return
	}
	crop, err := images.CropBox(f.Image, box)
	if err != nil {
		p.log().Debug("selection.crop", "box", box.String(), "error", err)
		return
	}
	label := p.model.Label()
	p.model.SetPending(model.Pending{Box: box, Crop: crop, Label: label})
	p.view.SetSaveEnabled(true)
	p.view.SetStatus(pressSave(label))
	p.log().Debug("selection.pending", "box", box.String(), "label", label.String())
}

// SetLabel switches between positive and negative mode.
func (p *SelectionPresenter) SetLabel(l query.Label) {
	if !p.ready() {
		return
	}
	p.model.SetLabel(l)
	if _, ok := p.model.Pending(); ok {
		p.view.SetStatus(pressSave(l))
	}
}

// Save stores the pending selection with the current label. Without a
// pending selection it does nothing.
func (p *SelectionPresenter) Save() {
	if !p.ready() || p.store == nil {
		return
	}
	pending, ok := p.model.TakePending()
	if !ok {
		return
	}
	label := p.model.Label()
	p.store.Add(pending.Box, label, pending.Crop)
	p.view.SetSaveEnabled(false)
	p.frames.Invalidate()
	pos, neg := p.store.Counts()
	p.view.SetStatus(fmt.Sprintf("Saved (%d+ / %d-)", pos, neg))
	p.log().Info("selection.saved", "box", pending.Box.String(), "label", label.String())
}

// Cancel drops the pending selection.
func (p *SelectionPresenter) Cancel() {
	if !p.ready() {
		return
	}
	p.model.ClearPending()
	p.view.SetSaveEnabled(false)
	p.frames.Invalidate()
}

func (p *SelectionPresenter) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

func pressSave(l query.Label) string {
	if l == query.Positive {
		return "Press SAVE (Positive)"
	}
	return "Press SAVE (Negative)"
}
