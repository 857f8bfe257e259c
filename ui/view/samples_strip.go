package view

import (
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/presenter"
	"github.com/soocke/promptcam/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// SamplesStrip shows a horizontal row of sample thumbnails, each with a
// delete button, followed by the sample count.
type SamplesStrip interface {
	SetSamples(tiles []presenter.SampleTile, count string)
}

type samplesStrip struct {
	parent   *FrameWidget
	count    *LabelWidget
	onDelete func(index int)
	cells    []*FrameWidget
	thumbs   []*LabelWidget
	buttons  []*ButtonWidget
	photos   []*Img
}

// NewSamplesStrip places the strip inside parent.
func NewSamplesStrip(parent *FrameWidget, onDelete func(index int)) SamplesStrip {
	s := &samplesStrip{parent: parent, onDelete: onDelete}
	s.count = Label(Txt("0 samples"), Anchor("w"))
	Grid(s.count, In(parent), Row(0), Column(0), Sticky("w"), Padx("0.4m"))
	return s
}

// SetSamples rebuilds the strip. Old widgets and photos are destroyed first.
func (s *samplesStrip) SetSamples(tiles []presenter.SampleTile, count string) {
	if s == nil || s.parent == nil {
		return
	}
	for _, w := range s.buttons {
		Destroy(w)
	}
	for _, w := range s.thumbs {
		Destroy(w)
	}
	for _, w := range s.cells {
		Destroy(w)
	}
	for _, p := range s.photos {
		p.Delete()
	}
	s.cells, s.thumbs, s.buttons, s.photos = nil, nil, nil, nil

	for i, t := range tiles {
		index := t.Index
		border := theme.ColorNegative
		if t.Label == query.Positive {
			border = theme.ColorPositive
		}
		cell := Frame(Borderwidth(2), Background(border))
		Grid(cell, In(s.parent), Row(0), Column(i+1), Padx("0.3m"), Pady("0.3m"))
		s.cells = append(s.cells, cell)
		if len(t.PNG) > 0 {
			photo := NewPhoto(Data(t.PNG))
			s.photos = append(s.photos, photo)
			thumb := Label(Image(photo), Borderwidth(0))
			Grid(thumb, In(cell), Row(0), Column(0))
			s.thumbs = append(s.thumbs, thumb)
		}
		del := Button(Txt("×"), Borderwidth(0), Command(func() {
			if s.onDelete != nil {
				s.onDelete(index)
			}
		}))
		Grid(del, In(cell), Row(0), Column(0), Sticky("ne"))
		s.buttons = append(s.buttons, del)
	}
	Grid(s.count, In(s.parent), Row(0), Column(len(tiles)+1), Sticky("w"), Padx("0.4m"))
	s.count.Configure(Txt(count))
}
