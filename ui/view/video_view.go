package view

import (
	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/ui/images"
	"github.com/soocke/promptcam/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// VideoView is the preview surface. It shows PNG frames rendered at exactly
// the surface size, so pointer coordinates are surface coordinates.
type VideoView interface {
	Surface() geometry.Size
	ShowFrame(png []byte)
	Reset()
}

// PointerHandlers receive pointer gestures in surface coordinates.
type PointerHandlers struct {
	Down, Move, Up func(x, y int)
}

type videoView struct {
	label   *LabelWidget
	surface geometry.Size
	photo   *Img // last Tk photo image instance
}

// NewVideoView creates the preview label inside parent and binds the left
// mouse button gestures.
func NewVideoView(parent *FrameWidget, surface geometry.Size, h PointerHandlers) VideoView {
	v := &videoView{surface: surface}
	v.photo = NewPhoto(Data(v.placeholder(PlaceholderText)))
	v.label = Label(Image(v.photo), Borderwidth(0), Padx(0), Pady(0), Background(theme.ColorPreviewBg))
	Grid(v.label, In(parent), Row(0), Column(0), Sticky("nw"))
	if h.Down != nil {
		Bind(v.label, "<ButtonPress-1>", Command(func(e *Event) { h.Down(e.X, e.Y) }))
	}
	if h.Move != nil {
		Bind(v.label, "<B1-Motion>", Command(func(e *Event) { h.Move(e.X, e.Y) }))
	}
	if h.Up != nil {
		Bind(v.label, "<ButtonRelease-1>", Command(func(e *Event) { h.Up(e.X, e.Y) }))
	}
	return v
}

// PlaceholderText is shown before the first frame arrives.
const PlaceholderText = "Camera Off"

func (v *videoView) placeholder(text string) []byte {
	return images.EncodePNG(images.Placeholder(v.surface, previewBg, text))
}

func (v *videoView) Surface() geometry.Size { return v.surface }

// ShowFrame replaces the displayed photo, deleting the previous one so
// obsolete pixel buffers are not retained by Tk.
func (v *videoView) ShowFrame(png []byte) {
	if v == nil || v.label == nil || len(png) == 0 {
		return
	}
	if v.photo != nil {
		v.photo.Delete()
	}
	v.photo = NewPhoto(Data(png))
	v.label.Configure(Image(v.photo))
}

func (v *videoView) Reset() {
	if v == nil {
		return
	}
	v.ShowFrame(v.placeholder(PlaceholderText))
}
