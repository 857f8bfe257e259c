package frame

import (
	"image"
	"image/draw"
	"time"
)

// Frame is a captured image plus capture metadata. A Frame is owned by one
// pipeline stage at a time; Clone it before handing pixels to a second owner.
type Frame struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// Empty reports whether the frame carries no pixels.
func (f Frame) Empty() bool { return f.Image == nil || f.Image.Bounds().Empty() }

// Width returns the pixel width (0 for an empty frame).
func (f Frame) Width() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the pixel height (0 for an empty frame).
func (f Frame) Height() int {
	if f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Clone returns a deep copy whose image is rebased at the origin.
func (f Frame) Clone() Frame {
	out := f
	if f.Image != nil {
		b := f.Image.Bounds()
		cp := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(cp, cp.Bounds(), f.Image, b.Min, draw.Src)
		out.Image = cp
	}
	return out
}

// ToRGBA converts img into an origin-based *image.RGBA. An *image.RGBA that
// already starts at the origin is returned unchanged.
func ToRGBA(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
