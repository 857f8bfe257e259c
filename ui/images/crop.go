package images

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/soocke/promptcam/domain/geometry"
)

// CropBox copies the pixels covered by box out of frame. The box is clamped to
// the frame bounds and the copy never aliases frame memory.
func CropBox(frame *image.RGBA, box geometry.BoundingBox) (*image.RGBA, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	b := frame.Bounds()
	r := box.Rect().Add(b.Min).Intersect(b)
	if r.Empty() {
		return nil, errors.New("box outside frame")
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), frame, r.Min, draw.Src)
	return out, nil
}

// Thumbnail fits src into w x h (never upscaling past it), centers it on a
// dark tile and strokes a border of the given color.
func Thumbnail(src image.Image, w, h int, border color.Color) *image.NRGBA {
	w, h = max(w, 4), max(h, 4)
	tile := imaging.New(w, h, color.NRGBA{R: 32, G: 32, B: 32, A: 255})
	if src != nil && !src.Bounds().Empty() {
		fitted := imaging.Fit(src, w-4, h-4, imaging.Linear)
		fb := fitted.Bounds()
		tile = imaging.Paste(tile, fitted, image.Pt((w-fb.Dx())/2, (h-fb.Dy())/2))
	}
	StrokeRect(tile, tile.Bounds(), border, 2)
	return tile
}
