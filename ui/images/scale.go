package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/soocke/promptcam/domain/geometry"
)

// EncodePNG encodes an image to PNG bytes. Errors are ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	_ = enc.Encode(&buf, img)
	return buf.Bytes()
}

// Letterbox scales src to fill the surface while keeping its aspect ratio,
// centers it on a bg canvas of exactly surface size and returns the canvas
// together with the rectangle the frame occupies.
func Letterbox(src image.Image, surface geometry.Size, bg color.Color) (*image.NRGBA, geometry.DisplayRect) {
	if surface.Empty() {
		return imaging.New(1, 1, bg), geometry.DisplayRect{}
	}
	canvas := imaging.New(surface.W, surface.H, bg)
	if src == nil || src.Bounds().Empty() {
		return canvas, geometry.DisplayRect{}
	}
	d := geometry.Fit(geometry.SizeOf(src), surface)
	var scaled image.Image = src
	if d.W != src.Bounds().Dx() || d.H != src.Bounds().Dy() {
		scaled = imaging.Resize(src, d.W, d.H, imaging.Linear)
	}
	return imaging.Paste(canvas, scaled, image.Pt(d.X, d.Y)), d
}

// Placeholder renders a flat surface with a centered caption, used when no
// frame is available.
func Placeholder(surface geometry.Size, bg color.Color, text string) *image.NRGBA {
	w, h := max(surface.W, 1), max(surface.H, 1)
	canvas := imaging.New(w, h, bg)
	if text != "" {
		tw := TextWidth(text)
		Caption(canvas, (w-tw)/2, h/2-captionHeight/2, text, color.White, nil)
	}
	return canvas
}
