package images

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionHeight = 15

// StrokeRect draws a solid outline of r clipped to dst.
func StrokeRect(dst draw.Image, r image.Rectangle, c color.Color, thickness int) {
	strokeRect(dst, r.Canon(), c, thickness, 0)
}

// DashedRect draws a dashed outline of r (dash on, dash off).
func DashedRect(dst draw.Image, r image.Rectangle, c color.Color, thickness, dash int) {
	if dash < 1 {
		dash = 4
	}
	strokeRect(dst, r.Canon(), c, thickness, dash)
}

func strokeRect(dst draw.Image, r image.Rectangle, c color.Color, thickness, dash int) {
	if dst == nil || r.Empty() {
		return
	}
	if thickness < 1 {
		thickness = 1
	}
	clip := dst.Bounds()
	on := func(i int) bool { return dash == 0 || (i/dash)%2 == 0 }
	set := func(x, y int) {
		if image.Pt(x, y).In(clip) {
			dst.Set(x, y, c)
		}
	}
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if on(x - r.Min.X) {
				set(x, r.Min.Y+t)
				set(x, r.Max.Y-1-t)
			}
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			if on(y - r.Min.Y) {
				set(r.Min.X+t, y)
				set(r.Max.X-1-t, y)
			}
		}
	}
}

// TextWidth returns the pixel width of s in the caption face.
func TextWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}

// Caption draws text with its top-left at (x, y). A non-nil bg paints a
// background plate behind the text first.
func Caption(dst draw.Image, x, y int, text string, fg, bg color.Color) {
	if dst == nil || text == "" {
		return
	}
	if bg != nil {
		plate := image.Rect(x-2, y, x+TextWidth(text)+2, y+captionHeight).Intersect(dst.Bounds())
		draw.Draw(dst, plate, image.NewUniform(bg), image.Point{}, draw.Src)
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y+basicfont.Face7x13.Ascent),
	}
	d.DrawString(text)
}

// BlendMask tints the pixels of dst selected by mask. The mask is placed with
// its bounds origin at `at` in dst coordinates.
func BlendMask(dst draw.Image, mask *image.Alpha, at image.Point, c color.NRGBA, opacity float64) {
	if dst == nil || mask == nil {
		return
	}
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	src := &image.Uniform{C: color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity * 255)}}
	mb := mask.Bounds()
	target := image.Rectangle{Min: at, Max: at.Add(mb.Size())}
	draw.DrawMask(dst, target, src, image.Point{}, mask, mb.Min, draw.Over)
}
