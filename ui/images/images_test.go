package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/soocke/promptcam/domain/geometry"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestLetterbox_CentersAndPads(t *testing.T) {
	src := solid(200, 100, color.RGBA{R: 255, A: 255})
	out, d := Letterbox(src, geometry.Size{W: 100, H: 100}, color.Black)
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 100 {
		t.Fatalf("canvas size %v", out.Bounds())
	}
	if d != (geometry.DisplayRect{X: 0, Y: 25, W: 100, H: 50}) {
		t.Fatalf("unexpected display rect %+v", d)
	}
	if c := out.NRGBAAt(50, 10); c.R != 0 {
		t.Fatalf("bar should be background, got %v", c)
	}
	if c := out.NRGBAAt(50, 50); c.R != 255 {
		t.Fatalf("frame area should be red, got %v", c)
	}
}

func TestLetterbox_NilSource(t *testing.T) {
	out, d := Letterbox(nil, geometry.Size{W: 10, H: 10}, color.Black)
	if out == nil || !d.Empty() {
		t.Fatalf("expected blank canvas and empty rect, got %v", d)
	}
}

func TestCropBox_CopiesAndClamps(t *testing.T) {
	frame := solid(50, 50, color.RGBA{G: 200, A: 255})
	crop, err := CropBox(frame, geometry.Box(40, 40, 80, 80))
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if crop.Bounds().Dx() != 10 || crop.Bounds().Dy() != 10 {
		t.Fatalf("expected clamp to 10x10 got %v", crop.Bounds())
	}
	frame.SetRGBA(45, 45, color.RGBA{R: 1, A: 255})
	if c := crop.RGBAAt(5, 5); c.G != 200 {
		t.Fatalf("crop aliases frame memory: %v", c)
	}
	if _, err := CropBox(frame, geometry.Box(60, 60, 70, 70)); err == nil {
		t.Fatalf("expected error for box outside frame")
	}
	if _, err := CropBox(nil, geometry.Box(0, 0, 1, 1)); err == nil {
		t.Fatalf("expected error for nil frame")
	}
}

func TestStrokeAndDashedRect(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	StrokeRect(img, image.Rect(2, 2, 12, 12), color.White, 1)
	if c := img.RGBAAt(2, 5); c.R != 255 {
		t.Fatalf("left edge not drawn")
	}
	if c := img.RGBAAt(6, 6); c.R != 0 {
		t.Fatalf("interior should be untouched")
	}
	dashed := image.NewRGBA(image.Rect(0, 0, 20, 20))
	DashedRect(dashed, image.Rect(0, 0, 16, 16), color.White, 1, 4)
	if dashed.RGBAAt(1, 0).R != 255 || dashed.RGBAAt(5, 0).R != 0 || dashed.RGBAAt(9, 0).R != 255 {
		t.Fatalf("dash pattern wrong")
	}
	// off-surface rectangles are clipped, not panicking
	StrokeRect(img, image.Rect(-5, -5, 30, 30), color.White, 2)
}

func TestCaptionAndPlaceholder(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 120, 30))
	Caption(img, 2, 2, "Press SAVE", color.White, color.RGBA{G: 128, A: 255})
	lit := 0
	for y := 0; y < 30; y++ {
		for x := 0; x < 120; x++ {
			if img.RGBAAt(x, y).R > 200 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Fatalf("caption drew no glyph pixels")
	}
	ph := Placeholder(geometry.Size{W: 200, H: 100}, color.Black, "Camera Off")
	if ph.Bounds().Dx() != 200 {
		t.Fatalf("placeholder size %v", ph.Bounds())
	}
}

func TestBlendMask(t *testing.T) {
	dst := solid(10, 10, color.RGBA{A: 255})
	mask := image.NewAlpha(image.Rect(0, 0, 4, 4))
	mask.SetAlpha(1, 1, color.Alpha{A: 255})
	BlendMask(dst, mask, image.Pt(2, 2), color.NRGBA{R: 255, A: 255}, 0.5)
	if c := dst.RGBAAt(3, 3); c.R < 100 {
		t.Fatalf("masked pixel not tinted: %v", c)
	}
	if c := dst.RGBAAt(2, 2); c.R != 0 {
		t.Fatalf("unmasked pixel tinted: %v", c)
	}
}

func TestThumbnail_BorderColor(t *testing.T) {
	src := solid(300, 100, color.RGBA{B: 255, A: 255})
	th := Thumbnail(src, 80, 50, color.RGBA{G: 255, A: 255})
	if th.Bounds().Dx() != 80 || th.Bounds().Dy() != 50 {
		t.Fatalf("thumb size %v", th.Bounds())
	}
	if c := th.NRGBAAt(0, 0); c.G != 255 {
		t.Fatalf("border not drawn: %v", c)
	}
	if c := th.NRGBAAt(40, 25); c.B < 200 {
		t.Fatalf("content not pasted: %v", c)
	}
}

func TestThumbnailCache(t *testing.T) {
	c := NewThumbnailCache(2)
	renders := 0
	render := func() image.Image { renders++; return solid(4, 4, color.RGBA{A: 255}) }
	a := c.PNG("a", render)
	if len(a) == 0 {
		t.Fatalf("empty png")
	}
	c.PNG("a", render)
	if renders != 1 {
		t.Fatalf("expected cached render, renders=%d", renders)
	}
	c.PNG("b", render)
	c.PNG("c", render)
	if c.Len() != 2 {
		t.Fatalf("expected eviction to 2 entries, got %d", c.Len())
	}
	c.Forget("c")
	if c.Len() != 1 {
		t.Fatalf("forget failed, len=%d", c.Len())
	}
	var nilCache *ThumbnailCache
	if len(nilCache.PNG("x", render)) == 0 {
		t.Fatalf("nil cache should still encode")
	}
}
