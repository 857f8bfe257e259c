package recognition

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/soocke/promptcam/ui/images"
)

var regionPalette = []color.NRGBA{
	{R: 0x25, G: 0x63, B: 0xeb, A: 0xff},
	{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
	{R: 0xf5, G: 0x9e, B: 0x0b, A: 0xff},
	{R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
	{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
	{R: 0x06, G: 0xb6, B: 0xd4, A: 0xff},
}

const maskOpacity = 0.45

// Annotate renders regions onto a copy of img: a translucent mask when
// present, an outline and a "label score" caption. Regions sharing a label
// share a color.
func Annotate(img image.Image, regions []Region) *image.NRGBA {
	if img == nil {
		return nil
	}
	out := imaging.Clone(img)
	colors := make(map[string]color.NRGBA)
	pick := func(label string) color.NRGBA {
		if c, ok := colors[label]; ok {
			return c
		}
		c := regionPalette[len(colors)%len(regionPalette)]
		colors[label] = c
		return c
	}
	origin := img.Bounds().Min
	for _, r := range regions {
		c := pick(r.Label)
		if r.Mask != nil {
			images.BlendMask(out, r.Mask, r.Mask.Bounds().Min.Sub(origin), c, maskOpacity)
		}
		box := r.Box.Rect()
		images.StrokeRect(out, box, c, 2)
		caption := fmt.Sprintf("%s %.2f", r.Label, r.Score)
		if r.Label == "" {
			caption = fmt.Sprintf("%.2f", r.Score)
		}
		y := box.Min.Y - 16
		if y < 0 {
			y = box.Min.Y + 2
		}
		images.Caption(out, box.Min.X+2, y, caption, color.White, c)
	}
	return out
}
