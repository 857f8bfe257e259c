package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// PatternSource renders a synthetic scene: a gradient background with a few
// colored squares drifting across it. It needs no hardware and is
// deterministic, which makes it the demo and test source.
type PatternSource struct {
	Width, Height int
	// Limit ends the stream after this many frames (0 = endless).
	Limit int

	mu   sync.Mutex
	n    int
	open bool
	bg   *image.RGBA
}

// NewPatternSource returns an endless pattern of the given size.
func NewPatternSource(w, h int) *PatternSource { return &PatternSource{Width: w, Height: h} }

func (p *PatternSource) Name() string { return "pattern" }

func (p *PatternSource) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: pattern size %dx%d", ErrDeviceUnavailable, p.Width, p.Height)
	}
	p.bg = gradient(p.Width, p.Height)
	p.n = 0
	p.open = true
	return nil
}

func (p *PatternSource) Read() (*image.RGBA, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil, fmt.Errorf("%w: pattern source closed", ErrDeviceUnavailable)
	}
	if p.Limit > 0 && p.n >= p.Limit {
		return nil, ErrEndOfStream
	}
	img := image.NewRGBA(p.bg.Bounds())
	copy(img.Pix, p.bg.Pix)
	side := max(min(p.Width, p.Height)/6, 4)
	for i, c := range patternColors {
		x := (p.n*(3+2*i) + i*p.Width/3) % max(p.Width-side, 1)
		y := (p.Height/4)*(i+1) - side/2
		r := image.Rect(x, y, x+side, y+side).Intersect(img.Bounds())
		draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
	}
	p.n++
	return img, nil
}

func (p *PatternSource) Close() error {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	return nil
}

var patternColors = []color.RGBA{
	{R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
	{R: 0x10, G: 0xb9, B: 0x81, A: 0xff},
	{R: 0x25, G: 0x63, B: 0xeb, A: 0xff},
}

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40 + (x*60)/max(w, 1) + (y*40)/max(h, 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v + 10, A: 0xff})
		}
	}
	return img
}
