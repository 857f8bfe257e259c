package template

import (
	"image"
	"math"
)

// grayImage holds luminance values with summed-area tables so the mean and
// variance of any window cost four lookups. The tables are (w+1)*(h+1) with a
// zero first row and column.
type grayImage struct {
	w, h int
	pix  []float64
	sum  []float64
	sq   []float64
}

func luminance(img image.Image, x, y int) float64 {
	r, g, b, a := img.At(x, y).RGBA()
	if a == 0 {
		return 0
	}
	return (0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)) / 257
}

func newGrayImage(img image.Image) *grayImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	g := &grayImage{
		w:   w,
		h:   h,
		pix: make([]float64, w*h),
		sum: make([]float64, (w+1)*(h+1)),
		sq:  make([]float64, (w+1)*(h+1)),
	}
	stride := w + 1
	for y := 0; y < h; y++ {
		var row, rowSq float64
		for x := 0; x < w; x++ {
			v := luminance(img, bounds.Min.X+x, bounds.Min.Y+y)
			g.pix[y*w+x] = v
			row += v
			rowSq += v * v
			g.sum[(y+1)*stride+x+1] = g.sum[y*stride+x+1] + row
			g.sq[(y+1)*stride+x+1] = g.sq[y*stride+x+1] + rowSq
		}
	}
	return g
}

func (g *grayImage) windowSum(table []float64, x, y, w, h int) float64 {
	s := g.w + 1
	return table[(y+h)*s+x+w] - table[y*s+x+w] - table[(y+h)*s+x] + table[y*s+x]
}

// windowEnergy returns the sum of squared deviations from the window mean.
func (g *grayImage) windowEnergy(x, y, w, h int) float64 {
	n := float64(w * h)
	sum := g.windowSum(g.sum, x, y, w, h)
	return g.windowSum(g.sq, x, y, w, h) - sum*sum/n
}

// patch is a zero-mean template ready for correlation.
type patch struct {
	w, h int
	vals []float64
	norm float64
}

func newPatch(img image.Image) (patch, bool) {
	g := newGrayImage(img)
	if g.w == 0 || g.h == 0 {
		return patch{}, false
	}
	var mean float64
	for _, v := range g.pix {
		mean += v
	}
	mean /= float64(len(g.pix))
	p := patch{w: g.w, h: g.h, vals: make([]float64, len(g.pix))}
	var energy float64
	for i, v := range g.pix {
		d := v - mean
		p.vals[i] = d
		energy += d * d
	}
	if energy < 1e-6 {
		// flat templates correlate with nothing
		return patch{}, false
	}
	p.norm = math.Sqrt(energy)
	return p, true
}

// ncc is the normalized cross-correlation of p against the window of g at
// (x, y). Flat windows score 0.
func (g *grayImage) ncc(p patch, x, y int) float64 {
	energy := g.windowEnergy(x, y, p.w, p.h)
	if energy < 1e-6 {
		return 0
	}
	var num float64
	for py := 0; py < p.h; py++ {
		row := g.pix[(y+py)*g.w+x : (y+py)*g.w+x+p.w]
		tv := p.vals[py*p.w : (py+1)*p.w]
		for i, v := range row {
			num += v * tv[i]
		}
	}
	return num / (math.Sqrt(energy) * p.norm)
}
