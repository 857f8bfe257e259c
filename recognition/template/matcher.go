// Package template is a model-free recognition backend. It finds regions that
// look like the positive exemplars using multi-scale normalized
// cross-correlation, and drops candidates that look more like a negative
// exemplar. Text terms are ignored.
package template

import (
	"cmp"
	"context"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/recognition"
)

// Name is the backend name used in configuration.
const Name = "template"

const (
	defaultWorkSide   = 320
	defaultMaxRegions = 20
	defaultCacheSize  = 64
	nmsIoU            = 0.3
	minPatchSide      = 4
	regionLabel       = "exemplar"
)

var defaultScales = []float64{0.8, 1.0, 1.25}

// Options tunes the matcher. Zero values select defaults.
type Options struct {
	// WorkSide caps the longer frame side before matching.
	WorkSide   int
	MaxRegions int
	Scales     []float64
	CacheSize  int
}

// Matcher implements recognition.Recognizer. The first time an exemplar box
// is seen its pixels are cropped from that frame and remembered, so later
// frames are searched for what the user originally marked.
type Matcher struct {
	opts      Options
	logger    *slog.Logger
	loaded    atomic.Bool
	closed    atomic.Bool
	templates *lru.Cache[string, *image.NRGBA]
}

// New returns a matcher. Call LoadModel before Infer.
func New(logger *slog.Logger, opts Options) (*Matcher, error) {
	if opts.WorkSide <= 0 {
		opts.WorkSide = defaultWorkSide
	}
	if opts.MaxRegions <= 0 {
		opts.MaxRegions = defaultMaxRegions
	}
	if len(opts.Scales) == 0 {
		opts.Scales = defaultScales
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *image.NRGBA](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("template cache: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Matcher{opts: opts, logger: logger, templates: cache}, nil
}

// LoadModel has nothing to load; it only marks the matcher ready.
func (m *Matcher) LoadModel(ctx context.Context, path string) error {
	if m.closed.Load() {
		return fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, recognition.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, err)
	}
	if path != "" {
		m.logger.Debug("template matcher ignores model path", "path", path)
	}
	m.loaded.Store(true)
	return nil
}

func (m *Matcher) Close() error {
	m.closed.Store(true)
	m.templates.Purge()
	return nil
}

type candidate struct {
	box   geometry.BoundingBox
	score float64
}

// Infer returns up to MaxRegions non-overlapping matches scoring at least
// Threshold(q.Confidence).
func (m *Matcher) Infer(ctx context.Context, img *image.RGBA, q recognition.Query) ([]recognition.Region, error) {
	if m.closed.Load() {
		return nil, recognition.ErrClosed
	}
	if !m.loaded.Load() {
		return nil, recognition.ErrNotLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty frame", recognition.ErrInferenceFailed)
	}
	var positives, negatives []*image.NRGBA
	for _, ex := range q.Exemplars {
		t := m.template(img, ex)
		if t == nil {
			continue
		}
		if ex.Label == query.Positive {
			positives = append(positives, t)
		} else {
			negatives = append(negatives, t)
		}
	}
	if len(positives) == 0 {
		return nil, nil
	}

	orig := geometry.SizeOf(img)
	factor := min(1, float64(m.opts.WorkSide)/float64(max(orig.W, orig.H)))
	var work image.Image = img
	if factor < 1 {
		work = imaging.Resize(img, int(float64(orig.W)*factor+0.5), int(float64(orig.H)*factor+0.5), imaging.Box)
	}
	gray := newGrayImage(work)
	threshold := Threshold(q.Confidence)

	cands, err := m.scan(ctx, gray, positives, factor, threshold)
	if err != nil {
		return nil, err
	}
	cands = suppress(cands, m.opts.MaxRegions)
	if len(negatives) > 0 {
		cands = rejectNegatives(gray, cands, negatives)
	}

	regions := make([]recognition.Region, 0, len(cands))
	for _, c := range cands {
		box := geometry.Box(
			int(float64(c.box.X1)/factor), int(float64(c.box.Y1)/factor),
			int(float64(c.box.X2)/factor+0.5), int(float64(c.box.Y2)/factor+0.5),
		)
		box.X2, box.Y2 = min(box.X2, orig.W), min(box.Y2, orig.H)
		regions = append(regions, recognition.Region{Box: box, Label: regionLabel, Score: c.score})
	}
	return regions, nil
}

// Threshold maps a confidence in [0,1] onto the NCC score range worth
// reporting. Correlations below 0.5 are noise on natural images.
func Threshold(confidence float64) float64 {
	return 0.5 + query.ClampConfidence(confidence)/2
}

// Remember stores the pixels of an exemplar as captured when the user marked
// it, replacing whatever a later frame would show inside the box.
func (m *Matcher) Remember(ex query.Exemplar, crop image.Image) {
	if crop == nil || crop.Bounds().Dx() < minPatchSide || crop.Bounds().Dy() < minPatchSide {
		return
	}
	m.templates.Add(templateKey(ex), imaging.Clone(crop))
}

func templateKey(ex query.Exemplar) string { return ex.Label.String() + "/" + ex.Box.String() }

func (m *Matcher) template(img *image.RGBA, ex query.Exemplar) *image.NRGBA {
	key := templateKey(ex)
	if t, ok := m.templates.Get(key); ok {
		return t
	}
	r := ex.Box.Rect().Intersect(img.Bounds())
	if r.Dx() < minPatchSide || r.Dy() < minPatchSide {
		return nil
	}
	t := imaging.Crop(img, r)
	m.templates.Add(key, t)
	return t
}

func (m *Matcher) scan(ctx context.Context, gray *grayImage, positives []*image.NRGBA, factor, threshold float64) ([]candidate, error) {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		found []candidate
	)
	sem := make(chan struct{}, runtime.NumCPU())
	for _, t := range positives {
		for _, s := range m.opts.Scales {
			if err := ctx.Err(); err != nil {
				wg.Wait()
				return nil, fmt.Errorf("%w: %w", recognition.ErrInferenceFailed, err)
			}
			b := t.Bounds()
			w, h := int(float64(b.Dx())*factor*s+0.5), int(float64(b.Dy())*factor*s+0.5)
			if w < minPatchSide || h < minPatchSide || w > gray.w || h > gray.h {
				continue
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(t *image.NRGBA, w, h int) {
				defer wg.Done()
				defer func() { <-sem }()
				p, ok := newPatch(imaging.Resize(t, w, h, imaging.Linear))
				if !ok {
					return
				}
				local := scanPatch(gray, p, threshold)
				mu.Lock()
				found = append(found, local...)
				mu.Unlock()
			}(t, w, h)
		}
	}
	wg.Wait()
	return found, nil
}

// scanPatch walks a coarse grid, then refines around each hit.
func scanPatch(g *grayImage, p patch, threshold float64) []candidate {
	stride := max(1, min(p.w, p.h)/8)
	var out []candidate
	for y := 0; y <= g.h-p.h; y += stride {
		for x := 0; x <= g.w-p.w; x += stride {
			// coarse pass uses a slack so refinement can climb to the peak
			if g.ncc(p, x, y) < threshold-0.1 {
				continue
			}
			bx, by, best := x, y, -1.0
			for ry := max(0, y-stride+1); ry <= min(g.h-p.h, y+stride-1); ry++ {
				for rx := max(0, x-stride+1); rx <= min(g.w-p.w, x+stride-1); rx++ {
					if s := g.ncc(p, rx, ry); s > best {
						bx, by, best = rx, ry, s
					}
				}
			}
			if best >= threshold {
				out = append(out, candidate{box: geometry.Box(bx, by, bx+p.w, by+p.h), score: best})
			}
		}
	}
	return out
}

// suppress keeps the best-scoring candidates that do not overlap a kept one.
func suppress(cands []candidate, limit int) []candidate {
	slices.SortFunc(cands, func(a, b candidate) int { return cmp.Compare(b.score, a.score) })
	kept := make([]candidate, 0, min(len(cands), limit))
	for _, c := range cands {
		if len(kept) == limit {
			break
		}
		if slices.ContainsFunc(kept, func(k candidate) bool { return k.box.IoU(c.box) > nmsIoU }) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func rejectNegatives(g *grayImage, cands []candidate, negatives []*image.NRGBA) []candidate {
	out := cands[:0]
	for _, c := range cands {
		w, h := c.box.Width(), c.box.Height()
		rejected := false
		for _, n := range negatives {
			p, ok := newPatch(imaging.Resize(n, w, h, imaging.Linear))
			if ok && g.ncc(p, c.box.X1, c.box.Y1) > c.score {
				rejected = true
				break
			}
		}
		if !rejected {
			out = append(out, c)
		}
	}
	return out
}
