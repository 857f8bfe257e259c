// Package samples keeps the user-confirmed exemplar regions and mirrors them
// into the recognition query.
package samples

import (
	"image"
	"image/color"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/images"
)

var (
	PositiveColor = color.NRGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff}
	NegativeColor = color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff}
)

// LabelColor returns the border color used for a label.
func LabelColor(l query.Label) color.NRGBA {
	if l == query.Positive {
		return PositiveColor
	}
	return NegativeColor
}

// Sample is one confirmed exemplar with the pixels it was drawn on.
type Sample struct {
	ID        uuid.UUID
	Box       geometry.BoundingBox
	Label     query.Label
	Crop      *image.RGBA
	Thumb     image.Image
	CreatedAt time.Time
}

// ExemplarSink receives the regenerated exemplar list after every mutation.
type ExemplarSink interface {
	SetExemplars([]query.Exemplar)
}

// Store is an ordered collection of samples. Indices are only meaningful for
// the sequence returned by the most recent Samples call.
type Store struct {
	mu        sync.Mutex
	samples   []Sample
	sink      ExemplarSink
	thumbW    int
	thumbH    int
	listeners []func()
	now       func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithThumbSize sets the thumbnail tile size (default 80x50).
func WithThumbSize(w, h int) Option {
	return func(s *Store) {
		if w > 0 && h > 0 {
			s.thumbW, s.thumbH = w, h
		}
	}
}

// NewStore returns an empty store that pushes exemplars into sink (may be nil).
func NewStore(sink ExemplarSink, opts ...Option) *Store {
	s := &Store{sink: sink, thumbW: 80, thumbH: 50, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OnChange registers fn to run after each mutation, outside the lock.
func (s *Store) OnChange(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Add appends a sample and returns its index.
func (s *Store) Add(box geometry.BoundingBox, label query.Label, crop *image.RGBA) int {
	sample := Sample{
		ID:        uuid.New(),
		Box:       box,
		Label:     label,
		Crop:      crop,
		CreatedAt: s.now(),
	}
	sample.Thumb = images.Thumbnail(crop, s.thumbW, s.thumbH, LabelColor(label))

	s.mu.Lock()
	s.samples = append(s.samples, sample)
	idx := len(s.samples) - 1
	s.mu.Unlock()

	s.changed()
	return idx
}

// Remove deletes the sample at index. It reports false and changes nothing
// for an out-of-range index.
func (s *Store) Remove(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.samples) {
		s.mu.Unlock()
		return false
	}
	s.samples = slices.Delete(s.samples, index, index+1)
	s.mu.Unlock()

	s.changed()
	return true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	s.samples = nil
	s.mu.Unlock()
	s.changed()
}

// Samples returns a copy of the ordered samples.
func (s *Store) Samples() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.samples)
}

// Exemplars returns the (box, label) pairs in insertion order.
func (s *Store) Exemplars() []query.Exemplar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exemplarsLocked()
}

// Len returns the number of samples.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Counts returns positive and negative totals.
func (s *Store) Counts() (pos, neg int) {
	return query.CountLabels(s.Exemplars())
}

func (s *Store) exemplarsLocked() []query.Exemplar {
	out := make([]query.Exemplar, len(s.samples))
	for i, x := range s.samples {
		out[i] = query.Exemplar{Box: x.Box, Label: x.Label}
	}
	return out
}

// changed pushes the exemplar list and notifies listeners. The list is
// computed and pushed under the lock so concurrent mutations reach the sink
// in mutation order.
func (s *Store) changed() {
	s.mu.Lock()
	if s.sink != nil {
		s.sink.SetExemplars(s.exemplarsLocked())
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
