// Package recognition defines the contract between the pipeline and a
// recognition backend, and renders backend output onto frames.
package recognition

import (
	"context"
	"errors"
	"image"
	"slices"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

var (
	// ErrModelLoadFailed wraps any failure to bring a backend to Ready.
	ErrModelLoadFailed = errors.New("model load failed")
	// ErrInferenceFailed wraps a failure of a single Infer call.
	ErrInferenceFailed = errors.New("inference failed")
	// ErrNotLoaded is returned by Infer before a successful LoadModel.
	ErrNotLoaded = errors.New("model not loaded")
	// ErrClosed is returned once the backend has been closed or its transport broke.
	ErrClosed = errors.New("recognizer closed")
)

// Recognizer is an opaque recognition backend. Infer must be safe to call
// repeatedly after LoadModel succeeded; calls are never concurrent.
type Recognizer interface {
	LoadModel(ctx context.Context, path string) error
	Infer(ctx context.Context, img *image.RGBA, q Query) ([]Region, error)
	Close() error
}

// Mode names which parts of a query are populated.
type Mode int

const (
	ModeNone Mode = iota
	ModeText
	ModeExemplar
	ModeTextAndExemplar
)

func (m Mode) String() string {
	switch m {
	case ModeText:
		return "text"
	case ModeExemplar:
		return "exemplar"
	case ModeTextAndExemplar:
		return "text+exemplar"
	default:
		return "none"
	}
}

// Query is what a backend receives for one frame.
type Query struct {
	Terms      []string
	Exemplars  []query.Exemplar
	Confidence float64
}

// QueryFrom copies a query snapshot.
func QueryFrom(s query.Snapshot) Query {
	return Query{
		Terms:      slices.Clone(s.Terms),
		Exemplars:  slices.Clone(s.Exemplars),
		Confidence: s.Confidence,
	}
}

// Mode reports which combination of text and exemplars is present.
func (q Query) Mode() Mode {
	switch {
	case len(q.Terms) > 0 && len(q.Exemplars) > 0:
		return ModeTextAndExemplar
	case len(q.Terms) > 0:
		return ModeText
	case len(q.Exemplars) > 0:
		return ModeExemplar
	}
	return ModeNone
}

// Boxes and Labels split the exemplars into the parallel lists most model
// servers expect. Labels are 1 for positive and 0 for negative.
func (q Query) Boxes() [][4]int {
	out := make([][4]int, len(q.Exemplars))
	for i, e := range q.Exemplars {
		out[i] = [4]int{e.Box.X1, e.Box.Y1, e.Box.X2, e.Box.Y2}
	}
	return out
}

func (q Query) Labels() []int {
	out := make([]int, len(q.Exemplars))
	for i, e := range q.Exemplars {
		if e.Label == query.Positive {
			out[i] = 1
		}
	}
	return out
}

// Region is one detection. Mask is optional; when present its bounds are in
// frame coordinates.
type Region struct {
	Box   geometry.BoundingBox
	Mask  *image.Alpha
	Label string
	Score float64
}
