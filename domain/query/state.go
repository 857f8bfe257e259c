// Package query holds the mutable recognition query shared between the UI
// thread and the inference worker.
package query

import (
	"math"
	"slices"
	"sync"
)

const (
	MinConfidence     = 0.05
	MaxConfidence     = 0.95
	DefaultConfidence = 0.25
)

// State is the prompt, exemplar list and confidence threshold. Every setter
// replaces one whole field under the lock; Snapshot copies all of them at once.
// The zero value is usable and starts at DefaultConfidence.
type State struct {
	mu         sync.Mutex
	terms      []string
	exemplars  []Exemplar
	confidence float64
	confSet    bool
	version    uint64
}

// NewState returns a State with the given initial confidence (clamped).
func NewState(confidence float64) *State {
	s := &State{}
	s.SetConfidence(confidence)
	return s
}

// SetPrompt replaces the text terms. Blank terms are dropped and duplicates
// (ignoring case) keep their first position.
func (s *State) SetPrompt(terms []string) {
	cp := normalizeTerms(terms)
	s.mu.Lock()
	s.terms = cp
	s.version++
	s.mu.Unlock()
}

// SetExemplars replaces the exemplar list.
func (s *State) SetExemplars(ex []Exemplar) {
	cp := slices.Clone(ex)
	s.mu.Lock()
	s.exemplars = cp
	s.version++
	s.mu.Unlock()
}

// SetConfidence stores v clamped to [MinConfidence, MaxConfidence].
// NaN resets to DefaultConfidence.
func (s *State) SetConfidence(v float64) {
	v = ClampConfidence(v)
	s.mu.Lock()
	s.confidence = v
	s.confSet = true
	s.version++
	s.mu.Unlock()
}

// Confidence returns the stored threshold.
func (s *State) Confidence() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confidenceLocked()
}

// Version increments on every mutation.
func (s *State) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot returns a torn-free copy of all fields.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Terms:      slices.Clone(s.terms),
		Exemplars:  slices.Clone(s.exemplars),
		Confidence: s.confidenceLocked(),
		Version:    s.version,
	}
}

func (s *State) confidenceLocked() float64 {
	if !s.confSet {
		return DefaultConfidence
	}
	return s.confidence
}

// ClampConfidence clamps v into the accepted threshold range.
func ClampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return DefaultConfidence
	case v < MinConfidence:
		return MinConfidence
	case v > MaxConfidence:
		return MaxConfidence
	}
	return v
}
