package presenter

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/domain/samples"
	"github.com/soocke/promptcam/ui/images"
)

const (
	StatusApplied        = "Applied"
	StatusSamplesCleared = "Samples cleared"

	SliderMin = 5
	SliderMax = 95
)

// QueryState is the shared query the worker reads.
type QueryState interface {
	SetPrompt([]string)
	SetConfidence(float64)
	Confidence() float64
	Snapshot() query.Snapshot
}

// SampleList is the part of the sample store the strip edits.
type SampleList interface {
	Samples() []samples.Sample
	Remove(index int) bool
	Clear()
}

// PendingCanceler drops an unsaved selection.
type PendingCanceler interface {
	Cancel()
}

// SampleTile is one thumbnail in the samples strip.
type SampleTile struct {
	Index int
	ID    string
	PNG   []byte
	Label query.Label
}

// QueryView shows prompt, confidence and sample state.
type QueryView interface {
	SetStatus(string)
	SetSummary(string)
	SetConfidenceLabel(string)
	SetSamples(tiles []SampleTile, count string)
}

// ThumbnailRenderer caches encoded thumbnails by sample id.
type ThumbnailRenderer interface {
	PNG(key string, render func() image.Image) []byte
	Forget(key string)
}

// QueryPresenter edits the text prompt, the confidence and the sample list.
type QueryPresenter struct {
	state     QueryState
	store     SampleList
	selection PendingCanceler
	thumbs    ThumbnailRenderer
	view      QueryView
	logger    *slog.Logger

	shown map[string]struct{}
}

func NewQueryPresenter(state QueryState, store SampleList, selection PendingCanceler, thumbs ThumbnailRenderer, view QueryView, logger *slog.Logger) *QueryPresenter {
	return &QueryPresenter{state: state, store: store, selection: selection, thumbs: thumbs, view: view, logger: logger, shown: map[string]struct{}{}}
}

func (p *QueryPresenter) ready() bool {
	return p != nil && p.state != nil && p.view != nil
}

// SubmitPrompt parses a comma separated prompt and replaces the text terms.
func (p *QueryPresenter) SubmitPrompt(raw string) {
	if !p.ready() {
		return
	}
	terms := query.ParsePrompt(raw)
	p.state.SetPrompt(terms)
	p.refreshSummary()
	if p.logger != nil {
		p.logger.Info("query.prompt", "terms", terms)
	}
}

// SetConfidence takes the slider position (SliderMin..SliderMax).
func (p *QueryPresenter) SetConfidence(slider float64) {
	if !p.ready() {
		return
	}
	p.state.SetConfidence(SliderToConfidence(slider))
	p.view.SetConfidenceLabel(fmt.Sprintf("%.2f", p.state.Confidence()))
}

// Apply re-submits prompt and confidence together.
func (p *QueryPresenter) Apply(raw string, slider float64) {
	if !p.ready() {
		return
	}
	p.SetConfidence(slider)
	p.SubmitPrompt(raw)
	p.view.SetStatus(StatusApplied)
}

// ClearSamples removes every sample and any pending selection.
func (p *QueryPresenter) ClearSamples() {
	if !p.ready() || p.store == nil {
		return
	}
	p.store.Clear()
	if p.selection != nil {
		p.selection.Cancel()
	}
	p.Refresh()
	p.view.SetStatus(StatusSamplesCleared)
}

// DeleteSample removes the sample at index; out of range is a no-op.
func (p *QueryPresenter) DeleteSample(index int) {
	if !p.ready() || p.store == nil {
		return
	}
	if p.store.Remove(index) {
		p.Refresh()
	}
}

// Refresh rebuilds the samples strip and the settings summary.
func (p *QueryPresenter) Refresh() {
	if !p.ready() {
		return
	}
	if p.store != nil {
		list := p.store.Samples()
		tiles := make([]SampleTile, 0, len(list))
		live := make(map[string]struct{}, len(list))
		for i, s := range list {
			id := s.ID.String()
			live[id] = struct{}{}
			tile := SampleTile{Index: i, ID: id, Label: s.Label}
			if p.thumbs != nil {
				tile.PNG = p.thumbs.PNG(id, func() image.Image { return s.Thumb })
			} else {
				tile.PNG = images.EncodePNG(s.Thumb)
			}
			tiles = append(tiles, tile)
		}
		for id := range p.shown {
			if _, ok := live[id]; !ok && p.thumbs != nil {
				p.thumbs.Forget(id)
			}
		}
		p.shown = live
		p.view.SetSamples(tiles, fmt.Sprintf("%d samples", len(tiles)))
	}
	p.refreshSummary()
}

func (p *QueryPresenter) refreshSummary() {
	p.view.SetSummary(query.Summary(p.state.Snapshot()))
}

// SliderToConfidence maps the integer slider range onto a confidence.
func SliderToConfidence(v float64) float64 {
	v = min(max(v, SliderMin), SliderMax)
	return float64(int(v+0.5)) / 100
}

// ConfidenceToSlider is the inverse used to position the slider initially.
func ConfidenceToSlider(c float64) float64 {
	return min(max(float64(int(c*100+0.5)), SliderMin), SliderMax)
}
