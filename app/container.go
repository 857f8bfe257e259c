package app

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/promptcam/app/engine"
	"github.com/soocke/promptcam/config"
	"github.com/soocke/promptcam/ui/model"
	"github.com/soocke/promptcam/ui/presenter"
	"github.com/soocke/promptcam/ui/view"
)

// AppContainer assembles the engine, models, presenters and the root view.
type AppContainer struct {
	Config    *config.Config
	Logger    *slog.Logger
	Engine    *engine.Engine
	Capture   *model.CaptureModel
	Selection *model.SelectionModel
	RootView  *view.RootView

	// Presenters
	CapturePresenter   *presenter.CapturePresenter
	FramePresenter     *presenter.FramePresenter
	SelectionPresenter *presenter.SelectionPresenter
	QueryPresenter     *presenter.QueryPresenter
	StatsPresenter     *presenter.StatsPresenter
	ModelPresenter     *presenter.ModelPresenter
	Loop               *presenter.Loop

	region atomic.Pointer[image.Rectangle]
}

// BuildContainer constructs all components without touching Tk. Presenters
// are wired in WirePresenters once the view has been built.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath string, opts ...engine.Option) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, Logger: logger}
	c.RootView = view.NewRootView(cfg, cfgPath, logger, c.setRegion)
	if r := c.RootView.Overlay.ActiveRect(); r != nil {
		c.region.Store(r)
	}
	opts = append([]engine.Option{engine.WithRegion(c.Region)}, opts...)
	eng, err := engine.New(cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	c.Engine = eng
	c.Capture = &model.CaptureModel{}
	c.Selection = model.NewSelectionModel()
	return c, nil
}

// Region returns the screen capture rectangle or nil for the whole screen.
// It is read from the capture goroutine.
func (c *AppContainer) Region() *image.Rectangle { return c.region.Load() }

func (c *AppContainer) setRegion(r image.Rectangle) {
	if r.Empty() {
		c.region.Store(nil)
		return
	}
	c.region.Store(&r)
}

// WirePresenters connects presenters to the engine and the built view.
// ctx bounds background model reloads.
func (c *AppContainer) WirePresenters(ctx context.Context, schedule func()) {
	e, v := c.Engine, c.RootView
	c.CapturePresenter = presenter.NewCapturePresenter(c.Capture, e.Capture, e.Queue, v, c.Logger)
	c.FramePresenter = presenter.NewFramePresenter(e.Results, c.Capture, c.Selection, v, view.PreviewBackground())
	c.SelectionPresenter = presenter.NewSelectionPresenter(c.Selection, c.FramePresenter, e.Samples, v, c.Config.UI.MinSelection, c.Logger)
	c.QueryPresenter = presenter.NewQueryPresenter(e.Query, e.Samples, c.SelectionPresenter, e.Thumbs, v, c.Logger)
	c.StatsPresenter = presenter.NewStatsPresenter(e.Worker, e.Queue, c.FramePresenter, v)
	c.ModelPresenter = presenter.NewModelPresenter(ctx, e, v, c.Logger)
	c.Loop = presenter.NewLoop(c.CapturePresenter, c.FramePresenter, c.StatsPresenter, schedule)
	c.Loop.Model = c.ModelPresenter
	e.Samples.OnChange(c.QueryPresenter.Refresh)
}
