package app

import (
	"context"
	"fmt"
	"log/slog"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/promptcam/app/engine"
	"github.com/soocke/promptcam/config"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/presenter"
	"github.com/soocke/promptcam/ui/theme"
	"github.com/soocke/promptcam/ui/view"
)

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	c       *AppContainer
	afterID string
	cancel  context.CancelFunc
	closing bool
}

// NewApp builds the pipeline and the main window. Nothing runs until Start.
func NewApp(cfg *config.Config, cfgPath string, logger *slog.Logger, opts ...engine.Option) (*app, error) {
	c, err := BuildContainer(cfg, logger, cfgPath, opts...)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, c: c}
	theme.SetDark(cfg.UI.Dark)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", cfg.UI.Width, cfg.UI.Height))
	return a, nil
}

// Start builds the UI, launches the worker and blocks in the Tk event loop.
func (a *app) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	c := a.c
	c.RootView.Build(view.Handlers{
		Query: view.QueryHandlers{
			SubmitPrompt:      func(raw string) { c.QueryPresenter.SubmitPrompt(raw) },
			ConfidenceChanged: func(s float64) { c.QueryPresenter.SetConfidence(s) },
			Apply:             func(raw string, s float64) { c.QueryPresenter.Apply(raw, s) },
			SetLabel:          func(l query.Label) { c.SelectionPresenter.SetLabel(l) },
			Save:              func() { c.SelectionPresenter.Save() },
			Cancel:            func() { c.SelectionPresenter.Cancel() },
			ClearSamples:      func() { c.QueryPresenter.ClearSamples() },
			ToggleCamera:      func() { c.CapturePresenter.Toggle() },
			ReloadModel:       func() { c.ModelPresenter.Reload() },
		},
		Pointer: view.PointerHandlers{
			Down: func(x, y int) { c.SelectionPresenter.PointerDown(x, y) },
			Move: func(x, y int) { c.SelectionPresenter.PointerMove(x, y) },
			Up:   func(x, y int) { c.SelectionPresenter.PointerUp(x, y) },
		},
		DeleteSample: func(i int) { c.QueryPresenter.DeleteSample(i) },
		Exit:         a.exitHandler,
	})
	c.WirePresenters(ctx, a.scheduleUpdate)
	c.RootView.SetCameraActive(false)
	c.QueryPresenter.Refresh()
	c.QueryPresenter.SetConfidence(presenter.ConfidenceToSlider(a.cfg.Query.Confidence))

	c.Engine.Start(ctx)

	a.scheduleUpdate()
	App.Wait()
}

func (a *app) update() {
	if a.closing {
		return
	}
	a.c.Loop.Tick()
}

func (a *app) scheduleUpdate() {
	// TclAfter keeps every widget update on Tk's event loop thread.
	a.afterID = TclAfter(a.cfg.UI.Tick, func() { a.update() })
}

func (a *app) exitHandler() {
	if a.closing {
		return
	}
	a.closing = true
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.c.CapturePresenter.Disable()
	if a.cancel != nil {
		a.cancel()
	}
	if err := a.c.Engine.Shutdown(); err != nil {
		a.logger.Warn("shutdown", "error", err)
	}
	Destroy(App)
}
