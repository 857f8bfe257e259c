package presenter

import (
	"context"
	"log/slog"
	"sync/atomic"
)

const StatusReloading = "Reloading model..."

// ModelLoader reloads the configured recognition model.
type ModelLoader interface {
	LoadModel(ctx context.Context) error
}

// ModelView shows reload progress.
type ModelView interface {
	SetStatus(string)
	SetReloadEnabled(bool)
}

// ModelPresenter runs model reloads off the UI thread. The result is picked
// up by Tick so the view is only touched from the UI thread.
type ModelPresenter struct {
	ctx    context.Context
	loader ModelLoader
	view   ModelView
	logger *slog.Logger

	busy atomic.Bool
	done chan error
}

func NewModelPresenter(ctx context.Context, loader ModelLoader, view ModelView, logger *slog.Logger) *ModelPresenter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &ModelPresenter{ctx: ctx, loader: loader, view: view, logger: logger, done: make(chan error, 1)}
}

// Reload starts a background load. It reports false while one is running.
func (p *ModelPresenter) Reload() bool {
	if p == nil || p.loader == nil {
		return false
	}
	if !p.busy.CompareAndSwap(false, true) {
		return false
	}
	if p.view != nil {
		p.view.SetReloadEnabled(false)
		p.view.SetStatus(StatusReloading)
	}
	go func() {
		p.done <- p.loader.LoadModel(p.ctx)
	}()
	return true
}

// Busy reports whether a reload is in flight.
func (p *ModelPresenter) Busy() bool { return p != nil && p.busy.Load() }

// Tick applies a finished reload. A successful load shows up through the
// worker status, so only failures are reported here.
func (p *ModelPresenter) Tick() {
	if p == nil {
		return
	}
	select {
	case err := <-p.done:
		p.busy.Store(false)
		if p.view != nil {
			p.view.SetReloadEnabled(true)
		}
		if err != nil {
			if p.view != nil {
				p.view.SetStatus("Load failed: " + err.Error())
			}
			if p.logger != nil {
				p.logger.Warn("model.reload", "error", err)
			}
			return
		}
		if p.logger != nil {
			p.logger.Info("model.reload")
		}
	default:
	}
}
