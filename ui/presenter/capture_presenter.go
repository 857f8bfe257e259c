package presenter

import (
	"errors"
	"log/slog"

	"github.com/soocke/promptcam/domain/capture"
)

const (
	StatusCameraOn    = "Camera on"
	StatusCameraOff   = "Camera off"
	StatusNoSignal    = "No signal"
	StatusStreamEnded = "Stream ended"
)

// CaptureModel provides enabled and fault state access.
type CaptureModel interface {
	Enabled() bool
	SetEnabled(bool)
	Fault() error
	SetFault(error)
}

// LifecycleContract narrows what presenter needs from the capture layer.
type LifecycleContract interface {
	Start() error
	Stop()
	Running() bool
	Err() error
}

// QueueDrainer discards frames still waiting for the worker.
type QueueDrainer interface {
	Drain() int
}

// CaptureView updates UI elements affected by capture toggling.
type CaptureView interface {
	PreviewReset()
	SetCameraActive(bool)
	SetStatus(string)
}

// CapturePresenter owns presentation logic for toggling capture state.
type CapturePresenter struct {
	model   CaptureModel
	service LifecycleContract // narrowed from full capture.CaptureService
	queue   QueueDrainer
	view    CaptureView
	logger  *slog.Logger
}

func NewCapturePresenter(model CaptureModel, service capture.CaptureService, queue QueueDrainer, view CaptureView, logger *slog.Logger) *CapturePresenter {
	return &CapturePresenter{model: model, service: service, queue: queue, view: view, logger: logger}
}

func (c *CapturePresenter) ready() bool {
	return c != nil && c.model != nil && c.service != nil && c.view != nil
}

// Enable starts the capture service. A source that fails to open leaves
// capture enabled with a fault so the preview reports "No signal". Idempotent.
func (c *CapturePresenter) Enable() {
	if !c.ready() || c.model.Enabled() {
		return
	}
	err := c.service.Start()
	c.model.SetEnabled(true)
	c.view.SetCameraActive(true)
	if err != nil {
		c.fault(err)
		return
	}
	c.view.SetStatus(StatusCameraOn)
}

// Disable stops the capture service, drops queued frames and resets the
// preview. Idempotent.
func (c *CapturePresenter) Disable() {
	if !c.ready() || !c.model.Enabled() {
		return
	}
	c.service.Stop()
	c.model.SetEnabled(false)
	c.model.SetFault(nil)
	if c.queue != nil {
		c.queue.Drain()
	}
	c.view.PreviewReset()
	c.view.SetCameraActive(false)
	c.view.SetStatus(StatusCameraOff)
}

// Toggle flips enabled state delegating to Enable/Disable.
func (c *CapturePresenter) Toggle() {
	if !c.ready() {
		return
	}
	if c.model.Enabled() {
		c.Disable()
		return
	}
	c.Enable()
}

// Tick notices a capture loop that exited on its own.
func (c *CapturePresenter) Tick() {
	if !c.ready() || !c.model.Enabled() || c.model.Fault() != nil {
		return
	}
	if c.service.Running() {
		return
	}
	err := c.service.Err()
	if err == nil {
		err = capture.ErrDeviceUnavailable
	}
	c.fault(err)
}

func (c *CapturePresenter) fault(err error) {
	c.model.SetFault(err)
	status := StatusNoSignal
	if errors.Is(err, capture.ErrEndOfStream) {
		status = StatusStreamEnded
	}
	c.view.SetStatus(status)
	if c.logger != nil {
		c.logger.Warn("capture.fault", "error", err)
	}
}
