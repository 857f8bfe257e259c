package view

import (
	"image"
	"log/slog"

	"github.com/soocke/promptcam/config"
	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/presenter"
	"github.com/soocke/promptcam/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are invoked on user actions. Nil entries are ignored.
type Handlers struct {
	Query        QueryHandlers
	Pointer      PointerHandlers
	DeleteSample func(index int)
	Exit         func()
}

// RootView composes the top-level application layout and wires UI callbacks.
// It implements every presenter view contract by delegating to its subviews.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	// Subviews
	Video       VideoView
	Query       QueryPanel
	Samples     SamplesStrip
	Status      StatusBar
	ConfigPanel ConfigPanel
	Overlay     SelectionOverlay
}

// NewRootView creates the view. The region overlay exists before Build so
// the capture source can read the configured region at startup.
func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger, onRegion func(image.Rectangle)) *RootView {
	rv := &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
	rv.Overlay = NewSelectionOverlay(cfg, cfgPath, logger, onRegion)
	return rv
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	App.WmTitle(rv.cfg.UI.Title)
	if h.Exit != nil {
		WmProtocol(App, "WM_DELETE_WINDOW", h.Exit)
	}
	GridColumnConfigure(App, 0, Weight(1))
	Bind(App, "<F2>", Command(func() { theme.ToggleDark() }))
	palette := theme.CurrentPalette()

	// Row 0: preview and controls
	main := Frame()
	Grid(main, Row(0), Column(0), Sticky("nsew"), Padx("0.4m"), Pady("0.4m"))
	videoFrame := Frame(Background(theme.ColorPreviewBg))
	Grid(videoFrame, In(main), Row(0), Column(0), Sticky("nw"))
	rv.Video = NewVideoView(videoFrame, geometry.Size{W: rv.cfg.UI.PreviewWidth, H: rv.cfg.UI.PreviewHeight}, h.Pointer)

	controls := Frame()
	Grid(controls, In(main), Row(0), Column(1), Sticky("nsew"), Padx("0.6m"))
	q := h.Query
	if q.SelectRegion == nil && rv.Overlay != nil {
		q.SelectRegion = rv.Overlay.OpenOrFocus
	}
	var row int
	rv.Query, row = NewQueryPanel(controls, 0, rv.cfg.Query.Prompt, rv.cfg.Query.Confidence, q)

	settings := TLabel(Txt("Settings"), Anchor("w"), Style(theme.StyleMutedLabel))
	Grid(settings, In(controls), Row(row), Column(0), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.6m"))
	row++
	settingsFrame := Frame()
	Grid(settingsFrame, In(controls), Row(row), Column(0), Columnspan(3), Sticky("we"))
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, rv.SetStatus)
	rv.ConfigPanel.Build(settingsFrame, 0)

	// Row 1: samples
	strip := Frame(Borderwidth(1), Relief("groove"), Background(palette.Surface))
	Grid(strip, Row(1), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.Samples = NewSamplesStrip(strip, h.DeleteSample)

	// Row 2: status bar
	bar := Frame()
	Grid(bar, Row(2), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	GridColumnConfigure(bar.Window, 1, Weight(1))
	rv.Status = NewStatusBar(bar, 0, 0)
}

// Prompt returns the current prompt text.
func (rv *RootView) Prompt() string {
	if rv == nil || rv.Query == nil {
		return ""
	}
	return rv.Query.Prompt()
}

// --- CaptureView ---

// PreviewReset clears the video surface.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.Video != nil {
		rv.Video.Reset()
	}
}

// SetCameraActive flips the camera button and locks the settings form while
// the camera runs.
func (rv *RootView) SetCameraActive(active bool) {
	if rv == nil {
		return
	}
	if rv.Query != nil {
		rv.Query.SetCameraActive(active)
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(!active)
	}
}

func (rv *RootView) SetStatus(s string) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetStatus(s)
	}
}

// --- FrameView ---

func (rv *RootView) Surface() geometry.Size {
	if rv == nil || rv.Video == nil {
		return geometry.Size{}
	}
	return rv.Video.Surface()
}

func (rv *RootView) ShowFrame(png []byte) {
	if rv != nil && rv.Video != nil {
		rv.Video.ShowFrame(png)
	}
}

// --- SelectionView ---

func (rv *RootView) SetSaveEnabled(b bool) {
	if rv != nil && rv.Query != nil {
		rv.Query.SetSaveEnabled(b)
	}
}

// SetLabel reflects the active sample label on the label buttons.
func (rv *RootView) SetLabel(l query.Label) {
	if rv != nil && rv.Query != nil {
		rv.Query.SetLabel(l)
	}
}

// --- QueryView ---

func (rv *RootView) SetSummary(s string) {
	if rv != nil && rv.Query != nil {
		rv.Query.SetSummary(s)
	}
}

func (rv *RootView) SetConfidenceLabel(s string) {
	if rv != nil && rv.Query != nil {
		rv.Query.SetConfidenceLabel(s)
	}
}

func (rv *RootView) SetSamples(tiles []presenter.SampleTile, count string) {
	if rv != nil && rv.Samples != nil {
		rv.Samples.SetSamples(tiles, count)
	}
}

// --- ModelView ---

func (rv *RootView) SetReloadEnabled(b bool) {
	if rv != nil && rv.Query != nil {
		rv.Query.SetReloadEnabled(b)
	}
}

// --- StatsView ---

func (rv *RootView) SetStats(s string) {
	if rv != nil && rv.Status != nil {
		rv.Status.SetStats(s)
	}
}
