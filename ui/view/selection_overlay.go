package view

import (
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/soocke/promptcam/config"
	"github.com/soocke/promptcam/domain/geometry"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// SelectionOverlay is a transparent, resizable window used to pick the
// screen region captured by the screen source. The confirmed rectangle is
// stored in the config as a geometry string.
type SelectionOverlay interface {
	OpenOrFocus()
	Clear()
	ActiveRect() *image.Rectangle
}

type selectionOverlay struct {
	logger    *slog.Logger
	cfg       *config.Config
	cfgPath   string
	selection atomic.Value // stores image.Rectangle
	win       *ToplevelWidget
	onChange  func(image.Rectangle)
}

// NewSelectionOverlay creates a new overlay manager seeded from the
// configured region. onChange runs after confirm or clear and may be nil.
func NewSelectionOverlay(cfg *config.Config, cfgPath string, logger *slog.Logger, onChange func(image.Rectangle)) SelectionOverlay {
	v := &selectionOverlay{logger: logger, cfg: cfg, cfgPath: cfgPath, onChange: onChange}
	if cfg != nil {
		if rect, ok := cfg.ScreenRegion(); ok {
			v.selection.Store(rect)
		}
	}
	return v
}

const (
	overlayScreenW = 1920
	overlayScreenH = 1080
	overlayKey     = "#008080"
)

func (v *selectionOverlay) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background(overlayKey))
	win.WmTitle("Capture Region")
	v.win = win
	initial := image.Rect(0, 0, overlayScreenW*2/3, overlayScreenH*5/9).
		Add(image.Pt(overlayScreenW/6, overlayScreenH*2/9))
	if r := v.ActiveRect(); r != nil {
		initial = *r
	}
	WmGeometry(win.Window, geometry.FormatGeometry(initial))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-transparentcolor", overlayKey)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background(overlayKey))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Confirm [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clear := win.Button(Txt("Full Screen"), Command(func() { v.Clear(); v.destroy() }))
	Grid(clear, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
}

// Clear drops the region so the whole screen is captured again.
func (v *selectionOverlay) Clear() {
	v.store(image.Rectangle{})
}

func (v *selectionOverlay) confirm() {
	if v.win == nil {
		return
	}
	if rect, ok := geometry.ParseGeometry(WmGeometry(v.win.Window)); ok {
		v.store(rect)
	} else if v.logger != nil {
		v.logger.Warn("capture region geometry not understood")
	}
	v.destroy()
}

func (v *selectionOverlay) store(rect image.Rectangle) {
	v.selection.Store(rect)
	region := ""
	if !rect.Empty() {
		region = geometry.FormatGeometry(rect)
	}
	if v.cfg != nil {
		v.cfg.Source.Region = region
		if err := v.cfg.Save(v.cfgPath); err != nil && v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	}
	if v.logger != nil {
		v.logger.Info("capture region", "region", region)
	}
	if v.onChange != nil {
		v.onChange(rect)
	}
}

func (v *selectionOverlay) cancel() { v.destroy() }

func (v *selectionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *selectionOverlay) ActiveRect() *image.Rectangle {
	rv := v.selection.Load()
	if rv == nil {
		return nil
	}
	r, ok := rv.(image.Rectangle)
	if !ok || r.Empty() {
		return nil
	}
	return &r
}
