package view

import (
	"log/slog"
	"strings"

	"github.com/soocke/promptcam/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the settings form. Edits are written to the
// config file and take effect on the next launch.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into a config copy and persists it
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by config key
	onStatus func(string)
}

// NewConfigPanel creates the view bound to cfg. onStatus receives the
// outcome of ApplyChanges and may be nil.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onStatus func(string)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget), onStatus: onStatus}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	row = startRow
	for _, f := range config.EditableFields {
		lbl := Label(Txt(f.Label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(18))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", v.cfg.FieldValue(f.Key))
		v.widgets[f.Key] = w
		row++
	}
	v.applyBtn = Button(Txt("Save Settings"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.Join(w.Get("1.0", END), "")
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	values := make(map[string]string, len(v.widgets))
	for key, w := range v.widgets {
		values[key] = v.text(w)
	}
	cfg, err := v.cfg.WithFields(values)
	if err != nil {
		v.report("Invalid settings: " + err.Error())
		return
	}
	*v.cfg = *cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		v.report("Settings not saved")
		return
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	v.report("Settings saved, restart to apply")
}

func (v *configPanel) report(s string) {
	if v.onStatus != nil {
		v.onStatus(s)
	}
}
