package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/ui/presenter"
	"github.com/soocke/promptcam/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// QueryHandlers are the user actions raised by the query panel.
type QueryHandlers struct {
	SubmitPrompt      func(raw string)
	ConfidenceChanged func(slider float64)
	Apply             func(raw string, slider float64)
	SetLabel          func(query.Label)
	Save              func()
	Cancel            func()
	ClearSamples      func()
	ToggleCamera      func()
	SelectRegion      func()
	ReloadModel       func()
}

// QueryPanel holds the prompt, confidence, labeling and camera controls.
type QueryPanel interface {
	Prompt() string
	Slider() float64
	SetConfidenceLabel(string)
	SetSummary(string)
	SetSaveEnabled(bool)
	SetCameraActive(bool)
	SetLabel(query.Label)
	SetReloadEnabled(bool)
}

type queryPanel struct {
	prompt     *TextWidget
	confidence *TComboboxWidget
	confLbl    *LabelWidget
	summary    *LabelWidget
	positive   *TButtonWidget
	negative   *TButtonWidget
	saveBtn    *TButtonWidget
	cameraBtn  *TButtonWidget
	reloadBtn  *TButtonWidget
}

// confidenceSteps lists the selectable slider positions.
func confidenceSteps() []string {
	var out []string
	for s := presenter.SliderMin; s <= presenter.SliderMax; s += 5 {
		out = append(out, fmt.Sprintf("%.2f", float64(s)/100))
	}
	return out
}

// NewQueryPanel builds the panel into parent starting at row.
func NewQueryPanel(parent *FrameWidget, row int, prompt string, confidence float64, h QueryHandlers) (QueryPanel, int) {
	p := &queryPanel{}

	Grid(Label(Txt("Prompt"), Anchor("w")), In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.2m"))
	p.prompt = Text(Height(1), Width(24))
	Grid(p.prompt, In(parent), Row(row), Column(1), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	p.prompt.Insert("1.0", prompt)
	Bind(p.prompt, "<Return>", Command(func() {
		if h.SubmitPrompt != nil {
			h.SubmitPrompt(p.Prompt())
		}
	}))
	row++

	Grid(Label(Txt("Confidence"), Anchor("w")), In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.2m"))
	p.confidence = TCombobox(Values(confidenceSteps()), Width(6), State("readonly"))
	Grid(p.confidence, In(parent), Row(row), Column(1), Sticky("w"), Padx("0.4m"), Pady("0.2m"))
	p.confidence.Current(int(presenter.ConfidenceToSlider(confidence)-presenter.SliderMin) / 5)
	p.confLbl = Label(Txt(fmt.Sprintf("%.2f", confidence)), Width(6))
	Grid(p.confLbl, In(parent), Row(row), Column(2), Sticky("w"), Padx("0.4m"), Pady("0.2m"))
	Bind(p.confidence, "<<ComboboxSelected>>", Command(func() {
		if h.ConfidenceChanged != nil {
			h.ConfidenceChanged(p.Slider())
		}
	}))
	row++

	labels := Frame()
	Grid(labels, In(parent), Row(row), Column(0), Columnspan(3), Sticky("we"), Pady("0.2m"))
	p.positive = TButton(Txt("Positive"), Style(theme.StylePositive), Command(func() {
		p.SetLabel(query.Positive)
		if h.SetLabel != nil {
			h.SetLabel(query.Positive)
		}
	}))
	Grid(p.positive, In(labels), Row(0), Column(0), Sticky("we"), Padx("0.2m"))
	p.negative = TButton(Txt("Negative"), Command(func() {
		p.SetLabel(query.Negative)
		if h.SetLabel != nil {
			h.SetLabel(query.Negative)
		}
	}))
	Grid(p.negative, In(labels), Row(0), Column(1), Sticky("we"), Padx("0.2m"))
	row++

	actions := Frame()
	Grid(actions, In(parent), Row(row), Column(0), Columnspan(3), Sticky("we"), Pady("0.2m"))
	p.saveBtn = TButton(Txt("SAVE"), Style(theme.StylePrimaryButton), State("disabled"), Command(h.Save))
	Grid(p.saveBtn, In(actions), Row(0), Column(0), Sticky("we"), Padx("0.2m"))
	cancel := TButton(Txt("Cancel"), Command(h.Cancel))
	Grid(cancel, In(actions), Row(0), Column(1), Sticky("we"), Padx("0.2m"))
	clear := TButton(Txt("CLEAR ALL"), Style(theme.StyleDangerButton), Command(h.ClearSamples))
	Grid(clear, In(actions), Row(0), Column(2), Sticky("we"), Padx("0.2m"))
	apply := TButton(Txt("APPLY"), Style(theme.StylePrimaryButton), Command(func() {
		if h.Apply != nil {
			h.Apply(p.Prompt(), p.Slider())
		}
	}))
	Grid(apply, In(actions), Row(1), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	p.cameraBtn = TButton(Txt("START"), Command(h.ToggleCamera))
	Grid(p.cameraBtn, In(actions), Row(1), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	region := TButton(Txt("Region"), Command(h.SelectRegion))
	Grid(region, In(actions), Row(1), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	p.reloadBtn = TButton(Txt("Reload model"), Command(h.ReloadModel))
	Grid(p.reloadBtn, In(actions), Row(2), Column(0), Columnspan(3), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	row++

	p.summary = Label(Txt(""), Anchor("w"), Wraplength("60m"), Justify("left"))
	Grid(p.summary, In(parent), Row(row), Column(0), Columnspan(3), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++

	p.SetLabel(query.Positive)
	return p, row
}

// Prompt returns the prompt text without line breaks.
func (p *queryPanel) Prompt() string {
	if p == nil || p.prompt == nil {
		return ""
	}
	raw := strings.Join(p.prompt.Get("1.0", END), "")
	return strings.NewReplacer("\r", "", "\n", "").Replace(raw)
}

// Slider maps the selected step back to a SliderMin..SliderMax position.
func (p *queryPanel) Slider() float64 {
	if p == nil || p.confidence == nil {
		return presenter.SliderMin
	}
	idx, err := strconv.Atoi(p.confidence.Current(nil))
	if err != nil || idx < 0 {
		return presenter.SliderMin
	}
	return float64(presenter.SliderMin + 5*idx)
}

func (p *queryPanel) SetConfidenceLabel(s string) {
	if p != nil && p.confLbl != nil {
		p.confLbl.Configure(Txt(s))
	}
}

func (p *queryPanel) SetSummary(s string) {
	if p != nil && p.summary != nil {
		p.summary.Configure(Txt(s))
	}
}

func (p *queryPanel) SetSaveEnabled(b bool) {
	if p == nil || p.saveBtn == nil {
		return
	}
	if b {
		p.saveBtn.Configure(State("normal"))
		return
	}
	p.saveBtn.Configure(State("disabled"))
}

func (p *queryPanel) SetCameraActive(active bool) {
	if p == nil || p.cameraBtn == nil {
		return
	}
	if active {
		p.cameraBtn.Configure(Txt("STOP"), Style(theme.StyleDangerButton))
		return
	}
	p.cameraBtn.Configure(Txt("START"), Style(theme.StylePrimaryButton))
}

// SetLabel highlights the active label button.
func (p *queryPanel) SetLabel(l query.Label) {
	if p == nil || p.positive == nil || p.negative == nil {
		return
	}
	if l == query.Positive {
		p.positive.Configure(Style(theme.StylePositive))
		p.negative.Configure(Style("TButton"))
		return
	}
	p.positive.Configure(Style("TButton"))
	p.negative.Configure(Style(theme.StyleNegative))
}

func (p *queryPanel) SetReloadEnabled(b bool) {
	if p == nil || p.reloadBtn == nil {
		return
	}
	if b {
		p.reloadBtn.Configure(State("normal"))
		return
	}
	p.reloadBtn.Configure(State("disabled"))
}
