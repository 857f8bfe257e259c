package view

import (
	"github.com/soocke/promptcam/ui/theme"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// StatusBar shows the last user-facing status message and the pipeline
// counters line.
type StatusBar interface {
	SetStatus(s string)
	SetStats(s string)
}

type statusBar struct {
	statusLbl *TLabelWidget
	statsLbl  *TLabelWidget
}

// NewStatusBar creates the two labels in a grid layout. The status label is
// placed at (row, startCol) and the stats label at (row, startCol+1).
func NewStatusBar(parent *FrameWidget, row, startCol int) StatusBar {
	s := &statusBar{
		statusLbl: TLabel(Anchor("w"), Width(40), Style(theme.StyleStateLabel)),
		statsLbl:  TLabel(Anchor("e"), Style(theme.StyleAccentLabel)),
	}
	Grid(s.statusLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
	Grid(s.statsLbl, In(parent), Row(row), Column(startCol+1), Sticky("e"), Padx("0.2m"))
	s.statusLbl.Configure(Txt("Camera off"))
	return s
}

func (s *statusBar) SetStatus(text string) {
	if s == nil || s.statusLbl == nil {
		return
	}
	s.statusLbl.Configure(Txt(text))
}

func (s *statusBar) SetStats(text string) {
	if s == nil || s.statsLbl == nil {
		return
	}
	s.statsLbl.Configure(Txt(text))
}
