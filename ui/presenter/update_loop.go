package presenter

import "time"

// Loop aggregates feature presenters and drives periodic updates.
//
// It calls Tick/Render on the sub-presenters and invokes a scheduler
// callback. The zero value is usable (methods are nil-safe).
type Loop struct {
	Capture  *CapturePresenter
	Frame    *FramePresenter
	Stats    *StatsPresenter
	Model    *ModelPresenter
	Schedule func()
}

func NewLoop(capture *CapturePresenter, frame *FramePresenter, stats *StatsPresenter, schedule func()) *Loop {
	return &Loop{Capture: capture, Frame: frame, Stats: stats, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	// Capture health first so a dead source shows its placeholder this tick.
	l.Capture.Tick()
	l.Frame.Render()
	l.Model.Tick()
	l.Stats.Tick(now)
	if l.Schedule != nil {
		l.Schedule()
	}
}
