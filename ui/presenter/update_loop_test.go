package presenter

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/soocke/promptcam/domain/pipeline"
	"github.com/soocke/promptcam/recognition"
)

type mockWorker struct {
	status string
	stats  pipeline.WorkerStats
}

func (w *mockWorker) Stats() pipeline.WorkerStats { return w.stats }
func (w *mockWorker) Status() string              { return w.status }

type mockDropped uint64

func (d mockDropped) Dropped() uint64 { return uint64(d) }

type mockStatsView struct {
	statuses []string
	stats    []string
}

func (v *mockStatsView) SetStatus(s string) { v.statuses = append(v.statuses, s) }
func (v *mockStatsView) SetStats(s string)  { v.stats = append(v.stats, s) }

func TestStatsPresenter_ForwardsStatusChanges(t *testing.T) {
	w := &mockWorker{status: pipeline.StatusLoading}
	view := &mockStatsView{}
	p := NewStatsPresenter(w, mockDropped(3), nil, view)
	now := time.Now()
	p.Tick(now)
	p.Tick(now.Add(10 * time.Millisecond))
	if len(view.statuses) != 1 || view.statuses[0] != pipeline.StatusLoading {
		t.Fatalf("statuses = %v", view.statuses)
	}
	w.status = pipeline.StatusReady
	p.Tick(now.Add(20 * time.Millisecond))
	if view.statuses[len(view.statuses)-1] != pipeline.StatusReady {
		t.Fatalf("ready not forwarded: %v", view.statuses)
	}
	if len(view.stats) != 1 {
		t.Fatalf("stats line should refresh at most once per interval, got %d", len(view.stats))
	}
	p.Tick(now.Add(1100 * time.Millisecond))
	if len(view.stats) != 2 {
		t.Fatalf("stats line not refreshed after interval")
	}
	if !strings.Contains(view.stats[1], "dropped 3") {
		t.Fatalf("stats line = %q", view.stats[1])
	}
}

func TestStatsPresenter_ReportsCurrentResult(t *testing.T) {
	h := newFrameHarness()
	h.capture.SetEnabled(true)
	h.cell.Publish(pipeline.AnnotatedFrame{
		Frame:   solidFrame(10, 10, color.RGBA{A: 255}, 42),
		Mode:    recognition.ModeExemplar,
		Latency: 12 * time.Millisecond,
	})
	h.p.Render()
	view := &mockStatsView{}
	p := NewStatsPresenter(&mockWorker{stats: pipeline.WorkerStats{Failures: 2}}, nil, h.p, view)
	p.Tick(time.Now())
	want := "mode exemplar | 0 regions | 12 ms | frame 42 | dropped 0 | failed 2"
	if len(view.stats) != 1 || view.stats[0] != want {
		t.Fatalf("stats = %v, want %q", view.stats, want)
	}
}

func TestLoop_TickRendersAndReschedules(t *testing.T) {
	h := newFrameHarness()
	scheduled := 0
	l := NewLoop(nil, h.p, nil, func() { scheduled++ })
	l.Tick()
	l.Tick()
	if scheduled != 2 {
		t.Fatalf("scheduled = %d, want 2", scheduled)
	}
	if len(h.view.shown) != 1 {
		t.Fatalf("expected placeholder render, got %d", len(h.view.shown))
	}
	var nilLoop *Loop
	nilLoop.Tick()
}
