package presenter

import (
	"errors"
	"fmt"
	"testing"

	cap "github.com/soocke/promptcam/domain/capture"
)

type mockModel struct {
	enabled bool
	fault   error
}

func (m *mockModel) Enabled() bool      { return m.enabled }
func (m *mockModel) SetEnabled(b bool)  { m.enabled = b }
func (m *mockModel) Fault() error       { return m.fault }
func (m *mockModel) SetFault(err error) { m.fault = err }

// mockService implements capture.CaptureService.
type mockService struct {
	started, stopped int
	startErr         error
	err              error
	exited           bool
}

func (s *mockService) Start() error {
	s.started++
	return s.startErr
}
func (s *mockService) Stop()                   { s.stopped++ }
func (s *mockService) Running() bool           { return s.started > s.stopped && !s.exited && s.startErr == nil }
func (s *mockService) Err() error              { return s.err }
func (s *mockService) Stats() cap.CaptureStats { return cap.CaptureStats{} }

var _ cap.CaptureService = (*mockService)(nil)

type mockQueue struct{ drained int }

func (q *mockQueue) Drain() int { q.drained++; return 0 }

type mockView struct {
	reset      int
	active     bool
	statuses   []string
	saveEnable bool
}

func (v *mockView) PreviewReset()          { v.reset++ }
func (v *mockView) SetCameraActive(b bool) { v.active = b }
func (v *mockView) SetStatus(s string)     { v.statuses = append(v.statuses, s) }
func (v *mockView) SetSaveEnabled(b bool)  { v.saveEnable = b }
func (v *mockView) lastStatus() string {
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1]
}

func TestCapturePresenter_EnableDisable_Idempotent(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	q := &mockQueue{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, q, view, nil)

	// Enable
	p.Enable()
	if !m.Enabled() || svc.started != 1 || !view.active || view.lastStatus() != StatusCameraOn {
		t.Fatalf("enable failed: enabled=%v started=%d active=%v status=%q", m.Enabled(), svc.started, view.active, view.lastStatus())
	}
	// Enable again idempotent
	p.Enable()
	if svc.started != 1 || len(view.statuses) != 1 {
		t.Fatalf("enable not idempotent: started=%d statuses=%v", svc.started, view.statuses)
	}

	// Disable
	p.Disable()
	if m.Enabled() || svc.stopped != 1 || q.drained != 1 || view.reset != 1 || view.active || view.lastStatus() != StatusCameraOff {
		t.Fatalf("disable failed: enabled=%v stopped=%d drained=%d reset=%d active=%v status=%q", m.Enabled(), svc.stopped, q.drained, view.reset, view.active, view.lastStatus())
	}
	// Disable again idempotent
	p.Disable()
	if svc.stopped != 1 || q.drained != 1 || view.reset != 1 {
		t.Fatalf("disable not idempotent: stopped=%d drained=%d reset=%d", svc.stopped, q.drained, view.reset)
	}
}

func TestCapturePresenter_Toggle(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, &mockQueue{}, view, nil)
	p.Toggle() // enable path
	if !m.Enabled() || svc.started != 1 {
		t.Fatalf("toggle enable failed")
	}
	p.Toggle() // disable path
	if m.Enabled() || svc.stopped != 1 || view.reset != 1 {
		t.Fatalf("toggle disable failed")
	}
}

func TestCapturePresenter_OpenFailureShowsNoSignal(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{startErr: fmt.Errorf("open camera 0: %w", cap.ErrDeviceUnavailable)}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, &mockQueue{}, view, nil)
	p.Enable()
	if !m.Enabled() || !errors.Is(m.Fault(), cap.ErrDeviceUnavailable) {
		t.Fatalf("expected enabled with device fault, got enabled=%v fault=%v", m.Enabled(), m.Fault())
	}
	if view.lastStatus() != StatusNoSignal {
		t.Fatalf("status = %q, want %q", view.lastStatus(), StatusNoSignal)
	}
	p.Disable()
	if m.Fault() != nil {
		t.Fatalf("disable should clear the fault")
	}
}

func TestCapturePresenter_TickDetectsExitedLoop(t *testing.T) {
	m := &mockModel{}
	svc := &mockService{}
	view := &mockView{}
	p := NewCapturePresenter(m, svc, &mockQueue{}, view, nil)
	p.Enable()
	p.Tick()
	if m.Fault() != nil {
		t.Fatalf("running service must not fault")
	}

	svc.exited = true
	svc.err = fmt.Errorf("read: %w", cap.ErrEndOfStream)
	p.Tick()
	if !errors.Is(m.Fault(), cap.ErrEndOfStream) || view.lastStatus() != StatusStreamEnded {
		t.Fatalf("fault=%v status=%q", m.Fault(), view.lastStatus())
	}
	n := len(view.statuses)
	p.Tick()
	if len(view.statuses) != n {
		t.Fatalf("fault reported twice")
	}
}

func TestCapturePresenter_NilSafe(t *testing.T) {
	var p *CapturePresenter
	p.Enable()
	p.Disable()
	p.Toggle()
	p.Tick()
}
