package model

import (
	"errors"
	"image"
	"testing"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

func TestCaptureModel_ZeroValueAndFault(t *testing.T) {
	var m CaptureModel
	if m.Enabled() || m.Fault() != nil {
		t.Fatalf("zero value should be disabled without fault")
	}
	m.SetEnabled(true)
	m.SetFault(errors.New("unplugged"))
	if m.Fault() == nil {
		t.Fatalf("fault not stored")
	}
	m.SetEnabled(true) // no change keeps fault
	if m.Fault() == nil {
		t.Fatalf("repeated enable cleared fault")
	}
	m.SetEnabled(false)
	m.SetEnabled(true)
	if m.Fault() != nil {
		t.Fatalf("re-enable should clear fault, got %v", m.Fault())
	}
	var nilModel *CaptureModel
	nilModel.SetEnabled(true)
	if nilModel.Enabled() {
		t.Fatalf("nil model must report disabled")
	}
}

func TestSelectionModel_DragLifecycle(t *testing.T) {
	m := NewSelectionModel()
	if m.Label() != query.Positive {
		t.Fatalf("default label = %v, want positive", m.Label())
	}
	if m.UpdateDrag(5, 5) {
		t.Fatalf("update without begin should be ignored")
	}
	m.BeginDrag(50, 40)
	m.UpdateDrag(10, 90)
	live, ok := m.Dragging()
	if !ok || live != geometry.Drag(10, 40, 50, 90) {
		t.Fatalf("live rect = %+v ok=%v", live, ok)
	}
	r, ok := m.EndDrag()
	if !ok || r.X1 != 10 || r.Y1 != 40 || r.X2 != 50 || r.Y2 != 90 {
		t.Fatalf("end rect = %+v ok=%v", r, ok)
	}
	if _, ok := m.Dragging(); ok {
		t.Fatalf("still dragging after end")
	}
	if _, ok := m.EndDrag(); ok {
		t.Fatalf("second EndDrag should report false")
	}
}

func TestSelectionModel_PendingReplaceAndTake(t *testing.T) {
	m := NewSelectionModel()
	if _, ok := m.Pending(); ok {
		t.Fatalf("new model has pending selection")
	}
	m.SetPending(Pending{Box: geometry.Box(0, 0, 20, 20), Crop: image.NewRGBA(image.Rect(0, 0, 20, 20))})
	m.SetPending(Pending{Box: geometry.Box(5, 5, 30, 30), Label: query.Negative})
	p, ok := m.TakePending()
	if !ok || p.Box != geometry.Box(5, 5, 30, 30) || p.Label != query.Negative {
		t.Fatalf("take = %+v ok=%v", p, ok)
	}
	if _, ok := m.Pending(); ok {
		t.Fatalf("pending not cleared by take")
	}
}
