package model

import (
	"image"
	"sync"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

// Pending is a validated selection waiting for SAVE.
type Pending struct {
	Box   geometry.BoundingBox
	Crop  *image.RGBA
	Label query.Label
}

// SelectionModel holds the in-progress drag, the pending selection and the
// label mode chosen by the radio buttons. New models start in Positive mode.
type SelectionModel struct {
	mu       sync.Mutex
	dragging bool
	start    image.Point
	current  image.Point
	pending  *Pending
	label    query.Label
}

func NewSelectionModel() *SelectionModel {
	return &SelectionModel{label: query.Positive}
}

// BeginDrag starts a gesture at (x, y).
func (m *SelectionModel) BeginDrag(x, y int) {
	m.mu.Lock()
	m.dragging = true
	m.start = image.Pt(x, y)
	m.current = m.start
	m.mu.Unlock()
}

// UpdateDrag moves the free corner. It reports false when no drag is active.
func (m *SelectionModel) UpdateDrag(x, y int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return false
	}
	m.current = image.Pt(x, y)
	return true
}

// EndDrag finishes the gesture and returns the dragged rectangle.
func (m *SelectionModel) EndDrag() (geometry.ScreenRect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return geometry.ScreenRect{}, false
	}
	m.dragging = false
	return geometry.Drag(m.start.X, m.start.Y, m.current.X, m.current.Y), true
}

// Dragging returns the live rectangle while a gesture is in progress.
func (m *SelectionModel) Dragging() (geometry.ScreenRect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dragging {
		return geometry.ScreenRect{}, false
	}
	return geometry.Drag(m.start.X, m.start.Y, m.current.X, m.current.Y), true
}

// SetPending replaces the pending selection.
func (m *SelectionModel) SetPending(p Pending) {
	m.mu.Lock()
	m.pending = &p
	m.mu.Unlock()
}

// Pending returns the selection waiting for SAVE.
func (m *SelectionModel) Pending() (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Pending{}, false
	}
	return *m.pending, true
}

// TakePending returns and clears the pending selection.
func (m *SelectionModel) TakePending() (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Pending{}, false
	}
	p := *m.pending
	m.pending = nil
	return p, true
}

// ClearPending drops the pending selection.
func (m *SelectionModel) ClearPending() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

func (m *SelectionModel) Label() query.Label {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.label
}

func (m *SelectionModel) SetLabel(l query.Label) {
	m.mu.Lock()
	m.label = l
	m.mu.Unlock()
}
