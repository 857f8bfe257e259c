package model

import (
	"sync"
	"sync/atomic"
)

// CaptureModel tracks whether capture is enabled and the last source fault.
// The zero value is disabled and usable. Concurrency-safe because UI
// callbacks and presenter ticks may race.
type CaptureModel struct {
	enabled atomic.Bool

	mu    sync.Mutex
	fault error
}

// Enabled reports whether capture is currently enabled.
func (m *CaptureModel) Enabled() bool {
	if m == nil {
		return false
	}
	return m.enabled.Load()
}

// SetEnabled stores the enabled flag. Enabling clears any previous fault.
func (m *CaptureModel) SetEnabled(b bool) {
	if m == nil {
		return
	}
	if m.enabled.Swap(b) == b { // no change
		return
	}
	if b {
		m.SetFault(nil)
	}
}

// Fault returns the error that stopped the source, if any.
func (m *CaptureModel) Fault() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fault
}

// SetFault records (or clears, with nil) the source error.
func (m *CaptureModel) SetFault(err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.fault = err
	m.mu.Unlock()
}
