package pipeline

import (
	"image"
	"sync"
	"time"

	"github.com/soocke/promptcam/domain/frame"
	"github.com/soocke/promptcam/recognition"
)

// AnnotatedFrame is one published pipeline result. Overlay is nil when the
// frame was passed through unannotated.
type AnnotatedFrame struct {
	Frame   frame.Frame
	Overlay image.Image
	Regions []recognition.Region
	Mode    recognition.Mode
	Latency time.Duration
}

// Annotated reports whether recognition output is attached.
func (a AnnotatedFrame) Annotated() bool { return a.Overlay != nil }

// Image returns the overlay when present, else the raw frame.
func (a AnnotatedFrame) Image() image.Image {
	if a.Overlay != nil {
		return a.Overlay
	}
	if a.Frame.Image == nil {
		return nil
	}
	return a.Frame.Image
}

// Publisher receives worker output. The worker is the only caller.
type Publisher interface {
	Publish(AnnotatedFrame)
}

// LatestCell holds the most recently published result. Each Publish replaces
// the previous value wholesale.
type LatestCell struct {
	mu      sync.Mutex
	latest  AnnotatedFrame
	version uint64
}

// Publish stores a new result.
func (c *LatestCell) Publish(a AnnotatedFrame) {
	c.mu.Lock()
	c.latest = a
	c.version++
	c.mu.Unlock()
}

// Latest returns the current result and its version (0 before any publish).
func (c *LatestCell) Latest() (AnnotatedFrame, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest, c.version
}

// Since returns the current result if it is newer than version.
func (c *LatestCell) Since(version uint64) (AnnotatedFrame, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.version == version {
		return AnnotatedFrame{}, version, false
	}
	return c.latest, c.version, true
}
