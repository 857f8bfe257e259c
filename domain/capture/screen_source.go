package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// ScreenSource captures the primary screen, or the rectangle returned by
// Region when it is set and non-empty.
type ScreenSource struct {
	Region func() *image.Rectangle
}

// NewScreenSource returns a full-screen source.
func NewScreenSource() *ScreenSource { return &ScreenSource{} }

func (s *ScreenSource) Name() string { return "screen" }

func (s *ScreenSource) Open() error {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return fmt.Errorf("%w: screen: %w", ErrDeviceUnavailable, err)
	}
	if r.Empty() {
		return fmt.Errorf("%w: screen has no area", ErrDeviceUnavailable)
	}
	return nil
}

func (s *ScreenSource) Read() (*image.RGBA, error) {
	if s.Region != nil {
		if r := s.Region(); r != nil && !r.Empty() {
			img, err := screenshot.CaptureRect(*r)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
			}
			return img, nil
		}
	}
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	return img, nil
}

func (s *ScreenSource) Close() error { return nil }
