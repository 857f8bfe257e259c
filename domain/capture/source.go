package capture

import (
	"errors"
	"image"
)

var (
	// ErrDeviceUnavailable means the device is missing, busy or failed to open.
	// It stops the capture loop.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrEndOfStream means a finite source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrNoFrame is a transient read miss; the loop retries.
	ErrNoFrame = errors.New("no frame available")
)

// Source yields frames at its own pace. Open may be called again after Close.
type Source interface {
	Open() error
	Read() (*image.RGBA, error)
	Close() error
	Name() string
}
