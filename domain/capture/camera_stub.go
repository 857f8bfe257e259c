//go:build !gocv

package capture

import (
	"fmt"
	"image"
)

// CameraSource needs OpenCV; this build was made without the gocv tag so
// Open always reports the device as unavailable.
type CameraSource struct{ Device int }

func NewCameraSource(device int) *CameraSource { return &CameraSource{Device: device} }

func (c *CameraSource) Name() string { return fmt.Sprintf("camera:%d", c.Device) }
func (c *CameraSource) Open() error {
	return fmt.Errorf("%w: camera support requires building with -tags gocv", ErrDeviceUnavailable)
}
func (c *CameraSource) Read() (*image.RGBA, error) { return nil, ErrDeviceUnavailable }
func (c *CameraSource) Close() error               { return nil }

// FileSource needs OpenCV as well.
type FileSource struct{ Path string }

func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (f *FileSource) Name() string { return "file:" + f.Path }
func (f *FileSource) Open() error {
	return fmt.Errorf("%w: video files require building with -tags gocv", ErrDeviceUnavailable)
}
func (f *FileSource) Read() (*image.RGBA, error) { return nil, ErrDeviceUnavailable }
func (f *FileSource) Close() error               { return nil }
