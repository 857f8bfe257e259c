//go:build gocv

package capture

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/promptcam/domain/frame"
)

// CameraSource reads from a local video device through OpenCV.
type CameraSource struct {
	Device int

	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// NewCameraSource returns a source for the given device index.
func NewCameraSource(device int) *CameraSource { return &CameraSource{Device: device} }

func (c *CameraSource) Name() string { return fmt.Sprintf("camera:%d", c.Device) }

func (c *CameraSource) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	vc, err := gocv.VideoCaptureDevice(c.Device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %w", ErrDeviceUnavailable, c.Device, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return fmt.Errorf("%w: device %d not opened", ErrDeviceUnavailable, c.Device)
	}
	c.vc = vc
	c.mat = gocv.NewMat()
	return nil
}

// Read returns ErrNoFrame for an empty grab. The capture loop turns a long
// run of those into ErrDeviceUnavailable, which is how an unplugged camera
// shows up.
func (c *CameraSource) Read() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.vc == nil {
		return nil, fmt.Errorf("%w: device %d closed", ErrDeviceUnavailable, c.Device)
	}
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrNoFrame
	}
	return matToRGBA(c.mat)
}

func (c *CameraSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return closeCapture(&c.vc, &c.mat)
}

// FileSource plays a video file once.
type FileSource struct {
	Path string

	mu  sync.Mutex
	vc  *gocv.VideoCapture
	mat gocv.Mat
}

// NewFileSource returns a source reading path.
func NewFileSource(path string) *FileSource { return &FileSource{Path: path} }

func (f *FileSource) Name() string { return "file:" + f.Path }

func (f *FileSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vc, err := gocv.VideoCaptureFile(f.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDeviceUnavailable, f.Path, err)
	}
	if !vc.IsOpened() {
		_ = vc.Close()
		return fmt.Errorf("%w: %s not opened", ErrDeviceUnavailable, f.Path)
	}
	f.vc = vc
	f.mat = gocv.NewMat()
	return nil
}

func (f *FileSource) Read() (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.vc == nil {
		return nil, fmt.Errorf("%w: %s closed", ErrDeviceUnavailable, f.Path)
	}
	if ok := f.vc.Read(&f.mat); !ok || f.mat.Empty() {
		return nil, ErrEndOfStream
	}
	return matToRGBA(f.mat)
}

func (f *FileSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return closeCapture(&f.vc, &f.mat)
}

func matToRGBA(m gocv.Mat) (*image.RGBA, error) {
	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(m, &rgba, gocv.ColorBGRToRGBA)
	img, err := rgba.ToImage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoFrame, err)
	}
	return frame.ToRGBA(img), nil
}

func closeCapture(vc **gocv.VideoCapture, mat *gocv.Mat) error {
	var err error
	if *vc != nil {
		err = (*vc).Close()
		*vc = nil
		_ = mat.Close()
	}
	return err
}
