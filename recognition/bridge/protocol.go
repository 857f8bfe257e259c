package bridge

import (
	"fmt"
	"image"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/recognition"
)

const (
	opLoad  = "load"
	opInfer = "infer"
	opClose = "close"

	// PixelFormat is the only image layout sent to workers: packed 8-bit RGB,
	// row-major, no padding.
	PixelFormat = "rgb24"
)

// request is one message to the worker. Unused fields are omitted.
type request struct {
	ID         string   `msgpack:"id"`
	Op         string   `msgpack:"op"`
	Model      string   `msgpack:"model,omitempty"`
	Width      int      `msgpack:"width,omitempty"`
	Height     int      `msgpack:"height,omitempty"`
	Format     string   `msgpack:"format,omitempty"`
	Pixels     []byte   `msgpack:"pixels,omitempty"`
	Terms      []string `msgpack:"terms,omitempty"`
	Boxes      [][4]int `msgpack:"boxes,omitempty"`
	Labels     []int    `msgpack:"labels,omitempty"`
	Confidence float64  `msgpack:"confidence,omitempty"`
}

type response struct {
	ID      string       `msgpack:"id"`
	OK      bool         `msgpack:"ok"`
	Error   string       `msgpack:"error,omitempty"`
	Device  string       `msgpack:"device,omitempty"`
	Regions []wireRegion `msgpack:"regions,omitempty"`
}

// wireRegion carries an optional mask covering exactly Box, one byte per
// pixel, row-major.
type wireRegion struct {
	Box   [4]int  `msgpack:"box"`
	Score float64 `msgpack:"score"`
	Label string  `msgpack:"label"`
	Mask  []byte  `msgpack:"mask,omitempty"`
}

func inferRequest(img *image.RGBA, q recognition.Query) request {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Min.X, y)+w*4]
		for i := 0; i < len(row); i += 4 {
			pix = append(pix, row[i], row[i+1], row[i+2])
		}
	}
	return request{
		Op:         opInfer,
		Width:      w,
		Height:     h,
		Format:     PixelFormat,
		Pixels:     pix,
		Terms:      q.Terms,
		Boxes:      q.Boxes(),
		Labels:     q.Labels(),
		Confidence: q.Confidence,
	}
}

// toRegion validates a wire region against the frame it was computed on.
func (r wireRegion) toRegion(frame geometry.Size) (recognition.Region, error) {
	box := geometry.Box(r.Box[0], r.Box[1], r.Box[2], r.Box[3])
	if !box.Valid(frame) {
		return recognition.Region{}, fmt.Errorf("region %s outside %dx%d frame", box, frame.W, frame.H)
	}
	out := recognition.Region{Box: box, Label: r.Label, Score: r.Score}
	if len(r.Mask) > 0 {
		if len(r.Mask) != box.Width()*box.Height() {
			return recognition.Region{}, fmt.Errorf("mask for %s has %d bytes", box, len(r.Mask))
		}
		out.Mask = &image.Alpha{Pix: r.Mask, Stride: box.Width(), Rect: box.Rect()}
	}
	return out, nil
}
