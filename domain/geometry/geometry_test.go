package geometry

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	tests := []struct {
		name    string
		frame   Size
		surface Size
		want    DisplayRect
	}{
		{"pillarbox", Size{640, 480}, Size{1000, 480}, DisplayRect{X: 180, Y: 0, W: 640, H: 480}},
		{"letterbox", Size{1280, 720}, Size{750, 560}, DisplayRect{X: 0, Y: 69, W: 750, H: 422}},
		{"upscale", Size{320, 240}, Size{640, 480}, DisplayRect{X: 0, Y: 0, W: 640, H: 480}},
		{"empty frame", Size{}, Size{100, 100}, DisplayRect{}},
		{"empty surface", Size{10, 10}, Size{0, 5}, DisplayRect{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fit(tt.frame, tt.surface))
		})
	}
}

func TestFit_ContainedAndAspectPreserved(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		frame := Size{W: 1 + rng.Intn(4000), H: 1 + rng.Intn(3000)}
		surface := Size{W: 1 + rng.Intn(2000), H: 1 + rng.Intn(2000)}
		d := Fit(frame, surface)
		require.False(t, d.Empty(), "frame=%v surface=%v", frame, surface)
		require.True(t, d.X >= 0 && d.Y >= 0 && d.X+d.W <= surface.W && d.Y+d.H <= surface.H,
			"display %v escapes surface %v", d, surface)
		// one side touches the surface
		assert.True(t, d.W == surface.W || d.H == surface.H, "display %v not maximal in %v", d, surface)
	}
}

func TestRoundTrip_WithinOnePixel(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		orig := Size{W: 20 + rng.Intn(2000), H: 20 + rng.Intn(1500)}
		d := Fit(orig, Size{W: 50 + rng.Intn(1500), H: 50 + rng.Intn(1500)})
		d.X += rng.Intn(30)
		d.Y += rng.Intn(30)
		x1 := rng.Intn(orig.W - MinSelectionPx)
		y1 := rng.Intn(orig.H - MinSelectionPx)
		b := BoundingBox{
			X1: x1, Y1: y1,
			X2: x1 + MinSelectionPx + rng.Intn(orig.W-x1-MinSelectionPx+1),
			Y2: y1 + MinSelectionPx + rng.Intn(orig.H-y1-MinSelectionPx+1),
		}
		require.True(t, b.Valid(orig))
		got, ok := ToOriginal(ToDisplay(b, d, orig), d, orig)
		require.True(t, ok, "box %v lost (d=%v orig=%v)", b, d, orig)
		assert.InDelta(t, b.X1, got.X1, 1)
		assert.InDelta(t, b.Y1, got.Y1, 1)
		assert.InDelta(t, b.X2, got.X2, 1)
		assert.InDelta(t, b.Y2, got.Y2, 1)
	}
}

func TestToOriginal_OffsetScaleAndClamp(t *testing.T) {
	orig := Size{W: 1280, H: 720}
	d := DisplayRect{X: 0, Y: 69, W: 640, H: 360}

	box, ok := ToOriginal(Drag(100, 169, 50, 119), d, orig)
	require.True(t, ok)
	assert.Equal(t, BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 200}, box)

	// drag that starts in the letterbox bar is clamped into the frame
	box, ok = ToOriginal(Drag(-20, 0, 40, 100), d, orig)
	require.True(t, ok)
	assert.Equal(t, 0, box.X1)
	assert.Equal(t, 0, box.Y1)
	assert.True(t, box.Valid(orig))
}

func TestToOriginal_RejectsSmallSelections(t *testing.T) {
	orig := Size{W: 100, H: 100}
	d := DisplayRect{W: 100, H: 100}
	tests := []struct {
		name string
		rect ScreenRect
		ok   bool
	}{
		{"degenerate point", Drag(5, 5, 5, 5), false},
		{"9px wide", Drag(10, 10, 19, 40), false},
		{"9px tall", Drag(10, 10, 40, 19), false},
		{"exactly 10px", Drag(10, 10, 20, 20), true},
		{"outside frame", Drag(150, 150, 190, 190), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box, ok := ToOriginal(tt.rect, d, orig)
			assert.Equal(t, tt.ok, ok)
			if !ok {
				assert.Equal(t, BoundingBox{}, box)
			}
		})
	}
}

func TestToOriginal_DownscaledMinimumIsInFrameSpace(t *testing.T) {
	// 4x downscale: a 4px screen drag is 16 frame px and is accepted,
	// a 2px drag is 8 frame px and is rejected.
	orig := Size{W: 400, H: 400}
	d := DisplayRect{W: 100, H: 100}
	_, ok := ToOriginal(Drag(10, 10, 14, 14), d, orig)
	assert.True(t, ok)
	_, ok = ToOriginal(Drag(10, 10, 12, 12), d, orig)
	assert.False(t, ok)
}

func TestToOriginal_DegenerateDisplay(t *testing.T) {
	_, ok := ToOriginal(Drag(0, 0, 50, 50), DisplayRect{}, Size{W: 10, H: 10})
	assert.False(t, ok)
}

func TestToDisplay(t *testing.T) {
	r := ToDisplay(BoundingBox{X1: 100, Y1: 100, X2: 200, Y2: 200}, DisplayRect{X: 0, Y: 69, W: 640, H: 360}, Size{W: 1280, H: 720})
	assert.Equal(t, ScreenRect{X1: 50, Y1: 119, X2: 100, Y2: 169}, r)
	assert.Equal(t, 50, r.Rect().Min.X)
}

func TestBoundingBox_IoU(t *testing.T) {
	a := Box(0, 0, 10, 10)
	assert.InDelta(t, 1.0, a.IoU(a), 1e-9)
	assert.InDelta(t, 0.0, a.IoU(Box(20, 20, 30, 30)), 1e-9)
	assert.InDelta(t, 25.0/175.0, a.IoU(Box(5, 5, 15, 15)), 1e-9)
	assert.Equal(t, Box(1, 2, 3, 4), Box(3, 4, 1, 2))
}

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		in   string
		want image.Rectangle
		ok   bool
	}{
		{"640x480+100+50", image.Rect(100, 50, 740, 530), true},
		{" 10x20+-5+-7 ", image.Rect(-5, -7, 5, 13), true},
		{"0x480+0+0", image.Rectangle{}, false},
		{"640x480", image.Rectangle{}, false},
		{"", image.Rectangle{}, false},
		{"axb+1+2", image.Rectangle{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseGeometry(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	r := image.Rect(3, 4, 103, 54)
	back, ok := ParseGeometry(FormatGeometry(r))
	require.True(t, ok)
	assert.Equal(t, r, back)
}
