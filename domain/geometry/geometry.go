// Package geometry converts between original-frame pixel space and the
// letterboxed rectangle a frame occupies on screen.
package geometry

import (
	"fmt"
	"image"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MinSelectionPx is the smallest accepted width/height of a selection in
// original-frame pixels.
const MinSelectionPx = 10

// Size is a width/height pair in pixels.
type Size struct{ W, H int }

// SizeOf returns the size of img bounds (zero for nil).
func SizeOf(img image.Image) Size {
	if img == nil {
		return Size{}
	}
	b := img.Bounds()
	return Size{W: b.Dx(), H: b.Dy()}
}

// Empty reports a non-positive dimension.
func (s Size) Empty() bool { return s.W <= 0 || s.H <= 0 }

// BoundingBox is a box in original-frame space. X2/Y2 are exclusive.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// Box builds a BoundingBox from two corners in any order.
func Box(x1, y1, x2, y2 int) BoundingBox {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func (b BoundingBox) Width() int  { return b.X2 - b.X1 }
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Rect returns the box as an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle { return image.Rect(b.X1, b.Y1, b.X2, b.Y2) }

// Valid reports whether the box has positive area and lies inside a frame of size s.
func (b BoundingBox) Valid(s Size) bool {
	return b.X1 >= 0 && b.Y1 >= 0 && b.X1 < b.X2 && b.Y1 < b.Y2 && b.X2 <= s.W && b.Y2 <= s.H
}

// Overlaps reports whether two boxes share any area.
func (b BoundingBox) Overlaps(o BoundingBox) bool { return b.Rect().Overlaps(o.Rect()) }

// IoU returns intersection over union of two boxes.
func (b BoundingBox) IoU(o BoundingBox) float64 {
	inter := b.Rect().Intersect(o.Rect())
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	ua := float64(b.Width()*b.Height()+o.Width()*o.Height()) - ia
	if ua <= 0 {
		return 0
	}
	return ia / ua
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", b.X1, b.Y1, b.X2, b.Y2)
}

// DisplayRect is where a frame is drawn inside the presentation surface.
type DisplayRect struct {
	X, Y, W, H int
}

// Empty reports a degenerate rectangle.
func (d DisplayRect) Empty() bool { return d.W <= 0 || d.H <= 0 }

// Rect returns the display rectangle as an image.Rectangle.
func (d DisplayRect) Rect() image.Rectangle { return image.Rect(d.X, d.Y, d.X+d.W, d.Y+d.H) }

// Contains reports whether p lies on the drawn frame.
func (d DisplayRect) Contains(p image.Point) bool { return p.In(d.Rect()) }

// Fit scales frame into surface preserving aspect ratio and centers it.
// The result is always contained in the surface.
func Fit(frame, surface Size) DisplayRect {
	if frame.Empty() || surface.Empty() {
		return DisplayRect{}
	}
	scale := math.Min(float64(surface.W)/float64(frame.W), float64(surface.H)/float64(frame.H))
	w := clampInt(int(math.Round(float64(frame.W)*scale)), 1, surface.W)
	h := clampInt(int(math.Round(float64(frame.H)*scale)), 1, surface.H)
	return DisplayRect{X: (surface.W - w) / 2, Y: (surface.H - h) / 2, W: w, H: h}
}

// ScreenRect is a rectangle in surface coordinates. Projected boxes keep
// sub-pixel precision; pointer gestures produce whole pixels.
type ScreenRect struct {
	X1, Y1, X2, Y2 float64
}

// Drag builds a ScreenRect from two pointer positions in any order.
func Drag(x0, y0, x1, y1 int) ScreenRect {
	return ScreenRect{
		X1: float64(min(x0, x1)), Y1: float64(min(y0, y1)),
		X2: float64(max(x0, x1)), Y2: float64(max(y0, y1)),
	}
}

// Rect rounds to whole pixels for drawing.
func (r ScreenRect) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.X1)), int(math.Round(r.Y1)),
		int(math.Round(r.X2)), int(math.Round(r.Y2)),
	)
}

// ToDisplay maps a frame-space box onto the surface.
func ToDisplay(box BoundingBox, d DisplayRect, orig Size) ScreenRect {
	if d.Empty() || orig.Empty() {
		return ScreenRect{}
	}
	sx := float64(d.W) / float64(orig.W)
	sy := float64(d.H) / float64(orig.H)
	return ScreenRect{
		X1: float64(box.X1)*sx + float64(d.X),
		Y1: float64(box.Y1)*sy + float64(d.Y),
		X2: float64(box.X2)*sx + float64(d.X),
		Y2: float64(box.Y2)*sy + float64(d.Y),
	}
}

// ToOriginal maps a surface rectangle back to frame space, clamped to the
// frame. ok is false when the result is smaller than MinSelectionPx.
func ToOriginal(screen ScreenRect, d DisplayRect, orig Size) (BoundingBox, bool) {
	return ToOriginalMin(screen, d, orig, MinSelectionPx)
}

// ToOriginalMin is ToOriginal with an explicit minimum side length.
func ToOriginalMin(screen ScreenRect, d DisplayRect, orig Size, minPx int) (BoundingBox, bool) {
	if d.Empty() || orig.Empty() {
		return BoundingBox{}, false
	}
	if minPx < 1 {
		minPx = 1
	}
	sx := float64(orig.W) / float64(d.W)
	sy := float64(orig.H) / float64(d.H)
	x1 := clampInt(int(math.Round((math.Min(screen.X1, screen.X2)-float64(d.X))*sx)), 0, orig.W)
	x2 := clampInt(int(math.Round((math.Max(screen.X1, screen.X2)-float64(d.X))*sx)), 0, orig.W)
	y1 := clampInt(int(math.Round((math.Min(screen.Y1, screen.Y2)-float64(d.Y))*sy)), 0, orig.H)
	y2 := clampInt(int(math.Round((math.Max(screen.Y1, screen.Y2)-float64(d.Y))*sy)), 0, orig.H)
	box := BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
	if box.Width() < minPx || box.Height() < minPx {
		return BoundingBox{}, false
	}
	return box, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var geomRe = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// ParseGeometry parses a Tk style "WIDTHxHEIGHT+X+Y" string.
func ParseGeometry(g string) (image.Rectangle, bool) {
	m := geomRe.FindStringSubmatch(strings.TrimSpace(g))
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}

// FormatGeometry is the inverse of ParseGeometry.
func FormatGeometry(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}
