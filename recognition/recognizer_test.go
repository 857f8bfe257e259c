package recognition

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

func TestQueryMode(t *testing.T) {
	ex := []query.Exemplar{{Box: geometry.Box(0, 0, 10, 10), Label: query.Positive}}
	tests := []struct {
		q    Query
		want Mode
	}{
		{Query{}, ModeNone},
		{Query{Terms: []string{"dice"}}, ModeText},
		{Query{Exemplars: ex}, ModeExemplar},
		{Query{Terms: []string{"dice"}, Exemplars: ex}, ModeTextAndExemplar},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.q.Mode(), tt.want.String())
	}
}

func TestQueryBoxesAndLabels(t *testing.T) {
	q := Query{Exemplars: []query.Exemplar{
		{Box: geometry.Box(10, 10, 50, 50), Label: query.Positive},
		{Box: geometry.Box(60, 60, 90, 90), Label: query.Negative},
	}}
	assert.Equal(t, [][4]int{{10, 10, 50, 50}, {60, 60, 90, 90}}, q.Boxes())
	assert.Equal(t, []int{1, 0}, q.Labels())
}

func TestQueryFrom_Copies(t *testing.T) {
	snap := query.Snapshot{Terms: []string{"a"}, Confidence: 0.4}
	q := QueryFrom(snap)
	snap.Terms[0] = "b"
	assert.Equal(t, []string{"a"}, q.Terms)
	assert.Equal(t, 0.4, q.Confidence)
}

func TestAnnotate_DoesNotTouchSource(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	mask := image.NewAlpha(image.Rect(20, 20, 40, 40))
	for y := 20; y < 40; y++ {
		for x := 20; x < 40; x++ {
			mask.SetAlpha(x, y, color.Alpha{A: 255})
		}
	}
	out := Annotate(src, []Region{
		{Box: geometry.Box(20, 20, 40, 40), Mask: mask, Label: "dice", Score: 0.9},
		{Box: geometry.Box(60, 60, 80, 80), Label: "dice", Score: 0.5},
	})
	require.NotNil(t, out)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, color.RGBA{}, src.RGBAAt(30, 30), "source modified")
	assert.NotEqual(t, uint8(0), out.NRGBAAt(30, 30).B, "mask not blended")
	assert.Equal(t, regionPalette[0].B, out.NRGBAAt(60, 70).B, "second box outline should reuse label color")
	assert.Nil(t, Annotate(nil, nil))
}
