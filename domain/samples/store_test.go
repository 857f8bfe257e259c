package samples

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

func crop(w, h int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, w, h)) }

func TestStore_InsertionOrderAndRemove(t *testing.T) {
	state := query.NewState(query.DefaultConfidence)
	s := NewStore(state)

	a := geometry.Box(10, 10, 50, 50)
	b := geometry.Box(60, 60, 90, 90)
	assert.Equal(t, 0, s.Add(a, query.Positive, crop(40, 40)))
	assert.Equal(t, 1, s.Add(b, query.Negative, crop(30, 30)))

	want := []query.Exemplar{{Box: a, Label: query.Positive}, {Box: b, Label: query.Negative}}
	assert.Equal(t, want, s.Exemplars())
	assert.Equal(t, want, state.Snapshot().Exemplars, "query state must mirror the store")

	require.True(t, s.Remove(0))
	assert.Equal(t, []query.Exemplar{{Box: b, Label: query.Negative}}, s.Exemplars())
	assert.Equal(t, s.Exemplars(), state.Snapshot().Exemplars)
}

func TestStore_RemoveOutOfRangeIsNoop(t *testing.T) {
	state := query.NewState(query.DefaultConfidence)
	s := NewStore(state)
	s.Add(geometry.Box(0, 0, 20, 20), query.Positive, crop(20, 20))
	v := state.Version()
	assert.False(t, s.Remove(5))
	assert.False(t, s.Remove(-1))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, v, state.Version())
}

func TestStore_ClearAndCounts(t *testing.T) {
	state := query.NewState(query.DefaultConfidence)
	s := NewStore(state)
	s.Add(geometry.Box(0, 0, 20, 20), query.Positive, crop(20, 20))
	s.Add(geometry.Box(0, 0, 20, 20), query.Positive, crop(20, 20))
	s.Add(geometry.Box(0, 0, 20, 20), query.Negative, crop(20, 20))
	pos, neg := s.Counts()
	assert.Equal(t, 2, pos)
	assert.Equal(t, 1, neg)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, state.Snapshot().Exemplars)
}

func TestStore_SampleMetadata(t *testing.T) {
	s := NewStore(nil, WithThumbSize(40, 30))
	s.Add(geometry.Box(0, 0, 20, 20), query.Negative, crop(20, 20))
	got := s.Samples()
	require.Len(t, got, 1)
	assert.NotEqual(t, [16]byte{}, [16]byte(got[0].ID))
	require.NotNil(t, got[0].Thumb)
	assert.Equal(t, 40, got[0].Thumb.Bounds().Dx())
	assert.False(t, got[0].CreatedAt.IsZero())
}

func TestStore_OnChange(t *testing.T) {
	s := NewStore(nil)
	calls := 0
	s.OnChange(func() { calls++ })
	s.Add(geometry.Box(0, 0, 20, 20), query.Positive, crop(20, 20))
	s.Remove(0)
	s.Clear()
	assert.Equal(t, 3, calls)
}

func TestStore_ConcurrentAddRemove(t *testing.T) {
	state := query.NewState(query.DefaultConfidence)
	s := NewStore(state)
	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Add(geometry.Box(0, 0, 20, 20), query.Positive, crop(20, 20))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				s.Remove(0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, s.Exemplars(), state.Snapshot().Exemplars)
	assert.Equal(t, s.Len(), len(state.Snapshot().Exemplars))
}
