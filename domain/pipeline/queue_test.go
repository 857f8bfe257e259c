package pipeline

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/promptcam/domain/frame"
)

func testFrame(seq uint64) frame.Frame {
	return frame.Frame{Image: image.NewRGBA(image.Rect(0, 0, 8, 8)), CapturedAt: time.Now(), Sequence: seq}
}

func TestFrameQueue_DropOldest(t *testing.T) {
	q := NewFrameQueue(DefaultQueueDepth)
	q.Push(testFrame(1))
	q.Push(testFrame(2))
	q.Push(testFrame(3))

	require.Equal(t, 2, q.Len())
	assert.Equal(t, uint64(1), q.Dropped())

	f, ok := q.Pop(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, uint64(2), f.Sequence)

	f, ok = q.Pop(10 * time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, uint64(3), f.Sequence)

	_, ok = q.Pop(20 * time.Millisecond)
	assert.False(t, ok, "queue should be empty")
}

func TestFrameQueue_NeverExceedsDepthAndKeepsNewest(t *testing.T) {
	q := NewFrameQueue(DefaultQueueDepth)
	const n = 50
	for i := uint64(1); i <= n; i++ {
		q.Push(testFrame(i))
		require.LessOrEqual(t, q.Len(), DefaultQueueDepth)
	}
	assert.Equal(t, uint64(n-DefaultQueueDepth), q.Dropped())
	assert.Equal(t, uint64(n), q.Pushed())

	first, _ := q.Pop(0)
	last, _ := q.Pop(0)
	assert.Equal(t, uint64(n-1), first.Sequence)
	assert.Equal(t, uint64(n), last.Sequence, "most recent frame must survive overflow")
}

func TestFrameQueue_PopTimesOutWithoutError(t *testing.T) {
	q := NewFrameQueue(2)
	start := time.Now()
	f, ok := q.Pop(30 * time.Millisecond)
	elapsed := time.Since(start)
	assert.False(t, ok)
	assert.True(t, f.Empty())
	assert.GreaterOrEqual(t, elapsed, 25*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestFrameQueue_PopWakesOnPush(t *testing.T) {
	q := NewFrameQueue(2)
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(testFrame(9))
	}()
	f, ok := q.Pop(time.Second)
	require.True(t, ok)
	assert.Equal(t, uint64(9), f.Sequence)
}

func TestFrameQueue_PopContextCancel(t *testing.T) {
	q := NewFrameQueue(2)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	_, ok := q.PopContext(ctx, 5*time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFrameQueue_PushNeverBlocks(t *testing.T) {
	q := NewFrameQueue(2)
	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint64(0); i < 10000; i++ {
			q.Push(testFrame(i))
		}
	}()
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer blocked without a consumer")
	}
	assert.Equal(t, 2, q.Len())
}

func TestFrameQueue_Drain(t *testing.T) {
	q := NewFrameQueue(2)
	q.Push(testFrame(1))
	q.Push(testFrame(2))
	assert.Equal(t, 2, q.Drain())
	assert.Equal(t, 0, q.Len())
	_, ok := q.Pop(0)
	assert.False(t, ok)
}

func TestLatestCell(t *testing.T) {
	var c LatestCell
	_, v := c.Latest()
	assert.Equal(t, uint64(0), v)
	_, _, ok := c.Since(0)
	assert.False(t, ok)

	c.Publish(AnnotatedFrame{Frame: testFrame(1)})
	c.Publish(AnnotatedFrame{Frame: testFrame(2)})
	a, v, ok := c.Since(0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), a.Frame.Sequence)
	_, _, ok = c.Since(v)
	assert.False(t, ok)
	assert.NotNil(t, a.Image())
	assert.False(t, a.Annotated())
	assert.Nil(t, AnnotatedFrame{}.Image())
}
