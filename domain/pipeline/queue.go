// Package pipeline connects capture to recognition: a drop-oldest frame
// queue, the inference worker and the cell the UI reads results from.
package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/promptcam/domain/frame"
)

// DefaultQueueDepth is the capture to inference queue depth.
const DefaultQueueDepth = 2

// FrameQueue is a bounded single-producer/single-consumer queue. Push never
// blocks: at capacity the oldest frame is evicted. Frames still queued come
// out oldest first.
type FrameQueue struct {
	mu      sync.Mutex
	buf     []frame.Frame
	depth   int
	notify  chan struct{}
	pushed  atomic.Uint64
	dropped atomic.Uint64
}

// NewFrameQueue returns a queue holding at most depth frames (minimum 1).
func NewFrameQueue(depth int) *FrameQueue {
	if depth < 1 {
		depth = 1
	}
	return &FrameQueue{
		buf:    make([]frame.Frame, 0, depth),
		depth:  depth,
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues f, evicting the oldest entry when the queue is full.
func (q *FrameQueue) Push(f frame.Frame) {
	q.mu.Lock()
	if len(q.buf) == q.depth {
		q.evictOldestLocked()
		q.dropped.Add(1)
	}
	q.buf = append(q.buf, f)
	q.mu.Unlock()
	q.pushed.Add(1)
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop waits up to timeout for a frame. ok is false on timeout.
func (q *FrameQueue) Pop(timeout time.Duration) (frame.Frame, bool) {
	return q.PopContext(context.Background(), timeout)
}

// PopContext is Pop that also returns early when ctx is done.
func (q *FrameQueue) PopContext(ctx context.Context, timeout time.Duration) (frame.Frame, bool) {
	if f, ok := q.tryPop(); ok {
		return f, true
	}
	if timeout <= 0 {
		return frame.Frame{}, false
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-q.notify:
			if f, ok := q.tryPop(); ok {
				return f, true
			}
		case <-timer.C:
			return q.tryPop()
		case <-ctx.Done():
			return frame.Frame{}, false
		}
	}
}

func (q *FrameQueue) tryPop() (frame.Frame, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return frame.Frame{}, false
	}
	f := q.buf[0]
	q.evictOldestLocked()
	return f, true
}

func (q *FrameQueue) evictOldestLocked() {
	copy(q.buf, q.buf[1:])
	q.buf[len(q.buf)-1] = frame.Frame{}
	q.buf = q.buf[:len(q.buf)-1]
}

// Drain discards every queued frame and returns how many were removed.
func (q *FrameQueue) Drain() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.buf)
	clear(q.buf)
	q.buf = q.buf[:0]
	return n
}

// Len returns the number of queued frames.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Cap returns the configured depth.
func (q *FrameQueue) Cap() int { return q.depth }

// Dropped counts frames evicted by Push.
func (q *FrameQueue) Dropped() uint64 { return q.dropped.Load() }

// Pushed counts all frames ever pushed.
func (q *FrameQueue) Pushed() uint64 { return q.pushed.Load() }
