package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/promptcam/domain/frame"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/recognition"
)

const (
	// DefaultPopTimeout bounds how long the worker waits for a frame before
	// re-checking for stop.
	DefaultPopTimeout = 100 * time.Millisecond

	StatusNoModel = "No model"
	StatusLoading = "Loading model..."
	StatusReady   = "Ready"
	// StatusBackendLost means the backend died after loading; LoadModel
	// brings it back.
	StatusBackendLost = "Backend stopped"
)

// ErrJoinTimeout is returned by Stop when the loop did not exit in time.
var ErrJoinTimeout = errors.New("worker did not stop before timeout")

// QuerySource supplies a consistent query snapshot per cycle.
type QuerySource interface {
	Snapshot() query.Snapshot
}

// AnnotateFunc renders recognition output onto a frame.
type AnnotateFunc func(img image.Image, regions []recognition.Region) image.Image

// Worker pulls frames from the queue, runs recognition with the current
// query and publishes the result. It degrades to publishing raw frames while
// no model is loaded, while the query is empty and for any failed cycle.
type Worker struct {
	queue      *FrameQueue
	query      QuerySource
	rec        recognition.Recognizer
	out        Publisher
	logger     *slog.Logger
	metrics    *Metrics
	popTimeout time.Duration
	annotate   AnnotateFunc

	inferTimeout time.Duration

	recMu sync.Mutex // serializes LoadModel and Infer on rec

	mu        sync.Mutex
	state     WorkerState
	available bool
	status    string

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	processed     atomic.Uint64
	annotated     atomic.Uint64
	passthrough   atomic.Uint64
	failures      atomic.Uint64
	panics        atomic.Uint64
	failureStreak int // touched only by the loop goroutine
}

// WorkerOption customizes a Worker.
type WorkerOption func(*Worker)

func WithLogger(l *slog.Logger) WorkerOption { return func(w *Worker) { w.logger = l } }

func WithMetrics(m *Metrics) WorkerOption { return func(w *Worker) { w.metrics = m } }

func WithPopTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d > 0 {
			w.popTimeout = d
		}
	}
}

// WithInferTimeout bounds each Infer call. Zero means no limit.
func WithInferTimeout(d time.Duration) WorkerOption {
	return func(w *Worker) {
		if d >= 0 {
			w.inferTimeout = d
		}
	}
}

func WithAnnotator(fn AnnotateFunc) WorkerOption {
	return func(w *Worker) {
		if fn != nil {
			w.annotate = fn
		}
	}
}

// NewWorker wires a worker. rec may be nil, in which case the worker stays
// Unavailable and only passes frames through.
func NewWorker(queue *FrameQueue, q QuerySource, rec recognition.Recognizer, out Publisher, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:      queue,
		query:      q,
		rec:        rec,
		out:        out,
		popTimeout: DefaultPopTimeout,
		annotate:   defaultAnnotate,
		state:      StateIdle,
	}
	for _, o := range opts {
		o(w)
	}
	if rec == nil {
		w.state = StateUnavailable
		w.status = StatusNoModel
	}
	return w
}

func defaultAnnotate(img image.Image, regions []recognition.Region) image.Image {
	return recognition.Annotate(img, regions)
}

// LoadModel (re)loads the recognition model. On failure the worker becomes
// Unavailable and keeps draining the queue; a later successful call makes it
// available again. Safe to call while the loop runs.
func (w *Worker) LoadModel(ctx context.Context, path string) error {
	if w.rec == nil {
		w.markUnavailable(StatusNoModel)
		return fmt.Errorf("%w: no recognizer configured", recognition.ErrModelLoadFailed)
	}
	w.setStatus(StatusLoading)
	w.log().Info("worker.load", "path", path)

	w.recMu.Lock()
	err := w.rec.LoadModel(ctx, path)
	w.recMu.Unlock()

	if err != nil {
		if !errors.Is(err, recognition.ErrModelLoadFailed) {
			err = fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, err)
		}
		w.markUnavailable("Load failed: " + err.Error())
		w.log().Error("worker.load", "path", path, "error", err)
		return err
	}

	w.mu.Lock()
	w.available = true
	w.status = StatusReady
	if w.state == StateUnavailable {
		if w.running.Load() {
			w.state = StateWaitingForFrame
		} else {
			w.state = StateIdle
		}
	}
	st := w.state
	w.mu.Unlock()
	w.metrics.setState(st)
	w.log().Info("worker.ready", "path", path)
	return nil
}

// Start launches the worker loop. Calling Start on a running worker is a no-op.
func (w *Worker) Start(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop signals the loop and waits up to timeout for it to exit.
func (w *Worker) Stop(timeout time.Duration) error {
	if !w.running.Load() || w.cancel == nil {
		return nil
	}
	w.cancel()
	select {
	case <-w.done:
		return nil
	case <-time.After(timeout):
		w.log().Warn("worker.stop", "error", ErrJoinTimeout, "timeout", timeout)
		return ErrJoinTimeout
	}
}

// Running reports whether the loop goroutine is alive.
func (w *Worker) Running() bool { return w.running.Load() }

// State returns the current state.
func (w *Worker) State() WorkerState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Status returns the last human readable model status.
func (w *Worker) Status() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Available reports whether a model is loaded.
func (w *Worker) Available() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.available
}

// Stats returns cycle counters.
func (w *Worker) Stats() WorkerStats {
	return WorkerStats{
		Processed:   w.processed.Load(),
		Annotated:   w.annotated.Load(),
		Passthrough: w.passthrough.Load(),
		Failures:    w.failures.Load(),
		Panics:      w.panics.Load(),
	}
}

func (w *Worker) run(ctx context.Context, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		if w.state != StateUnavailable {
			w.state = StateIdle
		}
		st := w.state
		w.mu.Unlock()
		w.metrics.setState(st)
		w.running.Store(false)
		close(done)
	}()
	w.log().Debug("worker.start", "pop_timeout", w.popTimeout)
	for {
		if ctx.Err() != nil {
			w.log().Debug("worker.exit")
			return
		}
		w.transition(StateWaitingForFrame)
		f, ok := w.queue.PopContext(ctx, w.popTimeout)
		if !ok {
			continue
		}
		w.cycle(ctx, f)
	}
}

// cycle processes one frame. Panics are contained here so one bad frame
// only costs that frame.
func (w *Worker) cycle(ctx context.Context, f frame.Frame) {
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			w.metrics.observeCycle(OutcomePanic)
			w.log().Error("worker.panic", "error", r, "sequence", f.Sequence, "stack", string(debug.Stack()))
		}
	}()
	w.processed.Add(1)

	snap := w.query.Snapshot()
	if !w.Available() || snap.Empty() || f.Empty() {
		w.publishRaw(f)
		return
	}

	q := recognition.QueryFrom(snap)
	w.transition(StateInvoking)
	start := time.Now()
	regions, err := w.infer(ctx, f, q)
	latency := time.Since(start)
	w.metrics.observeInfer(latency)
	if err != nil {
		w.failures.Add(1)
		w.metrics.observeCycle(OutcomeFailed)
		w.failureStreak++
		if w.failureStreak == 1 {
			w.log().Warn("worker.infer", "error", err, "sequence", f.Sequence, "mode", q.Mode())
		} else {
			w.log().Debug("worker.infer", "error", err, "sequence", f.Sequence, "streak", w.failureStreak)
		}
		if errors.Is(err, recognition.ErrClosed) {
			w.markUnavailable(StatusBackendLost)
			w.log().Error("worker.backend", "error", err)
		}
		w.publish(AnnotatedFrame{Frame: f, Mode: q.Mode(), Latency: latency})
		return
	}
	w.failureStreak = 0

	overlay := w.annotate(f.Image, regions)
	w.transition(StatePublishing)
	w.annotated.Add(1)
	w.metrics.observeCycle(OutcomeAnnotated)
	w.publish(AnnotatedFrame{Frame: f, Overlay: overlay, Regions: regions, Mode: q.Mode(), Latency: latency})
}

func (w *Worker) infer(ctx context.Context, f frame.Frame, q recognition.Query) ([]recognition.Region, error) {
	w.recMu.Lock()
	defer w.recMu.Unlock()
	if w.inferTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.inferTimeout)
		defer cancel()
	}
	regions, err := w.rec.Infer(ctx, f.Image, q)
	if err != nil && !errors.Is(err, recognition.ErrInferenceFailed) {
		err = fmt.Errorf("%w: %w", recognition.ErrInferenceFailed, err)
	}
	return regions, err
}

func (w *Worker) publishRaw(f frame.Frame) {
	w.passthrough.Add(1)
	w.metrics.observeCycle(OutcomePassthrough)
	w.publish(AnnotatedFrame{Frame: f, Mode: recognition.ModeNone})
}

func (w *Worker) publish(a AnnotatedFrame) {
	if w.out != nil {
		w.out.Publish(a)
	}
}

// transition moves to next unless the worker is Unavailable, which only a
// successful LoadModel leaves.
func (w *Worker) transition(next WorkerState) {
	w.mu.Lock()
	if w.state == StateUnavailable || w.state == next {
		w.mu.Unlock()
		return
	}
	w.state = next
	w.mu.Unlock()
	w.metrics.setState(next)
}

func (w *Worker) markUnavailable(status string) {
	w.mu.Lock()
	w.available = false
	w.state = StateUnavailable
	w.status = status
	w.mu.Unlock()
	w.metrics.setState(StateUnavailable)
}

func (w *Worker) setStatus(s string) {
	w.mu.Lock()
	w.status = s
	w.mu.Unlock()
}

func (w *Worker) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}
