// Package engine assembles the capture, query and inference pipeline from a
// Config. It has no UI dependencies; the Tk shell in package app drives it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/soocke/promptcam/config"
	"github.com/soocke/promptcam/debug"
	"github.com/soocke/promptcam/domain/capture"
	"github.com/soocke/promptcam/domain/pipeline"
	"github.com/soocke/promptcam/domain/query"
	"github.com/soocke/promptcam/domain/samples"
	"github.com/soocke/promptcam/recognition"
	"github.com/soocke/promptcam/recognition/bridge"
	"github.com/soocke/promptcam/recognition/template"
	"github.com/soocke/promptcam/ui/images"
)

const (
	goroutineLogInterval = 10 * time.Second
	memLogInterval       = 10 * time.Second
	metricsLogInterval   = 5 * time.Second
)

// Engine owns every long-lived pipeline component.
type Engine struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	Queue      *pipeline.FrameQueue
	Query      *query.State
	Results    *pipeline.LatestCell
	Metrics    *pipeline.Metrics
	Recognizer recognition.Recognizer // nil for backend "none"
	Worker     *pipeline.Worker
	Source     capture.Source
	Capture    capture.CaptureService
	Samples    *samples.Store
	Thumbs     *images.ThumbnailCache

	mu      sync.Mutex
	cancel  context.CancelFunc
	loading sync.WaitGroup
	started bool
}

// Option overrides a component New would otherwise build from the config.
type Option func(*options)

type options struct {
	source     capture.Source
	recognizer recognition.Recognizer
	region     func() *image.Rectangle
}

// WithSource replaces the configured frame source.
func WithSource(s capture.Source) Option { return func(o *options) { o.source = s } }

// WithRecognizer replaces the configured backend.
func WithRecognizer(r recognition.Recognizer) Option { return func(o *options) { o.recognizer = r } }

// WithRegion supplies the screen capture rectangle at read time, overriding
// source.region from the config.
func WithRegion(fn func() *image.Rectangle) Option { return func(o *options) { o.region = fn } }

// New validates cfg and wires the pipeline. Nothing is started.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	e.Queue = pipeline.NewFrameQueue(cfg.Pipeline.QueueDepth)
	e.Metrics = pipeline.NewMetrics(e.Registry, e.Queue)
	e.Query = query.NewState(cfg.Query.Confidence)
	if terms := query.ParsePrompt(cfg.Query.Prompt); len(terms) > 0 {
		e.Query.SetPrompt(terms)
	}
	e.Results = &pipeline.LatestCell{}

	if o.recognizer != nil {
		e.Recognizer = o.recognizer
	} else {
		rec, err := NewRecognizer(cfg, logger)
		if err != nil {
			return nil, err
		}
		e.Recognizer = rec
	}
	e.Worker = pipeline.NewWorker(e.Queue, e.Query, e.Recognizer, e.Results,
		pipeline.WithLogger(logger.With("component", "worker")),
		pipeline.WithMetrics(e.Metrics),
		pipeline.WithPopTimeout(cfg.Pipeline.PopTimeout),
		pipeline.WithInferTimeout(cfg.Model.InferTimeout),
	)

	e.Source = o.source
	if e.Source == nil {
		region := o.region
		if region == nil {
			region = staticRegion(cfg)
		}
		src, err := NewSource(cfg, region)
		if err != nil {
			return nil, err
		}
		e.Source = src
	}
	e.Capture = capture.NewCaptureService(logger.With("component", "capture"), e.Source, e.Queue,
		capture.WithInterval(cfg.Source.Interval),
		capture.WithJoinTimeout(cfg.Pipeline.JoinTimeout),
	)

	e.Samples = samples.NewStore(e.Query, samples.WithThumbSize(cfg.UI.ThumbWidth, cfg.UI.ThumbHeight))
	e.Thumbs = images.NewThumbnailCache(cfg.UI.ThumbCache)
	if m, ok := e.Recognizer.(*template.Matcher); ok {
		e.Samples.OnChange(func() { rememberSamples(m, e.Samples) })
	}
	return e, nil
}

// NewRecognizer builds the configured backend. It returns a nil Recognizer
// for backend "none".
func NewRecognizer(cfg *config.Config, logger *slog.Logger) (recognition.Recognizer, error) {
	switch cfg.Model.Backend {
	case config.BackendBridge:
		return bridge.New(logger, bridge.Config{
			Command:     cfg.WorkerCommand(),
			StopTimeout: cfg.Model.StopTimeout,
		}), nil
	case config.BackendTemplate:
		m, err := template.New(logger.With("component", "template"), template.Options{})
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.BackendNone:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: model.backend %q", config.ErrInvalid, cfg.Model.Backend)
}

// NewSource builds the configured frame source. region is only consulted by
// the screen source.
func NewSource(cfg *config.Config, region func() *image.Rectangle) (capture.Source, error) {
	switch cfg.Source.Kind {
	case config.SourceCamera:
		return capture.NewCameraSource(cfg.Source.Device), nil
	case config.SourceFile:
		return capture.NewFileSource(cfg.Source.Path), nil
	case config.SourceScreen:
		s := capture.NewScreenSource()
		s.Region = region
		return s, nil
	case config.SourcePattern:
		return capture.NewPatternSource(cfg.Source.Width, cfg.Source.Height), nil
	}
	return nil, fmt.Errorf("%w: source.kind %q", config.ErrInvalid, cfg.Source.Kind)
}

func staticRegion(cfg *config.Config) func() *image.Rectangle {
	r, ok := cfg.ScreenRegion()
	if !ok {
		return nil
	}
	return func() *image.Rectangle { return &r }
}

// rememberSamples primes the matcher with the pixels each sample was drawn
// on, so exemplars keep matching what the user marked.
func rememberSamples(m *template.Matcher, store *samples.Store) {
	for _, s := range store.Samples() {
		m.Remember(query.Exemplar{Box: s.Box, Label: s.Label}, s.Crop)
	}
}

// Start launches the inference worker, loads the model in the background and
// starts the debug loggers when enabled. Capture is started separately by
// the UI. Calling Start twice is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.started = true
	ctx, e.cancel = context.WithCancel(ctx)

	e.Worker.Start(ctx)
	if e.Recognizer != nil {
		e.loading.Add(1)
		go func() {
			defer e.loading.Done()
			_ = e.LoadModel(ctx)
		}()
	}
	if e.Config.Debug {
		debug.StartGoroutineLogger(ctx, goroutineLogInterval, e.Logger)
		debug.StartMemLogger(ctx, memLogInterval, e.Logger)
		debug.StartMetricsLogger(ctx, metricsLogInterval, e.Registry, e.Logger)
	}
	e.Logger.Info("engine.start",
		"source", e.Source.Name(),
		"backend", e.Config.Model.Backend,
		"queue_depth", e.Queue.Cap(),
	)
}

// LoadModel (re)loads the configured model path, bounded by load_timeout.
func (e *Engine) LoadModel(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.Config.Model.LoadTimeout)
	defer cancel()
	return e.Worker.LoadModel(ctx, e.Config.Model.Path)
}

// Shutdown stops capture, then the worker, then closes the backend. A join
// timeout is logged and reported but does not stop the sequence.
func (e *Engine) Shutdown() error {
	var errs []error
	e.Capture.Stop()

	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if err := e.Worker.Stop(e.Config.Pipeline.JoinTimeout); err != nil {
		errs = append(errs, err)
	}
	if !waitTimeout(&e.loading, e.Config.Pipeline.JoinTimeout) {
		e.Logger.Warn("engine.shutdown", "error", "model load still running")
	}
	if e.Recognizer != nil {
		if err := e.Recognizer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close recognizer: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		e.Logger.Warn("engine.shutdown", "error", err)
	} else {
		e.Logger.Info("engine.shutdown")
	}
	return err
}

func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
