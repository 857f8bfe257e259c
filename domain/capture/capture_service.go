package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/promptcam/domain/frame"
)

const (
	captureStatsLogInterval = 5 * time.Second
	// DefaultInterval paces the loop between device reads.
	DefaultInterval = 30 * time.Millisecond
	// DefaultJoinTimeout bounds how long Stop waits for the loop.
	DefaultJoinTimeout = time.Second
	// DefaultMaxMisses is how many reads in a row may come back empty before
	// the device counts as lost.
	DefaultMaxMisses = 100
)

// FrameSink receives every captured frame. The pipeline queue implements it.
type FrameSink interface {
	Push(frame.Frame)
}

// CaptureService reads frames from a Source on its own goroutine and hands
// them to a FrameSink. Use NewCaptureService to construct an instance.
type CaptureService interface {
	Start() error
	Stop()
	Running() bool
	Stats() CaptureStats
	// Err reports why the loop stopped on its own (device failure or end of
	// stream); nil while running or after a clean Stop.
	Err() error
}

type captureService struct {
	running      atomic.Bool
	source       Source
	sink         FrameSink
	logger       *slog.Logger
	interval     time.Duration
	joinTimeout  time.Duration
	maxMisses    int
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastCapture  atomic.Int64

	mu     sync.Mutex
	done   chan struct{}
	err    error
	opened bool
}

// Option customises a capture service.
type Option func(*captureService)

// WithInterval sets the pause between reads. Zero disables pacing.
func WithInterval(d time.Duration) Option {
	return func(s *captureService) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithJoinTimeout bounds Stop.
func WithJoinTimeout(d time.Duration) Option {
	return func(s *captureService) {
		if d > 0 {
			s.joinTimeout = d
		}
	}
}

// WithMaxMisses sets how many consecutive empty reads end the loop with
// ErrDeviceUnavailable. Zero retries forever.
func WithMaxMisses(n int) Option {
	return func(s *captureService) {
		if n >= 0 {
			s.maxMisses = n
		}
	}
}

// NewCaptureService constructs a capture service for source feeding sink.
func NewCaptureService(logger *slog.Logger, source Source, sink FrameSink, opts ...Option) CaptureService {
	s := &captureService{
		source:      source,
		sink:        sink,
		logger:      logger,
		interval:    DefaultInterval,
		joinTimeout: DefaultJoinTimeout,
		maxMisses:   DefaultMaxMisses,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *captureService) Running() bool { return s.running.Load() }

func (s *captureService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *captureService) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *captureService) Stats() CaptureStats {
	captures := s.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(s.captureNanos.Load() / captures)
	}
	stats := CaptureStats{
		Captures:   captures,
		Skipped:    s.skipped.Load(),
		AvgCapture: avg,
		Sequence:   s.sequence.Load(),
	}
	if s.source != nil {
		stats.Source = s.source.Name()
	}
	if ns := s.lastCapture.Load(); ns != 0 {
		stats.LastCapture = time.Unix(0, ns)
		stats.LatestFrameAge = time.Since(stats.LastCapture)
	}
	return stats
}

// Start opens the source and launches the loop. It is a no-op while running.
func (s *captureService) Start() error {
	if s.source == nil {
		return fmt.Errorf("%w: no source configured", ErrDeviceUnavailable)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running.Load() {
		return nil
	}
	if err := s.source.Open(); err != nil {
		s.err = err
		return err
	}
	s.err = nil
	s.opened = true
	s.done = make(chan struct{})
	s.running.Store(true)
	go s.loop(s.done)
	if s.logger != nil {
		s.logger.Info("capture started", "source", s.source.Name(), "interval", s.interval)
	}
	return nil
}

// Stop ends the loop, waits for it up to the join timeout and releases the
// source either way. A loop that already stopped on its own has released the
// source itself.
func (s *captureService) Stop() {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	s.running.Store(false)
	select {
	case <-done:
	case <-time.After(s.joinTimeout):
		if s.logger != nil {
			s.logger.Warn("capture loop did not stop in time", "timeout", s.joinTimeout)
		}
	}
	s.release()
}

// release closes the source once per successful Start.
func (s *captureService) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return
	}
	s.opened = false
	if err := s.source.Close(); err != nil && s.logger != nil {
		s.logger.Warn("capture source close", "source", s.source.Name(), "error", err)
	}
}

// fail records why the loop stopped and frees the device right away.
func (s *captureService) fail(err error) {
	s.setErr(err)
	s.release()
}

func (s *captureService) loop(done chan struct{}) {
	defer close(done)
	defer s.running.Store(false)
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	misses := 0
	for s.running.Load() {
		start := time.Now()
		img, err := s.source.Read()
		switch {
		case err == nil && img != nil:
		case errors.Is(err, ErrEndOfStream):
			if s.logger != nil {
				s.logger.Info("capture end of stream", "source", s.source.Name())
			}
			s.fail(err)
			return
		case errors.Is(err, ErrDeviceUnavailable):
			if s.logger != nil {
				s.logger.Error("capture device lost", "source", s.source.Name(), "error", err)
			}
			s.fail(err)
			return
		default:
			misses++
			if n := s.skipped.Add(1); n == 1 && s.logger != nil {
				s.logger.Warn("capture read", "source", s.source.Name(), "error", err)
			}
			if s.maxMisses > 0 && misses >= s.maxMisses {
				lost := fmt.Errorf("%w: %d reads without a frame: %w", ErrDeviceUnavailable, misses, err)
				if s.logger != nil {
					s.logger.Error("capture device lost", "source", s.source.Name(), "error", lost)
				}
				s.fail(lost)
				return
			}
			s.pace(start)
			continue
		}
		misses = 0

		now := time.Now()
		s.captureNanos.Add(uint64(now.Sub(start).Nanoseconds()))
		s.captures.Add(1)
		s.lastCapture.Store(now.UnixNano())
		seq := s.sequence.Add(1)
		if s.sink != nil {
			s.sink.Push(frame.Frame{Image: img, CapturedAt: now, Sequence: seq})
		}

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
		s.pace(start)
	}
}

func (s *captureService) pace(start time.Time) {
	if rest := s.interval - time.Since(start); rest > 0 {
		time.Sleep(rest)
	}
}

func (s *captureService) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"source", stats.Source,
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}
