// Package bridge runs a recognition model in a separate worker process and
// talks to it over stdin/stdout. Every message is a 4-byte big-endian length
// followed by a msgpack map. The worker answers each request with exactly one
// response; stderr lines are forwarded to the logger.
package bridge

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/recognition"
)

// Name is the backend name used in configuration.
const Name = "bridge"

// DefaultStopTimeout bounds how long Close waits before killing the worker.
const DefaultStopTimeout = 2 * time.Second

// Config describes how to launch the worker.
type Config struct {
	// Command is the worker executable followed by its arguments.
	Command     []string
	Env         []string
	Dir         string
	StopTimeout time.Duration
}

type transport struct {
	r      io.Reader
	w      io.WriteCloser
	cmd    *exec.Cmd
	exited chan struct{}
}

// Client implements recognition.Recognizer on top of a worker process. The
// process is spawned by the first LoadModel. If an inference is cancelled
// the process is killed and the next Infer starts a new one and reloads the
// last model.
type Client struct {
	cfg    Config
	logger *slog.Logger
	start  func() (*transport, error)

	mu     sync.Mutex
	t      *transport
	loaded bool
	closed bool
	model  string
	device string
}

// New returns a client that launches cfg.Command on demand.
func New(logger *slog.Logger, cfg Config) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	c := &Client{cfg: cfg, logger: logger.With("component", "bridge")}
	c.start = c.startProcess
	return c
}

// newPiped wires the client to in-process peers returned by dial; used by
// tests. The first peer is connected immediately.
func newPiped(logger *slog.Logger, dial func() (io.Reader, io.WriteCloser, error)) *Client {
	c := New(logger, Config{})
	c.start = func() (*transport, error) {
		r, w, err := dial()
		if err != nil {
			return nil, err
		}
		return &transport{r: r, w: w}, nil
	}
	_ = c.spawn()
	return c
}

// Device reports what the worker said it runs on, once loaded.
func (c *Client) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

func (c *Client) LoadModel(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, recognition.ErrClosed)
	}
	if c.t == nil {
		if err := c.spawn(); err != nil {
			return fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, err)
		}
	}
	var resp response
	if err := c.exchange(ctx, request{Op: opLoad, Model: path}, &resp); err != nil {
		return fmt.Errorf("%w: %w", recognition.ErrModelLoadFailed, err)
	}
	if !resp.OK {
		return fmt.Errorf("%w: %s", recognition.ErrModelLoadFailed, resp.Error)
	}
	c.loaded = true
	c.model = path
	c.device = resp.Device
	c.logger.Info("worker model loaded", "model", path, "device", resp.Device)
	return nil
}

func (c *Client) Infer(ctx context.Context, img *image.RGBA, q recognition.Query) ([]recognition.Region, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.closed:
		return nil, recognition.ErrClosed
	case !c.loaded:
		return nil, recognition.ErrNotLoaded
	case img == nil || img.Bounds().Empty():
		return nil, fmt.Errorf("%w: empty frame", recognition.ErrInferenceFailed)
	}
	if c.t == nil {
		if err := c.restart(ctx); err != nil {
			return nil, err
		}
	}
	var resp response
	if err := c.exchange(ctx, inferRequest(img, q), &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", recognition.ErrInferenceFailed, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", recognition.ErrInferenceFailed, resp.Error)
	}
	size := geometry.SizeOf(img)
	regions := make([]recognition.Region, 0, len(resp.Regions))
	for _, wr := range resp.Regions {
		r, err := wr.toRegion(size)
		if err != nil {
			c.logger.Debug("dropping worker region", "error", err)
			continue
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// Close asks the worker to exit, then kills it after StopTimeout.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	t := c.t
	c.t = nil
	if t == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = writeMessage(t.w, request{ID: uuid.NewString(), Op: opClose})
		_ = t.w.Close()
		if t.exited != nil {
			<-t.exited
		}
	}()
	select {
	case <-done:
		return nil
	case <-time.After(c.cfg.StopTimeout):
		c.logger.Warn("worker stop timeout, killing process", "timeout", c.cfg.StopTimeout)
		if t.cmd != nil && t.cmd.Process != nil {
			if err := t.cmd.Process.Kill(); err != nil {
				return fmt.Errorf("kill worker: %w", err)
			}
		}
		return nil
	}
}

// restart brings back a worker killed by a cancelled exchange and reloads
// the last model. Only a worker that cannot be started or cannot load the
// model again counts as closed. Caller holds c.mu.
func (c *Client) restart(ctx context.Context) error {
	if err := c.spawn(); err != nil {
		return fmt.Errorf("%w: restart worker: %w", recognition.ErrClosed, err)
	}
	c.logger.Info("worker restarted", "model", c.model)
	var resp response
	if err := c.exchange(ctx, request{Op: opLoad, Model: c.model}, &resp); err != nil {
		return fmt.Errorf("%w: reload %s: %w", recognition.ErrInferenceFailed, c.model, err)
	}
	if !resp.OK {
		if t := c.t; t != nil {
			c.teardown(t)
		}
		return fmt.Errorf("%w: reload %s: %s", recognition.ErrClosed, c.model, resp.Error)
	}
	return nil
}

// exchange sends one request and reads its response. A failure or a
// cancelled context leaves the stream out of sync, so the transport is torn
// down. Only a broken stream is reported as ErrClosed; a cancelled call just
// returns the context error. Caller holds c.mu.
func (c *Client) exchange(ctx context.Context, req request, resp *response) error {
	t := c.t
	if t == nil {
		return recognition.ErrClosed
	}
	req.ID = uuid.NewString()
	done := make(chan error, 1)
	go func() {
		if err := writeMessage(t.w, req); err != nil {
			done <- err
			return
		}
		if err := readMessage(t.r, resp); err != nil {
			done <- err
			return
		}
		if resp.ID != req.ID {
			done <- fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
			return
		}
		done <- nil
	}()
	select {
	case err := <-done:
		if err != nil {
			c.teardown(t)
			return errors.Join(recognition.ErrClosed, err)
		}
		return nil
	case <-ctx.Done():
		c.teardown(t)
		return ctx.Err()
	}
}

func (c *Client) teardown(t *transport) {
	if c.t == t {
		c.t = nil
	}
	_ = t.w.Close()
	if t.cmd != nil && t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
}

func (c *Client) spawn() error {
	t, err := c.start()
	if err != nil {
		return err
	}
	c.t = t
	return nil
}

func (c *Client) startProcess() (*transport, error) {
	if len(c.cfg.Command) == 0 {
		return nil, errors.New("no worker command configured")
	}
	cmd := exec.Command(c.cfg.Command[0], c.cfg.Command[1:]...)
	cmd.Env = c.cfg.Env
	cmd.Dir = c.cfg.Dir
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", c.cfg.Command[0], err)
	}
	t := &transport{r: bufio.NewReader(stdout), w: stdin, cmd: cmd, exited: make(chan struct{})}
	go logStderr(c.logger, stderr)
	go c.wait(t)
	c.logger.Info("worker spawned", "command", c.cfg.Command[0], "pid", cmd.Process.Pid)
	return t, nil
}

func (c *Client) wait(t *transport) {
	err := t.cmd.Wait()
	close(t.exited)
	c.mu.Lock()
	expected := c.closed || c.t != t
	if c.t == t {
		c.t = nil
	}
	c.mu.Unlock()
	switch {
	case expected:
		c.logger.Debug("worker exited", "pid", t.cmd.Process.Pid, "error", err)
	case err != nil:
		c.logger.Error("worker exited unexpectedly", "pid", t.cmd.Process.Pid, "error", err)
	default:
		c.logger.Warn("worker exited", "pid", t.cmd.Process.Pid)
	}
}

// logStderr maps the worker's "[LEVEL]" markers onto slog levels.
func logStderr(logger *slog.Logger, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		logger.Log(context.Background(), stderrLevel(line), "worker log", "line", line)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug("worker stderr closed", "error", err)
	}
}

func stderrLevel(line string) slog.Level {
	switch {
	case strings.Contains(line, "[ERROR]"), strings.Contains(line, "[CRITICAL]"), strings.HasPrefix(line, "Traceback"):
		return slog.LevelError
	case strings.Contains(line, "[WARNING]"), strings.Contains(line, "[WARN]"):
		return slog.LevelWarn
	case strings.Contains(line, "[INFO]"):
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
