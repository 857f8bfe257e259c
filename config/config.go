package config

import (
	"errors"
	"fmt"
	"image"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soocke/promptcam/domain/geometry"
	"github.com/soocke/promptcam/domain/query"
)

// Source kinds.
const (
	SourceCamera  = "camera"
	SourceFile    = "file"
	SourceScreen  = "screen"
	SourcePattern = "pattern"
)

// Model backends.
const (
	BackendBridge   = "bridge"
	BackendTemplate = "template"
	BackendNone     = "none"
)

// ErrInvalid reports a value that cannot be clamped into range.
var ErrInvalid = errors.New("invalid configuration")

var (
	sourceKinds = []string{SourceCamera, SourceFile, SourceScreen, SourcePattern}
	backends    = []string{BackendBridge, BackendTemplate, BackendNone}
	logLevels   = []string{"debug", "info", "warn", "error"}
)

// Config holds runtime configuration. It is read by Loader from a yaml file,
// PROMPTCAM_* environment variables and command-line flags.
type Config struct {
	Debug    bool           `mapstructure:"debug" yaml:"debug"`
	LogLevel string         `mapstructure:"log_level" yaml:"log_level"`
	Source   SourceConfig   `mapstructure:"source" yaml:"source"`
	Model    ModelConfig    `mapstructure:"model" yaml:"model"`
	Query    QueryConfig    `mapstructure:"query" yaml:"query"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`
}

type SourceConfig struct {
	Kind     string        `mapstructure:"kind" yaml:"kind"`
	Device   int           `mapstructure:"device" yaml:"device"`
	Path     string        `mapstructure:"path" yaml:"path"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	// Width and Height size the pattern source.
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
	// Region limits the screen source to a "WxH+X+Y" rectangle; empty
	// captures the whole primary screen.
	Region string `mapstructure:"region" yaml:"region"`
}

type ModelConfig struct {
	Backend      string        `mapstructure:"backend" yaml:"backend"`
	Path         string        `mapstructure:"path" yaml:"path"`
	Command      string        `mapstructure:"command" yaml:"command"`
	Args         []string      `mapstructure:"args" yaml:"args"`
	LoadTimeout  time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
	InferTimeout time.Duration `mapstructure:"infer_timeout" yaml:"infer_timeout"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout" yaml:"stop_timeout"`
}

type QueryConfig struct {
	Prompt     string  `mapstructure:"prompt" yaml:"prompt"`
	Confidence float64 `mapstructure:"confidence" yaml:"confidence"`
}

type PipelineConfig struct {
	QueueDepth  int           `mapstructure:"queue_depth" yaml:"queue_depth"`
	PopTimeout  time.Duration `mapstructure:"pop_timeout" yaml:"pop_timeout"`
	JoinTimeout time.Duration `mapstructure:"join_timeout" yaml:"join_timeout"`
}

type UIConfig struct {
	Title         string        `mapstructure:"title" yaml:"title"`
	Width         int           `mapstructure:"width" yaml:"width"`
	Height        int           `mapstructure:"height" yaml:"height"`
	PreviewWidth  int           `mapstructure:"preview_width" yaml:"preview_width"`
	PreviewHeight int           `mapstructure:"preview_height" yaml:"preview_height"`
	Tick          time.Duration `mapstructure:"tick" yaml:"tick"`
	ThumbWidth    int           `mapstructure:"thumb_width" yaml:"thumb_width"`
	ThumbHeight   int           `mapstructure:"thumb_height" yaml:"thumb_height"`
	MinSelection  int           `mapstructure:"min_selection" yaml:"min_selection"`
	ThumbCache    int           `mapstructure:"thumb_cache" yaml:"thumb_cache"`
	Dark          bool          `mapstructure:"dark" yaml:"dark"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Source: SourceConfig{
			Kind:     SourceCamera,
			Interval: 30 * time.Millisecond,
			Width:    640,
			Height:   480,
		},
		Model: ModelConfig{
			Backend:      BackendBridge,
			Command:      "python3",
			Args:         []string{"-m", "promptcam_worker"},
			LoadTimeout:  60 * time.Second,
			InferTimeout: 10 * time.Second,
			StopTimeout:  2 * time.Second,
		},
		Query: QueryConfig{Confidence: query.DefaultConfidence},
		Pipeline: PipelineConfig{
			QueueDepth:  2,
			PopTimeout:  100 * time.Millisecond,
			JoinTimeout: 2 * time.Second,
		},
		UI: UIConfig{
			Title:         "promptcam",
			Width:         1100,
			Height:        720,
			PreviewWidth:  750,
			PreviewHeight: 560,
			Tick:          33 * time.Millisecond,
			ThumbWidth:    80,
			ThumbHeight:   50,
			MinSelection:  geometry.MinSelectionPx,
			ThumbCache:    64,
		},
	}
}

// Validate clamps/normalizes values to safe ranges. It only fails for
// unknown enum values.
func (c *Config) Validate() error {
	def := DefaultConfig()
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("%w: log_level %q (want one of %s)", ErrInvalid, c.LogLevel, strings.Join(logLevels, ", "))
	}

	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = def.Source.Kind
	}
	if !slices.Contains(sourceKinds, c.Source.Kind) {
		return fmt.Errorf("%w: source.kind %q (want one of %s)", ErrInvalid, c.Source.Kind, strings.Join(sourceKinds, ", "))
	}
	if c.Source.Kind == SourceFile && c.Source.Path == "" {
		return fmt.Errorf("%w: source.path is required for file sources", ErrInvalid)
	}
	if c.Source.Device < 0 {
		c.Source.Device = 0
	}
	if c.Source.Interval < 0 {
		c.Source.Interval = def.Source.Interval
	}
	if c.Source.Width <= 0 || c.Source.Height <= 0 {
		c.Source.Width, c.Source.Height = def.Source.Width, def.Source.Height
	}
	if _, ok := geometry.ParseGeometry(c.Source.Region); !ok {
		c.Source.Region = ""
	}

	c.Model.Backend = strings.ToLower(strings.TrimSpace(c.Model.Backend))
	if c.Model.Backend == "" {
		c.Model.Backend = def.Model.Backend
	}
	if !slices.Contains(backends, c.Model.Backend) {
		return fmt.Errorf("%w: model.backend %q (want one of %s)", ErrInvalid, c.Model.Backend, strings.Join(backends, ", "))
	}
	if c.Model.Command == "" {
		c.Model.Command = def.Model.Command
	}
	if c.Model.LoadTimeout <= 0 {
		c.Model.LoadTimeout = def.Model.LoadTimeout
	}
	if c.Model.InferTimeout < 0 {
		c.Model.InferTimeout = 0
	}
	if c.Model.StopTimeout <= 0 {
		c.Model.StopTimeout = def.Model.StopTimeout
	}

	c.Query.Confidence = query.ClampConfidence(c.Query.Confidence)

	// the queue depth is part of the latency contract, not a tuning knob
	c.Pipeline.QueueDepth = def.Pipeline.QueueDepth
	if c.Pipeline.PopTimeout <= 0 {
		c.Pipeline.PopTimeout = def.Pipeline.PopTimeout
	}
	if c.Pipeline.JoinTimeout <= 0 {
		c.Pipeline.JoinTimeout = def.Pipeline.JoinTimeout
	}

	if c.UI.Title == "" {
		c.UI.Title = def.UI.Title
	}
	if c.UI.Width < 320 || c.UI.Height < 240 {
		c.UI.Width, c.UI.Height = def.UI.Width, def.UI.Height
	}
	if c.UI.PreviewWidth < 160 || c.UI.PreviewHeight < 120 {
		c.UI.PreviewWidth, c.UI.PreviewHeight = def.UI.PreviewWidth, def.UI.PreviewHeight
	}
	if c.UI.Tick < 10*time.Millisecond {
		c.UI.Tick = def.UI.Tick
	}
	if c.UI.ThumbWidth <= 0 || c.UI.ThumbHeight <= 0 {
		c.UI.ThumbWidth, c.UI.ThumbHeight = def.UI.ThumbWidth, def.UI.ThumbHeight
	}
	if c.UI.MinSelection < geometry.MinSelectionPx {
		c.UI.MinSelection = geometry.MinSelectionPx
	}
	if c.UI.ThumbCache <= 0 {
		c.UI.ThumbCache = def.UI.ThumbCache
	}
	return nil
}

// ScreenRegion returns the configured screen capture rectangle, if any.
func (c *Config) ScreenRegion() (image.Rectangle, bool) {
	return geometry.ParseGeometry(c.Source.Region)
}

// WorkerCommand returns the model worker command line.
func (c *Config) WorkerCommand() []string {
	return append([]string{c.Model.Command}, c.Model.Args...)
}

// Save writes the configuration to path as yaml.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
