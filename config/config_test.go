package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/promptcam/domain/geometry"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, []string{"python3", "-m", "promptcam_worker"}, cfg.WorkerCommand())
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Query.Confidence = 3
	cfg.Pipeline.QueueDepth = 10
	cfg.Pipeline.PopTimeout = -1
	cfg.UI.Tick = time.Millisecond
	cfg.UI.ThumbWidth = 0
	cfg.Source.Device = -2
	cfg.UI.MinSelection = 2
	cfg.LogLevel = " DEBUG "
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.95, cfg.Query.Confidence)
	assert.Equal(t, 2, cfg.Pipeline.QueueDepth)
	assert.Equal(t, 100*time.Millisecond, cfg.Pipeline.PopTimeout)
	assert.Equal(t, 33*time.Millisecond, cfg.UI.Tick)
	assert.Equal(t, 80, cfg.UI.ThumbWidth)
	assert.Equal(t, 0, cfg.Source.Device)
	assert.Equal(t, geometry.MinSelectionPx, cfg.UI.MinSelection)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg.UI.MinSelection = 24
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 24, cfg.UI.MinSelection, "larger minimum is kept")
}

func TestScreenRegion(t *testing.T) {
	cfg := DefaultConfig()
	_, ok := cfg.ScreenRegion()
	assert.False(t, ok)

	cfg.Source.Region = "320x200+10+20"
	require.NoError(t, cfg.Validate())
	r, ok := cfg.ScreenRegion()
	require.True(t, ok)
	assert.Equal(t, 320, r.Dx())
	assert.Equal(t, 20, r.Min.Y)

	cfg.Source.Region = "not a region"
	require.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.Source.Region)
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	cases := map[string]func(*Config){
		"log level": func(c *Config) { c.LogLevel = "loud" },
		"source":    func(c *Config) { c.Source.Kind = "webcam2" },
		"backend":   func(c *Config) { c.Model.Backend = "onnx" },
		"file path": func(c *Config) { c.Source.Kind = SourceFile },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "promptcam.yaml", `
log_level: warn
source:
  kind: pattern
  interval: 50ms
model:
  backend: template
query:
  prompt: "cup, dice"
  confidence: 0.01
ui:
  title: bench
`)
	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, SourcePattern, cfg.Source.Kind)
	assert.Equal(t, 50*time.Millisecond, cfg.Source.Interval)
	assert.Equal(t, BackendTemplate, cfg.Model.Backend)
	assert.Equal(t, "cup, dice", cfg.Query.Prompt)
	assert.Equal(t, 0.05, cfg.Query.Confidence)
	assert.Equal(t, "bench", cfg.UI.Title)
	// untouched keys keep their defaults
	assert.Equal(t, 560, cfg.UI.PreviewHeight)
	assert.Equal(t, 2*time.Second, cfg.Model.StopTimeout)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadFile(t *testing.T) {
	path := writeFile(t, "promptcam.yaml", "source: [unclosed")
	_, err := NewLoader(nil).Load(path)
	assert.Error(t, err)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("PROMPTCAM_QUERY_CONFIDENCE", "0.6")
	t.Setenv("PROMPTCAM_SOURCE_KIND", "screen")
	t.Setenv("PROMPTCAM_UI_TICK", "50ms")
	path := writeFile(t, "promptcam.yaml", "debug: true\n")

	cfg, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 0.6, cfg.Query.Confidence)
	assert.Equal(t, SourceScreen, cfg.Source.Kind)
	assert.Equal(t, 50*time.Millisecond, cfg.UI.Tick)
}

func TestLoadFlagsWin(t *testing.T) {
	l := NewLoader(nil)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("backend", "", "")
	require.NoError(t, l.Viper().BindPFlag("model.backend", fs.Lookup("backend")))
	require.NoError(t, fs.Parse([]string{"--backend", "none"}))

	path := writeFile(t, "promptcam.yaml", "model:\n  backend: template\n")
	cfg, err := l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendNone, cfg.Model.Backend)
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source.Kind = SourceScreen
	cfg.Query.Prompt = "red ball"
	cfg.Model.Args = []string{"worker.py", "--device", "cuda"}
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interval: 30ms")

	loaded, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
