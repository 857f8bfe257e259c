package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name searched for, without extension.
	ConfigFileName = "promptcam"
	// EnvPrefix prefixes environment overrides, e.g. PROMPTCAM_QUERY_CONFIDENCE.
	EnvPrefix = "PROMPTCAM"
)

// Loader reads configuration from files, environment variables and any flags
// bound to its viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader wraps v; nil gets a fresh instance.
func NewLoader(v *viper.Viper) *Loader {
	if v == nil {
		v = viper.New()
	}
	return &Loader{v: v}
}

// Viper exposes the instance so callers can bind flags to it.
func (l *Loader) Viper() *viper.Viper { return l.v }

// ConfigFileUsed returns the file read by the last Load, if any.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// Load resolves the configuration. An empty path searches the standard
// locations and tolerates a missing file; an explicit path must exist.
func (l *Loader) Load(path string) (*Config, error) {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		for _, p := range SearchPaths() {
			l.v.AddConfigPath(p)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SearchPaths lists the directories searched when no file is given.
func SearchPaths() []string {
	paths := []string{"."}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		paths = append(paths, filepath.Join(dir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}
	return paths
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func (l *Loader) setDefaults() {
	d := DefaultConfig()
	l.v.SetDefault("debug", d.Debug)
	l.v.SetDefault("log_level", d.LogLevel)

	l.v.SetDefault("source.kind", d.Source.Kind)
	l.v.SetDefault("source.device", d.Source.Device)
	l.v.SetDefault("source.path", d.Source.Path)
	l.v.SetDefault("source.interval", d.Source.Interval)
	l.v.SetDefault("source.width", d.Source.Width)
	l.v.SetDefault("source.height", d.Source.Height)
	l.v.SetDefault("source.region", d.Source.Region)

	l.v.SetDefault("model.backend", d.Model.Backend)
	l.v.SetDefault("model.path", d.Model.Path)
	l.v.SetDefault("model.command", d.Model.Command)
	l.v.SetDefault("model.args", d.Model.Args)
	l.v.SetDefault("model.load_timeout", d.Model.LoadTimeout)
	l.v.SetDefault("model.infer_timeout", d.Model.InferTimeout)
	l.v.SetDefault("model.stop_timeout", d.Model.StopTimeout)

	l.v.SetDefault("query.prompt", d.Query.Prompt)
	l.v.SetDefault("query.confidence", d.Query.Confidence)

	l.v.SetDefault("pipeline.queue_depth", d.Pipeline.QueueDepth)
	l.v.SetDefault("pipeline.pop_timeout", d.Pipeline.PopTimeout)
	l.v.SetDefault("pipeline.join_timeout", d.Pipeline.JoinTimeout)

	l.v.SetDefault("ui.title", d.UI.Title)
	l.v.SetDefault("ui.width", d.UI.Width)
	l.v.SetDefault("ui.height", d.UI.Height)
	l.v.SetDefault("ui.preview_width", d.UI.PreviewWidth)
	l.v.SetDefault("ui.preview_height", d.UI.PreviewHeight)
	l.v.SetDefault("ui.tick", d.UI.Tick)
	l.v.SetDefault("ui.thumb_width", d.UI.ThumbWidth)
	l.v.SetDefault("ui.thumb_height", d.UI.ThumbHeight)
	l.v.SetDefault("ui.min_selection", d.UI.MinSelection)
	l.v.SetDefault("ui.thumb_cache", d.UI.ThumbCache)
	l.v.SetDefault("ui.dark", d.UI.Dark)
}
