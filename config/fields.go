package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Field is one setting exposed in the settings form.
type Field struct {
	Key   string
	Label string
}

// EditableFields lists the form rows in display order.
var EditableFields = []Field{
	{Key: "source.device", Label: "Camera Device"},
	{Key: "source.path", Label: "Video File"},
	{Key: "source.interval", Label: "Read Interval (ms)"},
	{Key: "model.path", Label: "Model Path"},
	{Key: "model.command", Label: "Worker Command"},
	{Key: "query.confidence", Label: "Start Confidence"},
	{Key: "ui.min_selection", Label: "Min Selection (px)"},
	{Key: "ui.dark", Label: "Dark Mode (true/false)"},
	{Key: "debug", Label: "Debug (true/false)"},
}

// FieldValue renders the current value of an editable field.
func (c *Config) FieldValue(key string) string {
	switch key {
	case "source.device":
		return strconv.Itoa(c.Source.Device)
	case "source.path":
		return c.Source.Path
	case "source.interval":
		return strconv.FormatInt(c.Source.Interval.Milliseconds(), 10)
	case "model.path":
		return c.Model.Path
	case "model.command":
		return c.Model.Command
	case "query.confidence":
		return fmt.Sprintf("%.2f", c.Query.Confidence)
	case "ui.min_selection":
		return strconv.Itoa(c.UI.MinSelection)
	case "ui.dark":
		return strconv.FormatBool(c.UI.Dark)
	case "debug":
		return strconv.FormatBool(c.Debug)
	}
	return ""
}

// WithFields returns a validated copy of c with the form values applied.
// Values that do not parse keep their current setting; unknown keys are
// ignored.
func (c *Config) WithFields(values map[string]string) (*Config, error) {
	cfg := *c // copy
	cfg.Model.Args = slices.Clone(c.Model.Args)
	for key, raw := range values {
		raw = strings.TrimSpace(raw)
		switch key {
		case "source.device":
			if i, ok := parseIntField(raw); ok {
				cfg.Source.Device = i
			}
		case "source.path":
			cfg.Source.Path = raw
		case "source.interval":
			if i, ok := parseIntField(raw); ok {
				cfg.Source.Interval = time.Duration(i) * time.Millisecond
			}
		case "model.path":
			cfg.Model.Path = raw
		case "model.command":
			if raw != "" {
				cfg.Model.Command = raw
			}
		case "query.confidence":
			if f, ok := parseFloatField(raw); ok {
				cfg.Query.Confidence = f
			}
		case "ui.min_selection":
			if i, ok := parseIntField(raw); ok {
				cfg.UI.MinSelection = i
			}
		case "ui.dark":
			if b, ok := parseBoolLoose(raw); ok {
				cfg.UI.Dark = b
			}
		case "debug":
			if b, ok := parseBoolLoose(raw); ok {
				cfg.Debug = b
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
