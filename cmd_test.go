package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/promptcam/config"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func TestRootCommand_FlagsReachConfig(t *testing.T) {
	isolate(t)
	var got *config.Config
	var gotPath string
	cmd := newRootCmd(func(cfg *config.Config, cfgPath string, _ *slog.Logger) error {
		got, gotPath = cfg, cfgPath
		return nil
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{"--prompt", "cup, bottle", "--confidence", "0.4", "--backend", "none", "--source", "pattern"})
	require.NoError(t, cmd.Execute())

	require.NotNil(t, got)
	assert.Equal(t, "cup, bottle", got.Query.Prompt)
	assert.InDelta(t, 0.4, got.Query.Confidence, 1e-9)
	assert.Equal(t, config.BackendNone, got.Model.Backend)
	assert.Equal(t, config.SourcePattern, got.Source.Kind)
	assert.Equal(t, defaultConfigPath, gotPath)
}

func TestRootCommand_DefaultsWithoutFlags(t *testing.T) {
	isolate(t)
	var got *config.Config
	cmd := newRootCmd(func(cfg *config.Config, _ string, _ *slog.Logger) error {
		got = cfg
		return nil
	})
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	d := config.DefaultConfig()
	assert.Equal(t, d.Source.Kind, got.Source.Kind)
	assert.Equal(t, d.Model.Backend, got.Model.Backend)
	assert.Equal(t, d.UI.Tick, got.UI.Tick)
}

func TestRootCommand_RejectsBadSource(t *testing.T) {
	isolate(t)
	called := false
	cmd := newRootCmd(func(*config.Config, string, *slog.Logger) error {
		called = true
		return nil
	})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--source", "satellite"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.False(t, called)
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "out.yaml")
	cmd := newRootCmd(func(*config.Config, string, *slog.Logger) error {
		t.Fatal("root run must not be called")
		return nil
	})
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"write-config", path, "--prompt", "cat", "--region", "200x100+10+20"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), path)

	cfg, err := config.NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cat", cfg.Query.Prompt)
	assert.Equal(t, "200x100+10+20", cfg.Source.Region)
	assert.Equal(t, config.DefaultConfig().Source.Interval, cfg.Source.Interval)
}
