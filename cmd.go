package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/soocke/promptcam/config"
)

// defaultConfigPath is where settings edits land when no file was loaded.
const defaultConfigPath = config.ConfigFileName + ".yaml"

// RunFunc starts the application with a resolved configuration. cfgPath is
// the file settings edits are written to.
type RunFunc func(cfg *config.Config, cfgPath string, logger *slog.Logger) error

// flagBindings maps config keys to command-line flags.
var flagBindings = []struct {
	key  string
	flag string
}{
	{"log_level", "log-level"},
	{"debug", "debug"},
	{"source.kind", "source"},
	{"source.device", "device"},
	{"source.path", "file"},
	{"source.region", "region"},
	{"model.backend", "backend"},
	{"model.path", "model"},
	{"model.command", "worker-cmd"},
	{"query.prompt", "prompt"},
	{"query.confidence", "confidence"},
}

func addFlags(fs *pflag.FlagSet, cfgFile *string) {
	d := config.DefaultConfig()
	fs.StringVar(cfgFile, "config", "", "config file (default is search in ., $XDG_CONFIG_HOME/promptcam, $HOME/.config/promptcam)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.Bool("debug", d.Debug, "log runtime and pipeline metrics periodically")
	fs.String("source", d.Source.Kind, "frame source (camera, file, screen, pattern)")
	fs.Int("device", d.Source.Device, "camera device index")
	fs.String("file", d.Source.Path, "video file for --source file")
	fs.String("region", d.Source.Region, "screen region WxH+X+Y for --source screen")
	fs.String("backend", d.Model.Backend, "recognition backend (bridge, template, none)")
	fs.String("model", d.Model.Path, "model checkpoint passed to the backend")
	fs.String("worker-cmd", d.Model.Command, "executable started by the bridge backend")
	fs.String("prompt", d.Query.Prompt, "initial text prompt, terms separated by commas")
	fs.Float64("confidence", d.Query.Confidence, "initial confidence threshold")
}

// newRootCmd builds the command tree. run is called by the root command once
// the configuration is resolved.
func newRootCmd(run RunFunc) *cobra.Command {
	var cfgFile string
	loader := config.NewLoader(nil)

	resolve := func(cmd *cobra.Command) (*config.Config, string, error) {
		for _, b := range flagBindings {
			if err := loader.Viper().BindPFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
				return nil, "", fmt.Errorf("bind flag %s: %w", b.flag, err)
			}
		}
		cfg, err := loader.Load(cfgFile)
		if err != nil {
			return nil, "", err
		}
		path := loader.ConfigFileUsed()
		if path == "" {
			path = defaultConfigPath
		}
		return cfg, path, nil
	}

	root := &cobra.Command{
		Use:   "promptcam",
		Short: "Live open-vocabulary detection on a camera or screen feed",
		Long: `promptcam shows a live video feed and highlights objects matching a
text prompt and/or example regions drawn on the preview.

Examples:
  promptcam --prompt "cup, bottle"
  promptcam --source file --file clip.mp4 --backend template
  promptcam write-config promptcam.yaml`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := resolve(cmd)
			if err != nil {
				return err
			}
			level := ParseLevel(cfg.LogLevel)
			if cfg.Debug {
				level = slog.LevelDebug
			}
			logger := NewLogger(cmd.OutOrStdout(), level)
			logger.Info("config", "file", loader.ConfigFileUsed(), "source", cfg.Source.Kind, "backend", cfg.Model.Backend)
			return run(cfg, path, logger)
		},
	}
	addFlags(root.PersistentFlags(), &cfgFile)

	writeCfg := &cobra.Command{
		Use:   "write-config [path]",
		Short: "Write the resolved configuration to a yaml file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := resolve(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				path = args[0]
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	root.AddCommand(writeCfg)
	return root
}
