package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soocke/promptcam/app"
	"github.com/soocke/promptcam/config"
)

func main() {
	if err := newRootCmd(runApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runApp(cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	application, err := app.NewApp(cfg, cfgPath, logger)
	if err != nil {
		return err
	}
	application.Start()
	return nil
}
