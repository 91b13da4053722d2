package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/sketchbox/internal/app"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/config"
	"github.com/GriffinCanCode/sketchbox/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sketchbox/internal/sandbox/preview"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if apiFlag != "" {
		cfg.API.BaseURL = apiFlag
	}
	if devFlag {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}
	return cfg, nil
}

func openApp() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// stdout carries command output; logs go to stderr at warn unless --dev.
	level := "warn"
	if cfg.Logging.Development {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Config{
		Level:       level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return app.New(cfg, logger)
}

func printJSON(w io.Writer, v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printResult(w io.Writer, res *preview.Result) {
	fmt.Fprintf(w, "%-10s %s\n", "kind", res.Kind)
	fmt.Fprintf(w, "%-10s %s\n", "outcome", res.Outcome)
	fmt.Fprintf(w, "%-10s %d\n", "frames", res.Frames)
	if res.Surface != nil {
		fmt.Fprintf(w, "%-10s %dx%d %s, %d presented, %d commands\n", "surface",
			res.Surface.Width, res.Surface.Height, res.Surface.Context, res.Surface.Frames, res.Surface.Commands)
	}
	if res.Kind == "scene" {
		fmt.Fprintf(w, "%-10s %d\n", "gpu", res.GPUResources)
	}
	ft := res.FrameTime
	fmt.Fprintf(w, "%-10s mean %.2fms  p95 %.2fms  max %.2fms\n", "frame time", ft.Mean, ft.P95, ft.Max)
	for _, line := range res.Console {
		fmt.Fprintf(w, "console.%s: %s\n", line.Level, line.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "error: %s\n", e)
	}
}

// errFailed signals a program that ran but did not come up live.
var errFailed = errors.New("animation did not run cleanly")
