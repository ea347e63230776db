package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chenyu-psy/cogpy/engine"
)

func execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "cogpy",
		Short:        "cogpy runs box-layout experiments",
		Long:         `cogpy presents stimuli in arranged boxes and records key, button and mouse responses with millisecond timing.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(os.Stderr, level)
			log.SetDefault(logger)
			cmd.SetContext(withLogger(cmd.Context(), logger))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newLayoutCmd())

	return root.ExecuteContext(context.Background())
}

var errNoConfig = errors.New("no experiment file given and none remembered")

// loadConfig reads the experiment file named in args, else the one used
// last time. It returns the directory relative paths are resolved in.
func loadConfig(args []string) (*engine.Config, string, error) {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		path = engine.LoadCache()
	}
	if path == "" {
		return nil, "", errNoConfig
	}
	cfg, err := engine.LoadConfig(path)
	if err != nil {
		return nil, "", err
	}
	engine.SaveCache(path)
	return cfg, filepath.Dir(path), nil
}

// resolve makes p relative to dir unless it is empty or absolute.
func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// pages turns instruction entries into pages, resolving image paths.
func pages(dir string, entries []string) []engine.Page {
	resolved := make([]string, len(entries))
	for i, e := range entries {
		resolved[i] = e
		if p := resolve(dir, e); fileExists(p) {
			resolved[i] = p
		}
	}
	return engine.PagesFromStrings(resolved)
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// boxesConfig returns a copy of c with image paths resolved.
func boxesConfig(dir string, c *engine.BoxesConfig) *engine.BoxesConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Images = make([]string, len(c.Images))
	for i, p := range c.Images {
		out.Images[i] = resolve(dir, p)
	}
	return &out
}

func parseColors(cfg *engine.Config) (bg, text, fix color.RGBA, err error) {
	if bg, err = engine.ParseColor(cfg.Window.Background); err != nil {
		return bg, text, fix, fmt.Errorf("background: %w", err)
	}
	if text, err = engine.ParseColor(cfg.Window.TextColor); err != nil {
		return bg, text, fix, fmt.Errorf("text color: %w", err)
	}
	if fix, err = engine.ParseColor(cfg.Trials.FixationColor); err != nil {
		return bg, text, fix, fmt.Errorf("fixation color: %w", err)
	}
	return bg, text, fix, nil
}
