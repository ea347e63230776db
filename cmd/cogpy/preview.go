package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/preview"
)

func newPreviewCmd() *cobra.Command {
	var (
		output   string
		maxTrials int
	)
	cmd := &cobra.Command{
		Use:   "preview [experiment.toml]",
		Short: "Render the layout, instructions and trials to PDF",
		Long:  `Preview draws every screen of an experiment into a PDF without opening a window: the box layout first, then each instruction page, then each trial's stimulus on top of the boxes.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig(args)
			if err != nil {
				return err
			}
			return renderPreview(cmd.Context(), cfg, dir, output, maxTrials)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "preview.pdf", "output PDF file")
	cmd.Flags().IntVar(&maxTrials, "max-trials", 0, "preview at most this many trials (0 for all)")
	return cmd
}

func renderPreview(ctx context.Context, cfg *engine.Config, dir, output string, maxTrials int) error {
	logger := loggerFromContext(ctx)
	bg, textColor, _, err := parseColors(cfg)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := preview.New(f, cfg.Window.Aspect(), preview.Options{
		ReferenceHeight: float64(cfg.Window.Height),
		Background:      bg,
		FontFile:        resolve(dir, cfg.Window.FontFile),
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	var boxes *engine.Boxes
	if bc := boxesConfig(dir, cfg.Boxes); bc != nil {
		if boxes, err = bc.Build(doc, engine.WithBoxLogger(logger)); err != nil {
			return fmt.Errorf("boxes: %w", err)
		}
		boxes.Draw(doc)
		doc.Flip()
	}

	for _, p := range pages(dir, cfg.Instructions.Pages) {
		if p.Image != "" {
			size, err := doc.LoadImage(p.Image)
			if err != nil {
				return err
			}
			(&engine.Image{Path: p.Image, Size: size}).Draw(doc)
		} else {
			(&engine.Text{Content: p.Text, Height: 0.05, Color: textColor, WrapWidth: 1.6}).Draw(doc)
		}
		doc.Flip()
	}

	if cfg.Trials.File != "" {
		trials, err := engine.LoadTrials(resolve(dir, cfg.Trials.File))
		if err != nil {
			return fmt.Errorf("load trials: %w", err)
		}
		if maxTrials > 0 && len(trials) > maxTrials {
			trials = trials[:maxTrials]
		}
		for _, spec := range trials {
			stim, err := spec.Stimulus(doc, resolve(dir, cfg.Trials.StimuliDir), textColor)
			if err != nil {
				return fmt.Errorf("trial %s: %w", spec.Name, err)
			}
			if boxes != nil {
				boxes.Draw(doc)
			}
			stim.Draw(doc)
			doc.Flip()
		}
	}

	if err := doc.Finish(); err != nil {
		return err
	}
	logger.Info("preview written", "path", output, "pages", doc.Pages())
	return nil
}
