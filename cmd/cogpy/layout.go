package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/preview"
)

func newLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout [experiment.toml]",
		Short: "Print the computed box positions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig(args)
			if err != nil {
				return err
			}
			bc := boxesConfig(dir, cfg.Boxes)
			if bc == nil {
				return fmt.Errorf("%w: no [boxes] table", engine.ErrConfiguration)
			}
			// The PDF is discarded; the document only measures.
			doc, err := preview.New(io.Discard, cfg.Window.Aspect(), preview.Options{ReferenceHeight: float64(cfg.Window.Height)})
			if err != nil {
				return err
			}
			boxes, err := bc.Build(doc, engine.WithBoxLogger(loggerFromContext(cmd.Context())))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderLayout(bc.Layout.Kind, boxes))
			return nil
		},
	}
}

func renderLayout(strategy string, boxes *engine.Boxes) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%s layout, %d boxes", strategy, boxes.Len())) + "\n")
	for _, box := range boxes.All() {
		b.WriteString(fmt.Sprintf("  %s  %s %s  %s\n",
			styleNumber.Render(fmt.Sprintf("%-4s", box.Slot)),
			styleValue.Render(fmt.Sprintf("x=%+.3f", box.Pos.X)),
			styleValue.Render(fmt.Sprintf("y=%+.3f", box.Pos.Y)),
			styleDim.Render(boxes.Label(box.Slot)),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}
