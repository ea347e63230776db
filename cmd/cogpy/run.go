package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/bin/binimg"
	"github.com/Zyko0/go-sdl3/bin/binsdl"
	"github.com/Zyko0/go-sdl3/bin/binttf"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/sdlhost"
	"github.com/chenyu-psy/cogpy/trigger"
)

func newRunCmd() *cobra.Command {
	var (
		output     string
		noFixation bool
		fullscreen bool
	)
	cmd := &cobra.Command{
		Use:   "run [experiment.toml]",
		Short: "Run an experiment on screen",
		Long:  `Run shows the instruction pages, then every trial of the trial file, and saves one result row per trial. Without an argument the last experiment file is used.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, dir, err := loadConfig(args)
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Trials.Output = output
			}
			if noFixation {
				cfg.Trials.UseFixation = false
			}
			if fullscreen {
				cfg.Window.Fullscreen = true
			}
			return runExperiment(cmd.Context(), cfg, dir)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "results file (overrides [trials] output)")
	cmd.Flags().BoolVar(&noFixation, "no-fixation", false, "disable the fixation cross")
	cmd.Flags().BoolVar(&fullscreen, "fullscreen", false, "run fullscreen")
	return cmd
}

func runExperiment(ctx context.Context, cfg *engine.Config, dir string) error {
	logger := loggerFromContext(ctx)
	if cfg.Trials.File == "" {
		return fmt.Errorf("%w: [trials] file is required", engine.ErrConfiguration)
	}
	trials, err := engine.LoadTrials(resolve(dir, cfg.Trials.File))
	if err != nil {
		return fmt.Errorf("load trials: %w", err)
	}
	nav, err := engine.ParseModality(cfg.Instructions.Navigation)
	if err != nil {
		return err
	}
	bg, textColor, fixColor, err := parseColors(cfg)
	if err != nil {
		return err
	}

	defer binsdl.Load().Unload()
	defer binimg.Load().Unload()
	defer binttf.Load().Unload()

	host, err := sdlhost.New(sdlhost.Config{
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Background: bg,
		FontFile:   resolve(dir, cfg.Window.FontFile),
		QuitKey:    cfg.Trials.AbortKey,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer host.Close()

	events := &engine.EventLog{}
	aborted := false
	topts := []engine.TrialOption{
		engine.WithAbortKey(cfg.Trials.AbortKey),
		engine.WithAbortFunc(func(engine.Host) { aborted = true }),
		engine.WithPollInterval(cfg.Trials.PollInterval()),
		engine.WithEventLog(events),
	}
	if cfg.Trigger.Device != "" {
		dlp, err := trigger.Open(cfg.Trigger.Device, cfg.Trigger.BaudRate, logger)
		if err != nil {
			logger.Error("failed to initialize trigger device", "device", cfg.Trigger.Device, "err", err)
		} else {
			defer dlp.Close()
			topts = append(topts, engine.WithTrigger(dlp))
		}
	}

	opts := engine.RunOptions{
		StimuliDir:   resolve(dir, cfg.Trials.StimuliDir),
		TextColor:    textColor,
		Navigation:   nav,
		TrialOptions: topts,
		InstructionOptions: []engine.InstructionOption{
			engine.WithPageResponseStart(time.Duration(cfg.Instructions.RespStartMS) * time.Millisecond),
			engine.WithPageTextStyle(engine.TextStyle{Height: 0.05, Color: textColor, WrapWidth: 1.6}),
		},
		Logger: logger,
	}
	if bc := boxesConfig(dir, cfg.Boxes); bc != nil {
		if opts.Boxes, err = bc.Build(host, engine.WithBoxLogger(logger)); err != nil {
			return fmt.Errorf("boxes: %w", err)
		}
	}
	if cfg.Trials.UseFixation {
		opts.Fixation = engine.NewFixation(fixColor)
		opts.FixationDuration = cfg.Trials.FixationDuration()
	}

	exp := &engine.Experiment{Instructions: pages(dir, cfg.Instructions.Pages), Trials: trials}
	logger.Info("starting session", "trials", len(trials), "pages", len(exp.Instructions))
	results, runErr := engine.RunExperiment(host, exp, opts)
	if aborted {
		logger.Warn("session aborted", "completed", len(results))
	}

	session := uuid.NewString()
	out := timestamped(resolve(dir, cfg.Trials.Output), time.Now())
	if err := writeResults(out, session, results); err != nil {
		logger.Error("failed to save results", "err", err)
	} else {
		logger.Info("results saved", "path", out, "session", session)
	}
	eventsPath := strings.TrimSuffix(out, ".csv") + "_events.csv"
	if err := events.Save(eventsPath); err != nil {
		logger.Error("failed to save event log", "err", err)
	}
	fmt.Println(renderSummary(summarize(results)))
	return runErr
}

// timestamped inserts the start time before the extension, as in
// results_20060102-150405.csv.
func timestamped(path string, t time.Time) string {
	stamp := "_" + t.Format("20060102-150405")
	if strings.HasSuffix(path, ".csv") {
		return strings.TrimSuffix(path, ".csv") + stamp + ".csv"
	}
	return path + stamp + ".csv"
}
