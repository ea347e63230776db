package engine

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
)

type EventLogEntry struct {
	Trial string
	Time  time.Duration
	Type  string
	Label string
}

// EventLog collects onsets and responses in memory. Writing it anywhere
// is up to the caller.
type EventLog struct {
	Entries []EventLogEntry
}

func (l *EventLog) Log(trial string, at time.Duration, etype, label string) {
	l.Entries = append(l.Entries, EventLogEntry{
		Trial: trial,
		Time:  at,
		Type:  etype,
		Label: label,
	})
}

// Save writes the log as CSV with times in milliseconds from the host
// clock origin.
func (l *EventLog) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"trial", "time_ms", "type", "label"})
	for _, e := range l.Entries {
		w.Write([]string{
			e.Trial,
			strconv.FormatFloat(float64(e.Time)/float64(time.Millisecond), 'f', 3, 64),
			e.Type,
			e.Label,
		})
	}
	w.Flush()
	return w.Error()
}

// Result is the outcome of one trial of an experiment.
type Result struct {
	Trial    string
	Stimulus string
	State    State
	Response Response
}

// Experiment is a list of instruction pages followed by trials.
type Experiment struct {
	Instructions []Page
	Trials       []TrialSpec
}

// RunOptions wires an experiment to its surroundings.
type RunOptions struct {
	// StimuliDir is prepended to image stimulus paths.
	StimuliDir string
	// Boxes, when set, is drawn in every trial and serves as the buttons
	// of button trials that list no choices.
	Boxes *Boxes
	// Fixation is shown for FixationDuration before each trial.
	Fixation         Drawable
	FixationDuration time.Duration
	TextColor        color.Color
	Navigation       Modality
	// TrialOptions apply to every trial and to the instruction pages.
	TrialOptions       []TrialOption
	InstructionOptions []InstructionOption
	Logger             *log.Logger
}

// RunExperiment shows the instructions and runs every trial in order.
// It stops early, returning the results so far, when a trial is aborted
// and the abort callback returns.
func RunExperiment(h Host, exp *Experiment, opts RunOptions) ([]Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	base := append([]TrialOption{WithLogger(logger)}, opts.TrialOptions...)

	if len(exp.Instructions) > 0 {
		nav := opts.Navigation
		if nav == "" {
			nav = ModalityKey
		}
		iopts := append([]InstructionOption{WithNavigation(nav), WithPageTrialOptions(base...)}, opts.InstructionOptions...)
		in, err := NewInstructions(h, exp.Instructions, iopts...)
		if err != nil {
			return nil, err
		}
		res, err := in.Run()
		if err != nil {
			return nil, err
		}
		if res.Aborted {
			return nil, nil
		}
	}

	results := make([]Result, 0, len(exp.Trials))
	for i, spec := range exp.Trials {
		stim, err := spec.Stimulus(h, opts.StimuliDir, opts.TextColor)
		if err != nil {
			return results, fmt.Errorf("trial %d (%s): %w", i+1, spec.Name, err)
		}
		topts, err := spec.Options(opts.Boxes)
		if err != nil {
			return results, fmt.Errorf("trial %d (%s): %w", i+1, spec.Name, err)
		}
		trial, err := NewTrial(h, []Drawable{stim}, append(slices.Clone(base), topts...)...)
		if err != nil {
			return results, fmt.Errorf("trial %d (%s): %w", i+1, spec.Name, err)
		}
		// A trial already draws its own buttons.
		if opts.Boxes != nil && trial.Buttons() != opts.Boxes {
			trial.Update(nil, []Drawable{opts.Boxes, stim})
		}

		if opts.Fixation != nil && opts.FixationDuration > 0 {
			opts.Fixation.Draw(h)
			h.Flip()
			h.Wait(opts.FixationDuration)
		}

		state := trial.Run()
		resp := trial.Response()
		results = append(results, Result{Trial: spec.Name, Stimulus: spec.Content, State: state, Response: resp})
		logger.Info("trial done", "n", i+1, "trial", spec.Name, "state", state, "response", resp.Value(), "rt", resp.RT)
		if state == Aborted {
			break
		}
	}
	return results, nil
}
