package engine

import (
	"encoding/csv"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type StimType int

const (
	StimText StimType = iota
	StimImage
	StimFixation
	StimBlank
)

func ParseStimType(s string) (StimType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return StimText, nil
	case "image":
		return StimImage, nil
	case "fixation":
		return StimFixation, nil
	case "blank":
		return StimBlank, nil
	}
	return 0, fmt.Errorf("%w: unknown stimulus type %q", ErrConfiguration, s)
}

// TrialSpec is one row of a trial file.
type TrialSpec struct {
	Name         string
	Type         StimType
	Content      string
	Modality     Modality
	Choices      []string
	RespStart    time.Duration
	Duration     time.Duration
	PostTrialGap time.Duration
}

// Stimulus builds the drawable for the row. Image paths are relative to
// dir; images larger than the window are shrunk to fit.
func (s TrialSpec) Stimulus(win Window, dir string, col color.Color) (Drawable, error) {
	if col == nil {
		col = Black
	}
	switch s.Type {
	case StimText:
		return &Text{Content: s.Content, Height: 0.1, Color: col, WrapWidth: 1.6}, nil
	case StimImage:
		path := filepath.Join(dir, s.Content)
		size, err := win.LoadImage(path)
		if err != nil {
			return nil, err
		}
		return &Image{Path: path, Size: fitWindow(size, win.Aspect())}, nil
	case StimFixation:
		return NewFixation(col), nil
	}
	return Blank, nil
}

// Options turns the row into trial options. Button rows without choices
// use boxes.
func (s TrialSpec) Options(boxes *Boxes) ([]TrialOption, error) {
	opts := []TrialOption{
		WithName(s.Name),
		WithResponseType(s.Modality),
		WithResponseStart(s.RespStart),
		WithDuration(s.Duration),
		WithPostTrialGap(s.PostTrialGap),
	}
	switch s.Modality {
	case ModalityKey, "":
		if len(s.Choices) > 0 {
			opts = append(opts, WithChoices(Keys(s.Choices)))
		}
	case ModalityButton:
		switch {
		case len(s.Choices) > 0:
			opts = append(opts, WithChoices(Labels(s.Choices)))
		case boxes != nil:
			opts = append(opts, WithChoices(boxes))
		default:
			return nil, fmt.Errorf("%w: button trial %q has no choices and no boxes", ErrConfiguration, s.Name)
		}
	}
	return opts, nil
}

// LoadTrials reads a trial file. Columns are
//
//	name,type,content[,response[,choices[,resp_start_ms[,duration_ms[,gap_ms]]]]]
//
// where choices are separated by "|". A first row starting with "name" is
// treated as a header.
func LoadTrials(path string) ([]TrialSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTrials(f)
}

func ParseTrials(r io.Reader) ([]TrialSpec, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var trials []TrialSpec
	for i, record := range records {
		if i == 0 && len(record) > 0 && strings.EqualFold(record[0], "name") {
			continue
		}
		if len(record) < 3 {
			continue
		}

		stype, err := ParseStimType(record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		spec := TrialSpec{
			Name:     record[0],
			Type:     stype,
			Content:  record[2],
			Modality: ModalityKey,
		}
		if v := field(record, 3); v != "" {
			if spec.Modality, err = ParseModality(v); err != nil {
				return nil, fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if v := field(record, 4); v != "" {
			spec.Choices = strings.Split(v, "|")
		}
		for j, dst := range []*time.Duration{&spec.RespStart, &spec.Duration, &spec.PostTrialGap} {
			v := field(record, 5+j)
			if v == "" {
				continue
			}
			ms, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid duration %q: %w", i+1, v, err)
			}
			*dst = time.Duration(ms) * time.Millisecond
		}
		trials = append(trials, spec)
	}
	return trials, nil
}

func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
