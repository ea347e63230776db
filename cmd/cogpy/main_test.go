package main

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/engine/enginetest"
	"github.com/chenyu-psy/cogpy/layout"
)

func sampleResults() []engine.Result {
	return []engine.Result{
		{Trial: "a", Stimulus: "x", State: engine.Completed, Response: engine.Response{Kind: engine.KeyResponse, Keys: []string{"f"}, RT: 300 * time.Millisecond}},
		{Trial: "b", Stimulus: "y", State: engine.TimedOut},
		{Trial: "c", Stimulus: "z", State: engine.Completed, Response: engine.Response{Kind: engine.ButtonResponse, Label: "P2", RT: 500 * time.Millisecond}},
	}
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := writeResults(path, "s1", sampleResults()); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"session", "trial", "stimulus", "state", "response", "rt_ms"},
		{"s1", "a", "x", "completed", "f", "300.000"},
		{"s1", "b", "y", "timed-out", "", ""},
		{"s1", "c", "z", "completed", "P2", "500.000"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	s := summarize(sampleResults())
	if s.Trials != 3 || s.Answered != 2 || s.TimedOut != 1 || s.Aborted {
		t.Errorf("counts = %+v", s)
	}
	if !scalar.EqualWithinAbs(s.MeanRT, 400, 1e-9) {
		t.Errorf("mean = %g, want 400", s.MeanRT)
	}
	if !scalar.EqualWithinAbs(s.SDRT, 100*math.Sqrt2, 1e-9) {
		t.Errorf("sd = %g, want %g", s.SDRT, 100*math.Sqrt2)
	}
	if s.MinRT != 300 || s.MaxRT != 500 {
		t.Errorf("range = %g-%g, want 300-500", s.MinRT, s.MaxRT)
	}
	if out := renderSummary(s); !strings.Contains(out, "400.0 ms") {
		t.Errorf("summary does not show the mean:\n%s", out)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := summarize(nil)
	if s.Answered != 0 || s.MeanRT != 0 {
		t.Errorf("got %+v, want zero summary", s)
	}
}

func TestTimestamped(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := map[string]string{
		"results.csv":     "results_20260304-050607.csv",
		"out/session.csv": "out/session_20260304-050607.csv",
		"results":         "results_20260304-050607.csv",
	}
	for in, want := range tests {
		if got := timestamped(in, at); got != want {
			t.Errorf("timestamped(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolve(t *testing.T) {
	if got := resolve("exp", "trials.csv"); got != filepath.Join("exp", "trials.csv") {
		t.Errorf("got %q", got)
	}
	if got := resolve("exp", ""); got != "" {
		t.Errorf("empty path resolved to %q", got)
	}
	abs := filepath.Join(string(filepath.Separator), "tmp", "x.csv")
	if got := resolve("exp", abs); got != abs {
		t.Errorf("absolute path resolved to %q", got)
	}
}

const previewConfig = `
[window]
width = 1600
height = 900

[boxes]
count = 3
labels = ["A", "B", "C"]

[boxes.layout]
strategy = "line"
spacing = 0.05

[trials]
file = "trials.csv"

[instructions]
pages = ["Welcome", "Press a key"]
`

func TestPreviewRemembersConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile("exp.toml", []byte(previewConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("trials.csv", []byte("t1,text,hello\nt2,fixation,\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, base, err := loadConfig([]string{"exp.toml"})
	if err != nil {
		t.Fatal(err)
	}
	if got := engine.LoadCache(); got != "exp.toml" {
		t.Errorf("cache = %q, want exp.toml", got)
	}
	out := filepath.Join(dir, "p.pdf")
	if err := renderPreview(context.Background(), cfg, base, out, 0); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("preview is not a PDF")
	}

	cfg, _, err = loadConfig(nil)
	if err != nil {
		t.Fatalf("remembered config: %v", err)
	}
	if cfg.Boxes == nil || cfg.Boxes.Count != 3 {
		t.Errorf("boxes = %+v", cfg.Boxes)
	}
}

func TestLoadConfigWithoutCache(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, _, err := loadConfig(nil); err != errNoConfig {
		t.Errorf("err = %v, want errNoConfig", err)
	}
}

func TestRenderLayout(t *testing.T) {
	h := enginetest.New()
	boxes, err := engine.NewBoxes(h, 2, engine.WithBoxSize(0.1, 0.1))
	if err != nil {
		t.Fatal(err)
	}
	if err := boxes.ArrangeLine(layout.Line{Direction: layout.Horizontal, Spacing: 0.1}); err != nil {
		t.Fatal(err)
	}
	out := renderLayout("line", boxes)
	for _, want := range []string{"line layout, 2 boxes", "x=-0.100", "x=+0.100", "P2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
