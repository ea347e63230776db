package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/chenyu-psy/cogpy/engine"
)

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

// writeResults saves one row per trial. Trials without a response have
// empty response and rt cells.
func writeResults(path, session string, results []engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"session", "trial", "stimulus", "state", "response", "rt_ms"})
	for _, r := range results {
		rt := ""
		if r.Response.Answered() {
			rt = strconv.FormatFloat(ms(r.Response.RT), 'f', 3, 64)
		}
		w.Write([]string{session, r.Trial, r.Stimulus, r.State.String(), r.Response.Value(), rt})
	}
	w.Flush()
	return w.Error()
}

type summary struct {
	Trials   int
	Answered int
	TimedOut int
	Aborted  bool
	MeanRT   float64
	SDRT     float64
	MinRT    float64
	MaxRT    float64
}

func summarize(results []engine.Result) summary {
	s := summary{Trials: len(results)}
	var rts []float64
	for _, r := range results {
		switch r.State {
		case engine.TimedOut:
			s.TimedOut++
		case engine.Aborted:
			s.Aborted = true
		}
		if r.Response.Answered() {
			rts = append(rts, ms(r.Response.RT))
		}
	}
	s.Answered = len(rts)
	if len(rts) == 0 {
		return s
	}
	s.MeanRT, s.SDRT = stat.MeanStdDev(rts, nil)
	s.MinRT, s.MaxRT = rts[0], rts[0]
	for _, v := range rts[1:] {
		s.MinRT = min(s.MinRT, v)
		s.MaxRT = max(s.MaxRT, v)
	}
	return s
}

func renderSummary(s summary) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("Session summary") + "\n")
	row := func(label, value string) {
		b.WriteString(styleDim.Render(fmt.Sprintf("  %-10s", label)) + styleValue.Render(value) + "\n")
	}
	row("trials", strconv.Itoa(s.Trials))
	row("answered", strconv.Itoa(s.Answered))
	row("timed out", strconv.Itoa(s.TimedOut))
	if s.Answered > 0 {
		row("mean RT", fmt.Sprintf("%.1f ms", s.MeanRT))
		if s.Answered > 1 {
			row("SD RT", fmt.Sprintf("%.1f ms", s.SDRT))
		}
		row("range", fmt.Sprintf("%.1f-%.1f ms", s.MinRT, s.MaxRT))
	}
	if s.Aborted {
		b.WriteString(styleWarning.Render("  aborted before the last trial") + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
