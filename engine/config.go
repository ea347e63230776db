package engine

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/chenyu-psy/cogpy/layout"
)

// Config is an experiment file.
type Config struct {
	Window       WindowConfig       `toml:"window"`
	Boxes        *BoxesConfig       `toml:"boxes"`
	Trials       TrialsConfig       `toml:"trials"`
	Instructions InstructionsConfig `toml:"instructions"`
	Trigger      TriggerConfig      `toml:"trigger"`
}

type WindowConfig struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Display    int    `toml:"display"`
	Fullscreen bool   `toml:"fullscreen"`
	VSync      bool   `toml:"vsync"`
	Background string `toml:"background"`
	TextColor  string `toml:"text_color"`
	FontFile   string `toml:"font"`
}

// Aspect is width over height.
func (w WindowConfig) Aspect() float64 {
	if w.Height == 0 {
		return 1
	}
	return float64(w.Width) / float64(w.Height)
}

type BoxesConfig struct {
	Count     int          `toml:"count"`
	Width     float64      `toml:"width"`
	Height    float64      `toml:"height"`
	LineColor string       `toml:"line_color"`
	LineWidth float64      `toml:"line_width"`
	FillColor string       `toml:"fill_color"`
	Units     string       `toml:"units"`
	Labels    []string     `toml:"labels"`
	Images    []string     `toml:"images"`
	Scale     string       `toml:"scale"`
	Layout    LayoutConfig `toml:"layout"`
}

// LayoutConfig holds the parameters of every strategy; only those of
// Kind are read. Oval is a pointer so that an explicit 0 (a flat ellipse)
// is kept while a missing key means a circle.
type LayoutConfig struct {
	Kind        string       `toml:"strategy"`
	Center      [2]float64   `toml:"center"`
	Radius      float64      `toml:"radius"`
	Oval        *float64     `toml:"oval"`
	Rotation    float64      `toml:"rotation"`
	Direction   string       `toml:"direction"`
	Spacing     float64      `toml:"spacing"`
	SpacingW    float64      `toml:"spacing_w"`
	SpacingH    float64      `toml:"spacing_h"`
	AutoSpacing bool         `toml:"auto_spacing"`
	Rows        int          `toml:"rows"`
	Cols        int          `toml:"cols"`
	Area        [2]float64   `toml:"area"`
	Seed        uint64       `toml:"seed"`
	Positions   [][2]float64 `toml:"positions"`
}

type TrialsConfig struct {
	File          string `toml:"file"`
	StimuliDir    string `toml:"stimuli_dir"`
	Output        string `toml:"output"`
	AbortKey      string `toml:"abort_key"`
	UseFixation   bool   `toml:"use_fixation"`
	FixationMS    int    `toml:"fixation_ms"`
	FixationColor string `toml:"fixation_color"`
	PollMS        int    `toml:"poll_ms"`
}

type InstructionsConfig struct {
	Pages       []string `toml:"pages"`
	Navigation  string   `toml:"navigation"`
	RespStartMS int      `toml:"resp_start_ms"`
}

type TriggerConfig struct {
	Device   string `toml:"device"`
	BaudRate int    `toml:"baudrate"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1920,
			Height:     1080,
			VSync:      true,
			Background: "128,128,128,255",
			TextColor:  "0,0,0,255",
		},
		Trials: TrialsConfig{
			Output:        "results.csv",
			AbortKey:      DefaultAbortKey,
			FixationMS:    500,
			FixationColor: "0,0,0,255",
			PollMS:        1,
		},
		Instructions: InstructionsConfig{
			Navigation:  string(ModalityKey),
			RespStartMS: 500,
		},
		Trigger: TriggerConfig{BaudRate: 9600},
	}
}

// LoadConfig reads path over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}
	return cfg, nil
}

// Strategy converts the layout table into a layout strategy.
func (l LayoutConfig) Strategy() (layout.Strategy, error) {
	kind, err := layout.ParseKind(l.Kind)
	if err != nil {
		return nil, err
	}
	center := layout.Point{X: l.Center[0], Y: l.Center[1]}
	switch kind {
	case layout.KindCircle:
		c := layout.Circle{Center: center, Radius: l.Radius, Oval: layout.DefaultCircle.Oval, Rotation: l.Rotation}
		if c.Radius == 0 {
			c.Radius = layout.DefaultCircle.Radius
		}
		if l.Oval != nil {
			c.Oval = *l.Oval
		}
		return c, nil
	case layout.KindLine:
		dir := layout.Direction(strings.ToLower(l.Direction))
		if dir == "" {
			dir = layout.Horizontal
		}
		return layout.Line{Center: center, Direction: dir, Spacing: l.Spacing, AutoSpacing: l.AutoSpacing}, nil
	case layout.KindGrid:
		return layout.Grid{Rows: l.Rows, Cols: l.Cols, Center: center, SpacingW: l.SpacingW, SpacingH: l.SpacingH, AutoSpacing: l.AutoSpacing}, nil
	case layout.KindRandom:
		return layout.Random{Area: layout.Size{W: l.Area[0], H: l.Area[1]}, Spacing: l.Spacing, Rand: layout.NewRand(l.Seed)}, nil
	default:
		pos := make(map[layout.Slot]layout.Point, len(l.Positions))
		for i, p := range l.Positions {
			pos[layout.Slot(i+1)] = layout.Point{X: p[0], Y: p[1]}
		}
		return layout.Custom{Positions: pos}, nil
	}
}

// Build creates and arranges the configured boxes on win. extra is applied
// after the configured options.
func (c *BoxesConfig) Build(win Window, extra ...BoxOption) (*Boxes, error) {
	var opts []BoxOption
	if c.LineWidth != 0 {
		opts = append(opts, WithLineWidth(c.LineWidth))
	}
	if c.Width != 0 {
		opts = append(opts, WithBoxSize(c.Width, c.Height))
	}
	if c.Units != "" {
		opts = append(opts, WithUnits(c.Units))
	}
	if c.LineColor != "" {
		col, err := ParseColor(c.LineColor)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLineColor(col))
	}
	if c.FillColor != "" {
		col, err := ParseColor(c.FillColor)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithFillColor(col))
	}

	b, err := NewBoxes(win, c.Count, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	s, err := c.Layout.Strategy()
	if err != nil {
		return nil, err
	}
	if err := b.Arrange(s); err != nil {
		return nil, err
	}
	if len(c.Images) > 0 {
		scale := ImageScale(c.Scale)
		if scale == "" {
			scale = ScaleMax
		}
		if err := b.SetImages(ImageList(c.Images), scale, ImageStyle{}); err != nil {
			return nil, err
		}
	}
	if len(c.Labels) > 0 {
		h := c.Height
		if h == 0 {
			h = c.Width
		}
		style := TextStyle{Color: Black}
		if h > 0 {
			style.Height = h * 0.5
		}
		if err := b.SetText(TextList(c.Labels), style); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (t TrialsConfig) FixationDuration() time.Duration {
	return time.Duration(t.FixationMS) * time.Millisecond
}

func (t TrialsConfig) PollInterval() time.Duration {
	return time.Duration(t.PollMS) * time.Millisecond
}

// ParseColor reads "r,g,b", "r,g,b,a" (0-255) or "#rrggbb".
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		n, err := strconv.ParseUint(s[1:], 16, 32)
		if len(s) != 7 || err != nil {
			return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrConfiguration, s)
		}
		return color.RGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 255}, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrConfiguration, s)
	}
	v := [4]uint8{3: 255}
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("%w: invalid color %q", ErrConfiguration, s)
		}
		v[i] = uint8(n)
	}
	return color.RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}

func mustColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

const CacheFile = ".cogpy_cache"

type cache struct {
	LastConfig string `toml:"last_config"`
}

// SaveCache remembers the last experiment file used.
func SaveCache(configPath string) {
	f, err := os.Create(CacheFile)
	if err != nil {
		return
	}
	defer f.Close()
	toml.NewEncoder(f).Encode(cache{LastConfig: configPath})
}

// LoadCache returns the experiment file remembered by SaveCache.
func LoadCache() string {
	var c cache
	if _, err := toml.DecodeFile(CacheFile, &c); err != nil {
		return ""
	}
	return c.LastConfig
}
