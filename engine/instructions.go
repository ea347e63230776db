package engine

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/chenyu-psy/cogpy/layout"
)

// Page is one instruction screen: text, or an image when Image is set.
type Page struct {
	Text  string
	Image string
}

// PagesFromStrings treats every entry naming an existing file as an image
// and everything else as text.
func PagesFromStrings(contents []string) []Page {
	pages := make([]Page, len(contents))
	for i, c := range contents {
		if st, err := os.Stat(c); err == nil && !st.IsDir() {
			pages[i] = Page{Image: c}
		} else {
			pages[i] = Page{Text: c}
		}
	}
	return pages
}

// fitWindow shrinks size to fit a window of the given aspect.
func fitWindow(size layout.Size, aspect float64) layout.Size {
	scale := math.Max(size.W/aspect, size.H)
	if scale > 1 {
		return layout.Size{W: size.W / scale, H: size.H / scale}
	}
	return size
}

// Navigation labels.
const (
	KeyPrevious    = "left"
	KeyNext        = "right"
	ButtonPrevious = "Previous"
	ButtonNext     = "Next"
)

var navButtonColor = mustColor("#669CD1")

type instrConfig struct {
	nav        Modality
	respStart  time.Duration
	duration   time.Duration
	adaptive   bool
	text       TextStyle
	buttonOpts []BoxOption
	trialOpts  []TrialOption
}

// InstructionOption customizes NewInstructions and Brief.
type InstructionOption func(*instrConfig)

// WithNavigation selects key (left/right) or button (Previous/Next) paging.
func WithNavigation(m Modality) InstructionOption { return func(c *instrConfig) { c.nav = m } }

// WithPageResponseStart is the hold before a page accepts input.
func WithPageResponseStart(d time.Duration) InstructionOption {
	return func(c *instrConfig) { c.respStart = d }
}

// WithPageDuration limits how long a page waits; a timeout advances.
func WithPageDuration(d time.Duration) InstructionOption {
	return func(c *instrConfig) { c.duration = d }
}

// WithAdaptive shrinks images that do not fit the window.
func WithAdaptive(on bool) InstructionOption { return func(c *instrConfig) { c.adaptive = on } }

func WithPageTextStyle(s TextStyle) InstructionOption { return func(c *instrConfig) { c.text = s } }

// WithNavButtonOptions overrides the navigation button style.
func WithNavButtonOptions(opts ...BoxOption) InstructionOption {
	return func(c *instrConfig) { c.buttonOpts = append(c.buttonOpts, opts...) }
}

// WithPageTrialOptions passes options (abort key, logger, poll interval)
// to the trial behind every page.
func WithPageTrialOptions(opts ...TrialOption) InstructionOption {
	return func(c *instrConfig) { c.trialOpts = append(c.trialOpts, opts...) }
}

func newInstrConfig(opts []InstructionOption) instrConfig {
	cfg := instrConfig{
		nav:       ModalityKey,
		respStart: 500 * time.Millisecond,
		adaptive:  true,
		text:      TextStyle{Height: 0.1, Color: Black, WrapWidth: 1.6},
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// Visit records one page presentation.
type Visit struct {
	Page     int
	Response Response
}

// InstructionResult lists every page shown, in order.
type InstructionResult struct {
	Visits  []Visit
	Aborted bool
}

// Instructions pages forward and backward through a sequence of pages.
type Instructions struct {
	host  Host
	pages []Page
	cfg   instrConfig
	trial *Trial
}

// NewInstructions builds the navigation trial once; every page reuses it.
func NewInstructions(h Host, pages []Page, opts ...InstructionOption) (*Instructions, error) {
	cfg := newInstrConfig(opts)

	var choices Choices
	switch cfg.nav {
	case ModalityKey:
		choices = Keys{KeyPrevious, KeyNext}
	case ModalityButton:
		b, err := navButtons(h, []string{ButtonPrevious, ButtonNext}, len("previous"), cfg.buttonOpts)
		if err != nil {
			return nil, err
		}
		choices = b
	default:
		return nil, fmt.Errorf("%w: instructions page with key or button, got %q", ErrConfiguration, cfg.nav)
	}

	topts := append([]TrialOption{
		WithName("instructions"),
		WithResponseType(cfg.nav),
		WithChoices(choices),
		WithResponseStart(cfg.respStart),
		WithDuration(cfg.duration),
	}, cfg.trialOpts...)
	trial, err := NewTrial(h, nil, topts...)
	if err != nil {
		return nil, err
	}
	return &Instructions{host: h, pages: pages, cfg: cfg, trial: trial}, nil
}

// navButtons lays out a row of navigation buttons at the bottom of the
// screen, sized for a label of width chars.
func navButtons(win Window, labels []string, chars int, extra []BoxOption) (*Boxes, error) {
	const unit = 0.05
	opts := append([]BoxOption{
		WithBoxSize(float64(chars+1)*0.5*unit, unit),
		WithLineWidth(2),
		WithFillColor(navButtonColor),
	}, extra...)
	b, err := NewBoxes(win, len(labels), opts...)
	if err != nil {
		return nil, err
	}
	if err := b.ArrangeLine(layout.Line{Center: layout.Point{Y: -0.45}, Direction: layout.Horizontal, Spacing: unit * 0.5}); err != nil {
		return nil, err
	}
	if err := b.SetText(TextList(labels), TextStyle{Height: unit * 0.8, Color: Black}); err != nil {
		return nil, err
	}
	return b, nil
}

// Run shows pages until the index runs off either end. Next moves forward,
// Previous moves back, and a page that times out moves forward.
func (in *Instructions) Run() (InstructionResult, error) {
	var res InstructionResult
	for page := 0; page >= 0 && page < len(in.pages); {
		d, err := in.drawable(in.pages[page])
		if err != nil {
			return res, fmt.Errorf("page %d: %w", page+1, err)
		}
		in.trial.Update(nil, []Drawable{d})
		state := in.trial.Run()
		resp := in.trial.Response()
		res.Visits = append(res.Visits, Visit{Page: page, Response: resp})
		if state == Aborted {
			res.Aborted = true
			return res, nil
		}
		page += step(resp)
	}
	return res, nil
}

func step(r Response) int {
	if !r.Answered() {
		return 1
	}
	switch r.Kind {
	case KeyResponse:
		for _, k := range r.Keys {
			if k == KeyNext {
				return 1
			}
		}
	case ButtonResponse:
		if r.Label == ButtonNext {
			return 1
		}
	}
	return -1
}

func (in *Instructions) drawable(p Page) (Drawable, error) {
	return pageDrawable(in.host, p, in.cfg)
}

func pageDrawable(win Window, p Page, cfg instrConfig) (Drawable, error) {
	if p.Image == "" {
		return &Text{Content: p.Text, Height: cfg.text.Height, Color: cfg.text.Color, WrapWidth: cfg.text.WrapWidth}, nil
	}
	size, err := win.LoadImage(p.Image)
	if err != nil {
		return nil, err
	}
	if cfg.adaptive {
		size = fitWindow(size, win.Aspect())
	}
	return &Image{Path: p.Image, Size: size}, nil
}

// Brief shows a single page and waits for a key in keys (any key when
// empty), a press on a button labelled label, or a mouse click, depending
// on m.
func Brief(h Host, p Page, m Modality, choice []string, opts ...InstructionOption) (Response, error) {
	cfg := newInstrConfig(opts)
	d, err := pageDrawable(h, p, cfg)
	if err != nil {
		return Response{}, err
	}

	topts := []TrialOption{WithName("brief"), WithResponseType(m), WithResponseStart(cfg.respStart), WithDuration(cfg.duration)}
	switch m {
	case ModalityKey:
		if len(choice) > 0 {
			topts = append(topts, WithChoices(Keys(choice)))
		}
	case ModalityButton:
		if len(choice) != 1 {
			return Response{}, fmt.Errorf("%w: a brief page takes exactly one button label", ErrConfiguration)
		}
		b, err := navButtons(h, choice, len([]rune(choice[0])), cfg.buttonOpts)
		if err != nil {
			return Response{}, err
		}
		topts = append(topts, WithChoices(b))
	case ModalityMouse:
	default:
		return Response{}, fmt.Errorf("%w: unknown response type %q", ErrConfiguration, m)
	}

	trial, err := NewTrial(h, []Drawable{d}, append(topts, cfg.trialOpts...)...)
	if err != nil {
		return Response{}, err
	}
	trial.Run()
	return trial.Response(), nil
}
