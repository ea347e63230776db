package engine

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chenyu-psy/cogpy/layout"
)

// Modality is the kind of response a trial collects.
type Modality string

const (
	ModalityKey    Modality = "key"
	ModalityButton Modality = "button"
	ModalityMouse  Modality = "mouse"
)

// ParseModality validates a response type name.
func ParseModality(s string) (Modality, error) {
	switch m := Modality(strings.ToLower(strings.TrimSpace(s))); m {
	case ModalityKey, ModalityButton, ModalityMouse:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown response type %q", ErrConfiguration, s)
}

// Choices is Keys, Labels or *Boxes.
type Choices interface{ choices() }

// Keys restricts key responses to a set. An empty set accepts any key.
type Keys []string

// Labels asks the trial to build a row of buttons, one per label.
type Labels []string

func (Keys) choices()   {}
func (Labels) choices() {}
func (*Boxes) choices() {}

// ResponseKind tells which field of a Response carries the value.
type ResponseKind int

const (
	NoResponse ResponseKind = iota
	KeyResponse
	ButtonResponse
	MouseResponse
)

// Response is the outcome of one trial run. RT is measured from the
// presentation onset and is zero when Kind is NoResponse.
type Response struct {
	Kind  ResponseKind
	Keys  []string
	Label string
	RT    time.Duration
}

// Answered reports whether a response was recorded.
func (r Response) Answered() bool { return r.Kind != NoResponse }

// Value renders the response for logs and result files.
func (r Response) Value() string {
	switch r.Kind {
	case KeyResponse:
		return strings.Join(r.Keys, " ")
	case ButtonResponse:
		return r.Label
	case MouseResponse:
		return "click"
	}
	return ""
}

// State of a trial.
type State int

const (
	Created State = iota
	Presenting
	AwaitingResponse
	Completed
	TimedOut
	Aborted
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Presenting:
		return "presenting"
	case AwaitingResponse:
		return "awaiting-response"
	case Completed:
		return "completed"
	case TimedOut:
		return "timed-out"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// AbortFunc is called when the abort key is seen. The default closes the
// display and exits the process.
type AbortFunc func(h Host)

// ExitOnAbort closes the display and terminates the process.
func ExitOnAbort(h Host) {
	h.Close()
	os.Exit(1)
}

// DefaultAbortKey ends the whole session from any trial.
const DefaultAbortKey = "escape"

type trialConfig struct {
	name         string
	modality     Modality
	choices      Choices
	respStart    time.Duration
	respEndTrial bool
	duration     time.Duration
	postGap      time.Duration
	poll         time.Duration
	abortKey     string
	abort        AbortFunc
	trigger      Trigger
	events       *EventLog
	logger       *log.Logger
}

// TrialOption customizes NewTrial.
type TrialOption func(*trialConfig)

// WithName labels the trial in logs and event records.
func WithName(name string) TrialOption { return func(c *trialConfig) { c.name = name } }

// WithResponseType sets the modality. When omitted it is inferred from the
// choices: Labels and *Boxes mean button, anything else key.
func WithResponseType(m Modality) TrialOption { return func(c *trialConfig) { c.modality = m } }

func WithChoices(ch Choices) TrialOption { return func(c *trialConfig) { c.choices = ch } }

// WithResponseStart delays response collection after onset.
func WithResponseStart(d time.Duration) TrialOption { return func(c *trialConfig) { c.respStart = d } }

// WithRespEndTrial controls whether the first response ends the trial.
// It defaults to true.
func WithRespEndTrial(end bool) TrialOption { return func(c *trialConfig) { c.respEndTrial = end } }

// WithDuration sets the ceiling measured from onset. Zero means no limit.
func WithDuration(d time.Duration) TrialOption { return func(c *trialConfig) { c.duration = d } }

// WithPostTrialGap blanks the display for d after the trial.
func WithPostTrialGap(d time.Duration) TrialOption { return func(c *trialConfig) { c.postGap = d } }

// WithPollInterval sets how long each polling iteration waits on the host.
func WithPollInterval(d time.Duration) TrialOption { return func(c *trialConfig) { c.poll = d } }

// WithAbortKey changes the abort key. An empty key disables it.
func WithAbortKey(k string) TrialOption { return func(c *trialConfig) { c.abortKey = k } }

func WithAbortFunc(f AbortFunc) TrialOption { return func(c *trialConfig) { c.abort = f } }

func WithTrigger(t Trigger) TrialOption { return func(c *trialConfig) { c.trigger = t } }

func WithEventLog(l *EventLog) TrialOption { return func(c *trialConfig) { c.events = l } }

func WithLogger(l *log.Logger) TrialOption { return func(c *trialConfig) { c.logger = l } }

// Trial presents stimuli and collects one response per run.
type Trial struct {
	host    Host
	stimuli []Drawable
	cfg     trialConfig
	keys    []string
	buttons *Boxes

	state State
	resp  Response
	onset time.Duration
}

// NewTrial validates the options and resolves the choices into a key set
// or a box collection.
func NewTrial(h Host, stimuli []Drawable, opts ...TrialOption) (*Trial, error) {
	cfg := trialConfig{
		respEndTrial: true,
		poll:         time.Millisecond,
		abortKey:     DefaultAbortKey,
		abort:        ExitOnAbort,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	if cfg.abort == nil {
		cfg.abort = ExitOnAbort
	}
	if cfg.respStart < 0 || cfg.duration < 0 || cfg.postGap < 0 || cfg.poll < 0 {
		return nil, fmt.Errorf("%w: trial durations must not be negative", ErrConfiguration)
	}
	if cfg.modality == "" {
		switch cfg.choices.(type) {
		case Labels, *Boxes:
			cfg.modality = ModalityButton
		default:
			cfg.modality = ModalityKey
		}
	}

	t := &Trial{host: h, stimuli: stimuli, cfg: cfg}
	switch cfg.modality {
	case ModalityKey:
		switch ch := cfg.choices.(type) {
		case nil:
		case Keys:
			t.keys = slices.Clone(ch)
		default:
			return nil, fmt.Errorf("%w: key responses need Keys, got %T", ErrConfiguration, cfg.choices)
		}
	case ModalityButton:
		switch ch := cfg.choices.(type) {
		case nil:
			return nil, fmt.Errorf("%w: button responses need at least one button", ErrConfiguration)
		case Labels:
			b, err := labelButtons(h, ch)
			if err != nil {
				return nil, err
			}
			t.buttons = b
		case *Boxes:
			if !ch.Arranged() {
				return nil, fmt.Errorf("%w: button boxes must be arranged", ErrState)
			}
			t.buttons = ch
		default:
			return nil, fmt.Errorf("%w: button responses need Labels or *Boxes, got %T", ErrConfiguration, cfg.choices)
		}
	case ModalityMouse:
		if cfg.choices != nil {
			return nil, fmt.Errorf("%w: mouse responses take no choices", ErrConfiguration)
		}
	default:
		return nil, fmt.Errorf("%w: unknown response type %q", ErrConfiguration, cfg.modality)
	}
	return t, nil
}

// labelButtons sizes one row of buttons to the longest label and puts it
// below the stimuli.
func labelButtons(win Window, labels Labels) (*Boxes, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: button responses need at least one button", ErrConfiguration)
	}
	const unit = 0.08
	longest := 0
	for _, l := range labels {
		longest = max(longest, len([]rune(l)))
	}
	b, err := NewBoxes(win, len(labels), WithBoxSize(float64(longest+2)*0.5*unit, unit))
	if err != nil {
		return nil, err
	}
	if err := b.ArrangeLine(layout.Line{Center: layout.Point{Y: -0.4}, Direction: layout.Horizontal, Spacing: unit * 0.5}); err != nil {
		return nil, err
	}
	if err := b.SetText(TextList(labels), TextStyle{Height: unit * 0.8, Color: Black}); err != nil {
		return nil, err
	}
	return b, nil
}

// State returns the current lifecycle state.
func (t *Trial) State() State { return t.state }

// Response returns the current response snapshot.
func (t *Trial) Response() Response { return t.resp }

// Buttons returns the button collection of a button trial.
func (t *Trial) Buttons() *Boxes { return t.buttons }

// Modality returns the resolved response type.
func (t *Trial) Modality() Modality { return t.cfg.modality }

// Update prepares the trial for another run with new stimuli. A nil host
// keeps the current one.
func (t *Trial) Update(h Host, stimuli []Drawable) {
	if h != nil {
		t.host = h
	}
	t.stimuli = stimuli
	t.resp = Response{}
	t.state = Created
}

// Run presents the stimuli and polls for a response until one arrives (if
// the first response ends the trial), the ceiling elapses, or the abort
// key is pressed.
func (t *Trial) Run() State {
	h := t.host
	t.resp = Response{}
	t.state = Presenting

	t.draw()
	h.Flip()
	t.onset = h.Now()
	if t.cfg.trigger != nil {
		t.cfg.trigger.Set("1")
		defer t.cfg.trigger.Unset("1")
	}
	t.record(t.onset, "ONSET", "")
	t.cfg.logger.Debug("trial onset", "trial", t.cfg.name, "response", t.cfg.modality)

	// The hold never outlasts the ceiling.
	hold := t.cfg.respStart
	if t.cfg.duration > 0 {
		hold = min(hold, t.cfg.duration)
	}
	if hold > 0 {
		h.Wait(hold)
	}
	h.ClearEvents()
	t.state = AwaitingResponse

	filter := t.keyFilter()
	for {
		var keys []string
		if filter != nil || t.cfg.modality == ModalityKey {
			keys = h.PendingKeys(filter)
		}
		if t.cfg.abortKey != "" && slices.Contains(keys, t.cfg.abortKey) {
			t.abort()
			return t.state
		}

		elapsed := h.Now() - t.onset
		if t.cfg.duration > 0 && elapsed > t.cfg.duration {
			break
		}
		if t.poll(keys, elapsed) && t.cfg.respEndTrial {
			t.state = Completed
			break
		}
		h.Wait(t.cfg.poll)
	}

	if t.state != Completed {
		if t.resp.Answered() {
			t.state = Completed
		} else {
			t.state = TimedOut
			t.record(h.Now(), "TIMEOUT", "")
			t.cfg.logger.Debug("trial timed out", "trial", t.cfg.name)
		}
	}

	if t.cfg.postGap > 0 {
		h.Flip()
		h.Wait(t.cfg.postGap)
	}
	return t.state
}

func (t *Trial) draw() {
	for _, s := range t.stimuli {
		s.Draw(t.host)
	}
	if t.buttons != nil {
		t.buttons.Draw(t.host)
	}
}

// keyFilter returns the keys the host should report, or nil for all keys.
func (t *Trial) keyFilter() []string {
	if t.cfg.modality == ModalityKey {
		if len(t.keys) == 0 {
			return nil
		}
		if t.cfg.abortKey == "" {
			return t.keys
		}
		return append(slices.Clone(t.keys), t.cfg.abortKey)
	}
	if t.cfg.abortKey == "" {
		return nil
	}
	return []string{t.cfg.abortKey}
}

// poll checks for a response in this iteration and reports whether one was
// found. Key trials keep their first response; pointer trials let later
// presses overwrite earlier ones.
func (t *Trial) poll(keys []string, elapsed time.Duration) bool {
	var r Response
	switch t.cfg.modality {
	case ModalityKey:
		matched := slices.DeleteFunc(slices.Clone(keys), func(k string) bool {
			return t.cfg.abortKey != "" && k == t.cfg.abortKey
		})
		if len(matched) == 0 || t.resp.Answered() {
			return false
		}
		r = Response{Kind: KeyResponse, Keys: matched}
	case ModalityButton:
		found := false
		for _, box := range t.buttons.All() {
			if t.host.PressedIn(box.Rect(), PrimaryButton) {
				r = Response{Kind: ButtonResponse, Label: t.buttons.Label(box.Slot)}
				found = true
				break
			}
		}
		if !found {
			return false
		}
	case ModalityMouse:
		if !t.host.Pressed(PrimaryButton) {
			return false
		}
		r = Response{Kind: MouseResponse}
	}

	r.RT = elapsed
	t.resp = r
	if t.cfg.trigger != nil {
		t.cfg.trigger.Set("2")
		t.cfg.trigger.Unset("2")
	}
	t.record(t.onset+elapsed, "RESPONSE", r.Value())
	t.cfg.logger.Debug("response", "trial", t.cfg.name, "value", r.Value(), "rt", r.RT)
	return true
}

func (t *Trial) abort() {
	t.state = Aborted
	t.record(t.host.Now(), "ABORT", t.cfg.abortKey)
	t.cfg.logger.Warn("abort key pressed", "trial", t.cfg.name, "key", t.cfg.abortKey)
	t.cfg.abort(t.host)
}

func (t *Trial) record(at time.Duration, kind, value string) {
	if t.cfg.events != nil {
		t.cfg.events.Log(t.cfg.name, at, kind, value)
	}
}
