// Package enginetest provides a scripted engine.Host for tests.
package enginetest

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/layout"
)

// Op is one recorded call on the fake window.
type Op struct {
	Kind  string // "rect", "image", "text" or "flip"
	At    time.Duration
	Rect  layout.Rect
	Style engine.RectStyle
	Text  string
	Path  string
}

type keyEvent struct {
	at  time.Duration
	key string
}

type pressEvent struct {
	at     time.Duration
	pos    layout.Point
	button int
}

// Host is a virtual clock plus scripted input. Time only moves when the
// code under test calls Wait.
type Host struct {
	AspectRatio float64
	// Images maps paths to native sizes returned by LoadImage.
	Images map[string]layout.Size
	// Hold is how long a scheduled press stays down.
	Hold time.Duration

	Ops    []Op
	Closed bool

	now     time.Duration
	keys    []keyEvent
	presses []pressEvent
	// cleared hides presses that started before it.
	cleared time.Duration
}

// New returns a host with a 16:9 window.
func New() *Host {
	return &Host{
		AspectRatio: 16.0 / 9.0,
		Images:      map[string]layout.Size{},
		Hold:        50 * time.Millisecond,
		cleared:     -1,
	}
}

// ScheduleKey makes key available once the clock reaches at.
func (h *Host) ScheduleKey(at time.Duration, key string) {
	h.keys = append(h.keys, keyEvent{at: at, key: key})
	sort.SliceStable(h.keys, func(i, j int) bool { return h.keys[i].at < h.keys[j].at })
}

// SchedulePress holds button down at pos from at for Hold.
func (h *Host) SchedulePress(at time.Duration, pos layout.Point, button int) {
	h.presses = append(h.presses, pressEvent{at: at, pos: pos, button: button})
}

func (h *Host) Aspect() float64 { return h.AspectRatio }

func (h *Host) DrawRect(r layout.Rect, s engine.RectStyle) {
	h.Ops = append(h.Ops, Op{Kind: "rect", At: h.now, Rect: r, Style: s})
}

func (h *Host) DrawText(t *engine.Text) {
	h.Ops = append(h.Ops, Op{Kind: "text", At: h.now, Text: t.Content, Rect: layout.Rect{Center: t.Pos}})
}

func (h *Host) DrawImage(img *engine.Image) {
	h.Ops = append(h.Ops, Op{Kind: "image", At: h.now, Path: img.Path, Rect: layout.Rect{Center: img.Pos, Size: img.Size}})
}

func (h *Host) LoadImage(path string) (layout.Size, error) {
	s, ok := h.Images[path]
	if !ok {
		return layout.Size{}, fmt.Errorf("no such image: %s", path)
	}
	return s, nil
}

func (h *Host) Flip() { h.Ops = append(h.Ops, Op{Kind: "flip", At: h.now}) }

func (h *Host) Close() { h.Closed = true }

func (h *Host) Now() time.Duration { return h.now }

func (h *Host) Wait(d time.Duration) {
	if d <= 0 {
		d = time.Millisecond
	}
	h.now += d
}

// Advance moves the clock without a Wait call.
func (h *Host) Advance(d time.Duration) { h.now += d }

func (h *Host) PendingKeys(filter []string) []string {
	var out []string
	i := 0
	for ; i < len(h.keys) && h.keys[i].at <= h.now; i++ {
		if filter == nil || slices.Contains(filter, h.keys[i].key) {
			out = append(out, h.keys[i].key)
		}
	}
	h.keys = h.keys[i:]
	return out
}

func (h *Host) ClearEvents() {
	i := 0
	for i < len(h.keys) && h.keys[i].at <= h.now {
		i++
	}
	h.keys = h.keys[i:]
	h.cleared = h.now
}

func (h *Host) down(button int) (pressEvent, bool) {
	for _, p := range h.presses {
		if p.button == button && p.at > h.cleared && p.at <= h.now && h.now < p.at+h.Hold {
			return p, true
		}
	}
	return pressEvent{}, false
}

func (h *Host) Pressed(button int) bool {
	_, ok := h.down(button)
	return ok
}

func (h *Host) PressedIn(r layout.Rect, button int) bool {
	p, ok := h.down(button)
	return ok && r.Contains(p.pos)
}

// Count returns how many ops of kind were recorded.
func (h *Host) Count(kind string) int {
	n := 0
	for _, op := range h.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Kinds returns the kinds of the recorded ops in order.
func (h *Host) Kinds() []string {
	out := make([]string, len(h.Ops))
	for i, op := range h.Ops {
		out[i] = op.Kind
	}
	return out
}

// Reset forgets recorded ops.
func (h *Host) Reset() { h.Ops = nil }

var _ engine.Host = (*Host)(nil)
