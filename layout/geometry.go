// Package layout computes box positions for stimulus displays.
//
// All coordinates are in height units: the window height is 1.0, the
// origin is the window center, y grows upwards, and the window width is
// the host's aspect ratio. Every strategy is a pure function of its
// inputs so that layout failures surface before anything is drawn.
package layout

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is a position in height units.
type Point struct {
	X, Y float64
}

// Size is a width/height pair in height units.
type Size struct {
	W, H float64
}

// Rect is an axis-aligned rectangle described by its center.
type Rect struct {
	Center Point
	Size   Size
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	hw, hh := r.Size.W/2, r.Size.H/2
	return p.X >= r.Center.X-hw && p.X <= r.Center.X+hw &&
		p.Y >= r.Center.Y-hh && p.Y <= r.Center.Y+hh
}

// Slot identifies a box within a collection. Slots start at 1.
type Slot int

func (s Slot) String() string { return "P" + strconv.Itoa(int(s)) }

// ParseSlot accepts "P3" or "3".
func ParseSlot(s string) (Slot, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimPrefix(s, "P"), "p"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: invalid slot %q", ErrConfiguration, s)
	}
	return Slot(n), nil
}

// Slots returns P1..Pn in order.
func Slots(n int) []Slot {
	out := make([]Slot, n)
	for i := range out {
		out[i] = Slot(i + 1)
	}
	return out
}
