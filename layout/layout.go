package layout

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrConfiguration is returned when layout parameters are geometrically or
// structurally invalid.
var ErrConfiguration = errors.New("configuration error")

// Tolerance for boundary comparisons, so that an extent of exactly 2.0
// computed in floating point is still accepted.
const eps = 1e-9

// Kind names a layout strategy.
type Kind string

const (
	KindCircle Kind = "circle"
	KindLine   Kind = "line"
	KindGrid   Kind = "grid"
	KindRandom Kind = "random"
	KindCustom Kind = "custom"
)

// ParseKind validates a strategy name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCircle, KindLine, KindGrid, KindRandom, KindCustom:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown layout strategy %q", ErrConfiguration, s)
}

// Strategy is one of Circle, Line, Grid, Random or Custom.
type Strategy interface {
	Kind() Kind
	arrange(n int, aspect float64) (Arrangement, error)
}

// Arrangement is the result of a layout computation. Positions[i] is the
// center of slot i+1.
type Arrangement struct {
	Positions []Point
	Warnings  []string
}

// At returns the position of slot s.
func (a Arrangement) At(s Slot) Point { return a.Positions[int(s)-1] }

// Compute places n boxes with strategy s on a window whose width is
// aspect (height is always 1).
func Compute(n int, s Strategy, aspect float64) (Arrangement, error) {
	if n < 1 {
		return Arrangement{}, fmt.Errorf("%w: box count must be at least 1, got %d", ErrConfiguration, n)
	}
	if s == nil {
		return Arrangement{}, fmt.Errorf("%w: no layout strategy", ErrConfiguration)
	}
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return Arrangement{}, fmt.Errorf("%w: invalid window aspect %g", ErrConfiguration, aspect)
	}
	a, err := s.arrange(n, aspect)
	if err != nil {
		return Arrangement{}, err
	}
	if err := checkBounds(a.Positions, aspect); err != nil {
		return Arrangement{}, err
	}
	return a, nil
}

// checkBounds rejects any center outside [-aspect, aspect] x [-1, 1].
func checkBounds(ps []Point, aspect float64) error {
	for i, p := range ps {
		if math.Abs(p.X) > aspect+eps || math.Abs(p.Y) > 1+eps {
			return fmt.Errorf("%w: %s at (%.3f, %.3f) lies outside the display", ErrConfiguration, Slot(i+1), p.X, p.Y)
		}
	}
	return nil
}

func checkBox(b Size) error {
	if b.W <= 0 || b.H <= 0 {
		return fmt.Errorf("%w: box size must be positive, got %gx%g", ErrConfiguration, b.W, b.H)
	}
	return nil
}

// autoSpacing mirrors the spacing picked when none is given: spread the
// boxes over 90% of span but never leave gaps wider than one box.
func autoSpacing(span, size float64, n int) float64 {
	if n < 2 {
		return 0
	}
	return math.Min((span*0.9-size*float64(n))/float64(n-1), size)
}
