package layout

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Circle places boxes on an ellipse, clockwise from Rotation degrees.
// Oval > 1 makes the ellipse taller, < 1 wider.
type Circle struct {
	Center   Point
	Radius   float64
	Oval     float64
	Rotation float64
}

// DefaultCircle is a radius 0.3 circle around the origin.
var DefaultCircle = Circle{Radius: 0.3, Oval: 1}

func (Circle) Kind() Kind { return KindCircle }

func (c Circle) arrange(n int, _ float64) (Arrangement, error) {
	if c.Radius <= 0 || c.Radius > 0.5 {
		return Arrangement{}, fmt.Errorf("%w: radius must be in (0, 0.5], got %g", ErrConfiguration, c.Radius)
	}
	if c.Oval < 0 {
		return Arrangement{}, fmt.Errorf("%w: ovalness must not be negative, got %g", ErrConfiguration, c.Oval)
	}
	if c.Radius*c.Oval > 0.5+eps {
		return Arrangement{}, fmt.Errorf("%w: ovalness %g is too large for radius %g", ErrConfiguration, c.Oval, c.Radius)
	}

	rot := c.Rotation / 180 * math.Pi
	theta := 2 * math.Pi / float64(n)
	ps := make([]Point, n)
	for i := range ps {
		a := -theta*float64(i) + rot
		ps[i] = Point{
			X: c.Radius*math.Cos(a) + c.Center.X,
			Y: c.Radius*math.Sin(a)*c.Oval + c.Center.Y,
		}
	}
	return Arrangement{Positions: ps}, nil
}

// Direction of a Line.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Line places equal boxes along one axis, centered on Center.
type Line struct {
	Center    Point
	Direction Direction
	Spacing   float64
	// AutoSpacing ignores Spacing and spreads the boxes over 90% of the
	// window along the line.
	AutoSpacing bool
	Box         Size
}

func (Line) Kind() Kind { return KindLine }

func (l Line) arrange(n int, aspect float64) (Arrangement, error) {
	if err := checkBox(l.Box); err != nil {
		return Arrangement{}, err
	}

	var size, span float64
	switch l.Direction {
	case Horizontal, "":
		size, span = l.Box.W, aspect
	case Vertical:
		size, span = l.Box.H, 1
	default:
		return Arrangement{}, fmt.Errorf("%w: unknown line direction %q", ErrConfiguration, l.Direction)
	}

	spacing := l.Spacing
	if l.AutoSpacing {
		spacing = autoSpacing(span, size, n)
	}
	if spacing < 0 {
		return Arrangement{}, fmt.Errorf("%w: boxes do not fit along the line (spacing %g)", ErrConfiguration, spacing)
	}
	total := size*float64(n) + spacing*float64(n-1)
	if total > 2+eps {
		return Arrangement{}, fmt.Errorf("%w: line of %d boxes spans %g, more than 2", ErrConfiguration, n, total)
	}

	ps := make([]Point, n)
	if l.Direction == Vertical {
		top := l.Center.Y + total/2
		for i := range ps {
			ps[i] = Point{X: l.Center.X, Y: top - (float64(i)+0.5)*size - float64(i)*spacing}
		}
	} else {
		left := l.Center.X - total/2
		for i := range ps {
			ps[i] = Point{X: left + (float64(i)+0.5)*size + float64(i)*spacing, Y: l.Center.Y}
		}
	}
	return Arrangement{Positions: ps}, nil
}

// Grid fills Rows x Cols cells row-major from the top-left.
type Grid struct {
	Rows, Cols int
	Center     Point
	SpacingW   float64
	SpacingH   float64
	// AutoSpacing ignores SpacingW/SpacingH and spreads the grid over 90%
	// of the window on both axes.
	AutoSpacing bool
	Box         Size
}

func (Grid) Kind() Kind { return KindGrid }

func (g Grid) arrange(n int, aspect float64) (Arrangement, error) {
	if err := checkBox(g.Box); err != nil {
		return Arrangement{}, err
	}
	if g.Rows < 1 || g.Cols < 1 {
		return Arrangement{}, fmt.Errorf("%w: grid needs positive rows and cols, got %dx%d", ErrConfiguration, g.Rows, g.Cols)
	}

	var warnings []string
	switch cells := g.Rows * g.Cols; {
	case cells < n:
		return Arrangement{}, fmt.Errorf("%w: %dx%d grid is too small for %d boxes", ErrConfiguration, g.Rows, g.Cols, n)
	case cells > n:
		warnings = append(warnings, fmt.Sprintf("%dx%d grid leaves %d empty cells", g.Rows, g.Cols, cells-n))
	}

	spW, spH := g.SpacingW, g.SpacingH
	if g.AutoSpacing {
		spW = autoSpacing(aspect, g.Box.W, g.Cols)
		spH = autoSpacing(1, g.Box.H, g.Rows)
	}
	if spW < 0 || spH < 0 {
		return Arrangement{}, fmt.Errorf("%w: grid boxes do not fit (spacing %gx%g)", ErrConfiguration, spW, spH)
	}

	gridW := float64(g.Cols)*g.Box.W + float64(g.Cols-1)*spW
	gridH := float64(g.Rows)*g.Box.H + float64(g.Rows-1)*spH
	if gridW > aspect*0.9+eps {
		return Arrangement{}, fmt.Errorf("%w: grid width %g exceeds 90%% of window width %g", ErrConfiguration, gridW, aspect)
	}
	if gridH > 0.9+eps {
		return Arrangement{}, fmt.Errorf("%w: grid height %g exceeds 90%% of window height", ErrConfiguration, gridH)
	}

	left := g.Center.X - gridW/2
	top := g.Center.Y + gridH/2
	ps := make([]Point, n)
	for i := range ps {
		row, col := float64(i/g.Cols), float64(i%g.Cols)
		ps[i] = Point{
			X: left + (col+0.5)*g.Box.W + col*spW,
			Y: top - (row+0.5)*g.Box.H - row*spH,
		}
	}
	return Arrangement{Positions: ps, Warnings: warnings}, nil
}

// Random scatters boxes over distinct cells of an Area centered on the
// origin. The same Rand seed always yields the same arrangement.
type Random struct {
	Area    Size
	Spacing float64
	Box     Size
	Rand    *rand.Rand
}

// NewRand returns a seeded generator for Random.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

func (Random) Kind() Kind { return KindRandom }

func (r Random) arrange(n int, _ float64) (Arrangement, error) {
	if err := checkBox(r.Box); err != nil {
		return Arrangement{}, err
	}
	if r.Spacing < 0 {
		return Arrangement{}, fmt.Errorf("%w: spacing must not be negative, got %g", ErrConfiguration, r.Spacing)
	}

	cellW, cellH := r.Box.W+r.Spacing, r.Box.H+r.Spacing
	nrow := max(int(math.Floor(r.Area.H/cellH+eps)), 0)
	ncol := max(int(math.Floor(r.Area.W/cellW+eps)), 0)
	if nrow*ncol < n {
		return Arrangement{}, fmt.Errorf("%w: %gx%g area holds %d cells, need %d", ErrConfiguration, r.Area.W, r.Area.H, nrow*ncol, n)
	}

	left := -float64(ncol) * cellW / 2
	top := float64(nrow) * cellH / 2

	cells := make([][2]int, 0, nrow*ncol)
	for i := range nrow {
		for j := range ncol {
			cells = append(cells, [2]int{i, j})
		}
	}
	rng := r.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	ps := make([]Point, n)
	for i := range ps {
		row, col := float64(cells[i][0]), float64(cells[i][1])
		ps[i] = Point{X: left + (col+0.5)*cellW, Y: top - (row+0.5)*cellH}
	}
	return Arrangement{Positions: ps}, nil
}

// Custom uses caller supplied positions, one per slot.
type Custom struct {
	Positions map[Slot]Point
}

func (Custom) Kind() Kind { return KindCustom }

func (c Custom) arrange(n int, _ float64) (Arrangement, error) {
	if len(c.Positions) != n {
		return Arrangement{}, fmt.Errorf("%w: %d positions given for %d boxes", ErrConfiguration, len(c.Positions), n)
	}
	ps := make([]Point, n)
	for i := range ps {
		p, ok := c.Positions[Slot(i+1)]
		if !ok {
			return Arrangement{}, fmt.Errorf("%w: no position for %s", ErrConfiguration, Slot(i+1))
		}
		ps[i] = p
	}
	return Arrangement{Positions: ps}, nil
}
