package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/floats/scalar"
)

const aspect = 16.0 / 9.0

var box = Size{W: 0.16, H: 0.16}

func TestCircleEvenlySpaced(t *testing.T) {
	for _, tc := range []struct {
		n    int
		c    Circle
		name string
	}{
		{name: "default", n: 6, c: DefaultCircle},
		{name: "oval rotated", n: 8, c: Circle{Center: Point{X: 0.2, Y: -0.1}, Radius: 0.25, Oval: 1.5, Rotation: 30}},
		{name: "single", n: 1, c: Circle{Radius: 0.5, Oval: 1}},
		{name: "flat", n: 4, c: Circle{Radius: 0.4, Oval: 0.5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a, err := Compute(tc.n, tc.c, aspect)
			if err != nil {
				t.Fatalf("Compute: %v", err)
			}
			if got := len(a.Positions); got != tc.n {
				t.Fatalf("positions = %d, want %d", got, tc.n)
			}
			step := 2 * math.Pi / float64(tc.n)
			rot := tc.c.Rotation * math.Pi / 180
			for i, p := range a.Positions {
				dx := p.X - tc.c.Center.X
				dy := p.Y - tc.c.Center.Y
				if tc.c.Oval != 0 {
					dy /= tc.c.Oval
				}
				if d := math.Hypot(dx, dy); !scalar.EqualWithinAbs(d, tc.c.Radius, 1e-9) {
					t.Errorf("%s distance = %g, want %g", Slot(i+1), d, tc.c.Radius)
				}
				want := -step*float64(i) + rot
				if got := math.Atan2(dy, dx); !scalar.EqualWithinAbs(math.Remainder(got-want, 2*math.Pi), 0, 1e-9) {
					t.Errorf("%s angle = %g, want %g", Slot(i+1), got, want)
				}
				for j := range i {
					if a.Positions[j] == p {
						t.Errorf("%s and %s coincide", Slot(j+1), Slot(i+1))
					}
				}
			}
		})
	}
}

func TestCircleRejectsBadParameters(t *testing.T) {
	for _, c := range []Circle{
		{Radius: 0, Oval: 1},
		{Radius: 0.6, Oval: 1},
		{Radius: 0.3, Oval: -1},
		{Radius: 0.4, Oval: 2},
	} {
		if _, err := Compute(4, c, aspect); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Compute(%+v) error = %v, want ErrConfiguration", c, err)
		}
	}
}

func TestCircleClockwiseFromRotation(t *testing.T) {
	a, err := Compute(4, Circle{Radius: 0.3, Oval: 1, Rotation: 90}, aspect)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{0, 0.3}, {0.3, 0}, {0, -0.3}, {-0.3, 0}}
	if diff := cmp.Diff(want, a.Positions, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
}

func TestLineExtentBoundary(t *testing.T) {
	for _, tc := range []struct {
		name    string
		line    Line
		n       int
		wantErr bool
	}{
		{name: "horizontal exactly 2", n: 4, line: Line{Direction: Horizontal, Box: Size{W: 0.5, H: 0.1}}},
		{name: "vertical exactly 2", n: 4, line: Line{Direction: Vertical, Box: Size{W: 0.1, H: 0.5}}},
		{name: "horizontal with spacing exactly 2", n: 3, line: Line{Direction: Horizontal, Spacing: 0.25, Box: Size{W: 0.5, H: 0.1}}},
		{name: "horizontal too wide", n: 4, wantErr: true, line: Line{Direction: Horizontal, Spacing: 0.01, Box: Size{W: 0.5, H: 0.1}}},
		{name: "vertical too tall", n: 5, wantErr: true, line: Line{Direction: Vertical, Box: Size{W: 0.1, H: 0.5}}},
		{name: "unknown direction", n: 2, wantErr: true, line: Line{Direction: "diagonal", Box: box}},
		{name: "negative spacing", n: 2, wantErr: true, line: Line{Spacing: -0.1, Box: box}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.n, tc.line, aspect)
			if tc.wantErr && !errors.Is(err, ErrConfiguration) {
				t.Errorf("error = %v, want ErrConfiguration", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLinePositions(t *testing.T) {
	h, err := Compute(3, Line{Center: Point{Y: -0.4}, Direction: Horizontal, Spacing: 0.04, Box: Size{W: 0.2, H: 0.08}}, aspect)
	if err != nil {
		t.Fatal(err)
	}
	wantH := []Point{{-0.24, -0.4}, {0, -0.4}, {0.24, -0.4}}
	if diff := cmp.Diff(wantH, h.Positions, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("horizontal (-want +got):\n%s", diff)
	}

	v, err := Compute(2, Line{Center: Point{X: 0.5}, Direction: Vertical, Spacing: 0.1, Box: Size{W: 0.1, H: 0.2}}, aspect)
	if err != nil {
		t.Fatal(err)
	}
	wantV := []Point{{0.5, 0.15}, {0.5, -0.15}}
	if diff := cmp.Diff(wantV, v.Positions, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("vertical (-want +got):\n%s", diff)
	}
}

func TestLineAutoSpacing(t *testing.T) {
	a, err := Compute(2, Line{Direction: Horizontal, AutoSpacing: true, Box: Size{W: 0.1, H: 0.1}}, 1)
	if err != nil {
		t.Fatal(err)
	}
	// min((0.9-0.2)/1, 0.1) = 0.1
	if got := a.Positions[1].X - a.Positions[0].X; !scalar.EqualWithinAbs(got, 0.2, 1e-9) {
		t.Errorf("center distance = %g, want 0.2", got)
	}
}

func TestGridWarnings(t *testing.T) {
	g := Grid{Rows: 2, Cols: 3, SpacingW: 0.05, SpacingH: 0.05, Box: box}

	full, err := Compute(6, g, aspect)
	if err != nil {
		t.Fatal(err)
	}
	if len(full.Warnings) != 0 {
		t.Errorf("full grid warnings = %v, want none", full.Warnings)
	}

	partial, err := Compute(5, g, aspect)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(partial.Warnings); got != 1 {
		t.Errorf("partial grid warnings = %d, want 1", got)
	}
	if got := len(partial.Positions); got != 5 {
		t.Errorf("partial grid positions = %d, want 5", got)
	}

	if _, err := Compute(7, g, aspect); !errors.Is(err, ErrConfiguration) {
		t.Errorf("overfull grid error = %v, want ErrConfiguration", err)
	}
}

func TestGridRowMajor(t *testing.T) {
	a, err := Compute(4, Grid{Rows: 2, Cols: 2, SpacingW: 0.1, SpacingH: 0.1, Box: Size{W: 0.2, H: 0.2}}, aspect)
	if err != nil {
		t.Fatal(err)
	}
	want := []Point{{-0.15, 0.15}, {0.15, 0.15}, {-0.15, -0.15}, {0.15, -0.15}}
	if diff := cmp.Diff(want, a.Positions, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("grid (-want +got):\n%s", diff)
	}
}

func TestGridTooLarge(t *testing.T) {
	for _, g := range []Grid{
		{Rows: 1, Cols: 10, SpacingW: 0.01, Box: box},
		{Rows: 6, Cols: 1, SpacingH: 0.01, Box: box},
		{Rows: 1, Cols: 12, AutoSpacing: true, Box: box},
	} {
		if _, err := Compute(g.Rows*g.Cols, g, aspect); !errors.Is(err, ErrConfiguration) {
			t.Errorf("Compute(%+v) error = %v, want ErrConfiguration", g, err)
		}
	}
}

func TestRandomDeterministic(t *testing.T) {
	r := func(seed uint64) Random {
		return Random{Area: Size{W: 1, H: 0.8}, Spacing: 0.05, Box: Size{W: 0.1, H: 0.1}, Rand: NewRand(seed)}
	}

	a, err := Compute(5, r(1), aspect)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(5, r(1), aspect)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Positions, b.Positions); diff != "" {
		t.Errorf("same seed differs (-first +second):\n%s", diff)
	}

	c, err := Compute(5, r(2), aspect)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Equal(a.Positions, c.Positions) {
		t.Error("different seeds produced the same arrangement")
	}

	seen := map[Point]bool{}
	for _, p := range a.Positions {
		if seen[p] {
			t.Errorf("cell %v used twice", p)
		}
		seen[p] = true
		if math.Abs(p.X) > 0.5 || math.Abs(p.Y) > 0.4 {
			t.Errorf("position %v outside the area", p)
		}
	}
}

func TestRandomAreaTooSmall(t *testing.T) {
	_, err := Compute(5, Random{Area: Size{W: 0.3, H: 0.3}, Box: Size{W: 0.16, H: 0.16}, Rand: NewRand(0)}, aspect)
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestCustom(t *testing.T) {
	pos := map[Slot]Point{1: {X: -0.2}, 2: {X: 0.2}}
	a, err := Compute(2, Custom{Positions: pos}, aspect)
	if err != nil {
		t.Fatal(err)
	}
	if got := a.At(2); got != pos[2] {
		t.Errorf("At(P2) = %v, want %v", got, pos[2])
	}

	if _, err := Compute(3, Custom{Positions: pos}, aspect); !errors.Is(err, ErrConfiguration) {
		t.Errorf("size mismatch error = %v, want ErrConfiguration", err)
	}
	if _, err := Compute(2, Custom{Positions: map[Slot]Point{1: {}, 3: {}}}, aspect); !errors.Is(err, ErrConfiguration) {
		t.Errorf("missing slot error = %v, want ErrConfiguration", err)
	}
	if _, err := Compute(1, Custom{Positions: map[Slot]Point{1: {X: 3}}}, aspect); !errors.Is(err, ErrConfiguration) {
		t.Errorf("out of bounds error = %v, want ErrConfiguration", err)
	}
}

func TestComputeRejectsEmpty(t *testing.T) {
	if _, err := Compute(0, DefaultCircle, aspect); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}

func TestParseKindAndSlot(t *testing.T) {
	if k, err := ParseKind(" Grid "); err != nil || k != KindGrid {
		t.Errorf("ParseKind = %q, %v", k, err)
	}
	if _, err := ParseKind("spiral"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("ParseKind(spiral) error = %v, want ErrConfiguration", err)
	}
	if s, err := ParseSlot("P12"); err != nil || s != 12 {
		t.Errorf("ParseSlot = %v, %v", s, err)
	}
	if _, err := ParseSlot("P0"); err == nil {
		t.Error("ParseSlot(P0) succeeded")
	}
	if got := Slot(3).String(); got != "P3" {
		t.Errorf("String = %q", got)
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{Center: Point{X: 0.1, Y: 0.1}, Size: Size{W: 0.2, H: 0.1}}
	for p, want := range map[Point]bool{
		{0.1, 0.1}:   true,
		{0.2, 0.15}:  true,
		{0.21, 0.1}:  false,
		{0.1, 0.049}: false,
	} {
		if got := r.Contains(p); got != want {
			t.Errorf("Contains(%v) = %v, want %v", p, got, want)
		}
	}
}
