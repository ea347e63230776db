package engine_test

import (
	"errors"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/engine/enginetest"
	"github.com/chenyu-psy/cogpy/layout"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func closeTo(a, b float64) bool { return scalar.EqualWithinAbs(a, b, 1e-9) }

func TestNewBoxesErrors(t *testing.T) {
	h := enginetest.New()
	tests := []struct {
		name string
		n    int
		opts []engine.BoxOption
	}{
		{"zero boxes", 0, nil},
		{"negative size", 2, []engine.BoxOption{engine.WithBoxSize(-0.1, 0)}},
		{"pixel units", 2, []engine.BoxOption{engine.WithUnits("pix")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.NewBoxes(h, tt.n, tt.opts...)
			if !errors.Is(err, engine.ErrConfiguration) {
				t.Errorf("err = %v, want configuration error", err)
			}
		})
	}
}

func TestBoxesBeforeLayout(t *testing.T) {
	h := enginetest.New()
	b, err := engine.NewBoxes(h, 3)
	if err != nil {
		t.Fatal(err)
	}
	if b.Arranged() {
		t.Error("arranged before any layout call")
	}
	if err := b.SetText(engine.TextList{"a", "b", "c"}, engine.TextStyle{}); !errors.Is(err, engine.ErrState) {
		t.Errorf("SetText err = %v, want state error", err)
	}
	if err := b.SetImages(engine.ImageList{"a", "b", "c"}, engine.ScaleMax, engine.ImageStyle{}); !errors.Is(err, engine.ErrState) {
		t.Errorf("SetImages err = %v, want state error", err)
	}
	if err := b.DrawBoxes(h); !errors.Is(err, engine.ErrState) {
		t.Errorf("DrawBoxes err = %v, want state error", err)
	}
	if err := b.Assign(engine.Properties{}); !errors.Is(err, engine.ErrState) {
		t.Errorf("Assign err = %v, want state error", err)
	}
}

func TestBoxesDefaults(t *testing.T) {
	h := enginetest.New()
	b, err := engine.NewBoxes(h, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ArrangeCircle(layout.DefaultCircle); err != nil {
		t.Fatal(err)
	}
	box := b.Box(1)
	if diff := cmp.Diff(layout.Size{W: 0.16, H: 0.16}, box.Size, approx); diff != "" {
		t.Errorf("size (-want +got):\n%s", diff)
	}
	if box.LineColor != engine.Black || box.LineWidth != 3 || box.FillColor != nil {
		t.Errorf("style = %v %v %v, want black outline 3, no fill", box.LineColor, box.LineWidth, box.FillColor)
	}
	if !closeTo(box.Pos.X, 0.3) || !closeTo(box.Pos.Y, 0) {
		t.Errorf("P1 = %v, want (0.3, 0)", box.Pos)
	}
	if b.Box(5) != nil || b.Box(0) != nil {
		t.Error("out of range slots returned boxes")
	}
}

func TestSetTextCount(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b", "c")
	if err := b.SetText(engine.TextList{"x", "y"}, engine.TextStyle{}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
	if b.Text(1).Content != "a" {
		t.Errorf("failed SetText changed overlays: %q", b.Text(1).Content)
	}
}

func TestSetTextMap(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b", "c")
	if err := b.SetText(engine.TextMap{2: "only"}, engine.TextStyle{Height: 0.05}); err != nil {
		t.Fatal(err)
	}
	if b.Text(1) != nil || b.Text(3) != nil {
		t.Error("unlisted slots got text")
	}
	if got := b.Text(2); got.Content != "only" || got.Height != 0.05 || got.Pos != b.Box(2).Pos {
		t.Errorf("P2 text = %+v", got)
	}
	if b.Label(1) != "P1" {
		t.Errorf("label = %q, want slot name P1", b.Label(1))
	}
	if err := b.SetText(engine.TextMap{9: "x"}, engine.TextStyle{}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("unknown slot err = %v, want configuration error", err)
	}
}

func TestSetImages(t *testing.T) {
	h := enginetest.New()
	h.Images["wide.png"] = layout.Size{W: 0.4, H: 0.1}
	h.Images["tall.png"] = layout.Size{W: 0.1, H: 0.4}
	b, err := engine.NewBoxes(h, 2, engine.WithBoxSize(0.2, 0.2))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ArrangeLine(layout.Line{Spacing: 0.1}); err != nil {
		t.Fatal(err)
	}
	if err := b.SetImages(engine.ImageList{"wide.png"}, engine.ScaleMax, engine.ImageStyle{}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("count err = %v, want configuration error", err)
	}
	if err := b.SetImages(engine.ImageList{"wide.png", "missing.png"}, engine.ScaleMax, engine.ImageStyle{}); err == nil {
		t.Error("missing image loaded")
	}
	if err := b.SetImages(engine.ImageList{"wide.png", "tall.png"}, engine.ScaleMax, engine.ImageStyle{}); err != nil {
		t.Fatal(err)
	}
	want := []layout.Size{{W: 0.2, H: 0.05}, {W: 0.05, H: 0.2}}
	got := []layout.Size{b.Image(1).Size, b.Image(2).Size}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("sizes (-want +got):\n%s", diff)
	}
	if b.Label(2) != "tall.png" {
		t.Errorf("label = %q, want the image path", b.Label(2))
	}
}

func TestFitImage(t *testing.T) {
	native := layout.Size{W: 0.4, H: 0.2}
	box := layout.Size{W: 0.2, H: 0.2}
	tests := []struct {
		scale engine.ImageScale
		want  layout.Size
	}{
		{engine.ScaleMax, layout.Size{W: 0.2, H: 0.1}},
		{engine.ScaleWidth, layout.Size{W: 0.2, H: 0.1}},
		{engine.ScaleHeight, layout.Size{W: 0.4, H: 0.2}},
		{engine.ScaleNone, native},
	}
	for _, tt := range tests {
		t.Run(string(tt.scale), func(t *testing.T) {
			got := engine.FitImage(native, box, tt.scale)
			if diff := cmp.Diff(tt.want, got, approx); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}

	got := engine.FitImage(layout.Size{W: 0.1, H: 0.3}, box, engine.ScaleHeight)
	if diff := cmp.Diff(layout.Size{W: 0.2 / 3, H: 0.2}, got, approx); diff != "" {
		t.Errorf("tall height fit (-want +got):\n%s", diff)
	}
}

func TestAssign(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b", "c")
	red := color.RGBA{R: 255, A: 255}

	err := b.Assign(engine.Properties{
		FillColor: []color.Color{red, red, red},
		Width:     []float64{0.1, 0.2},
	})
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if b.Box(1).FillColor != nil {
		t.Error("failed Assign changed fill colors")
	}

	if err := b.Assign(engine.Properties{
		FillColor: []color.Color{red, nil, red},
		LineWidth: []float64{1, 2, 3},
		Height:    []float64{0.1, 0.1, 0.1},
	}); err != nil {
		t.Fatal(err)
	}
	if b.Box(1).FillColor != red || b.Box(2).FillColor != nil {
		t.Errorf("fill colors = %v %v", b.Box(1).FillColor, b.Box(2).FillColor)
	}
	if b.Box(3).LineWidth != 3 || b.Box(3).Size.H != 0.1 || b.Box(3).Size.W != 0.2 {
		t.Errorf("P3 = %+v", b.Box(3))
	}
}

func TestSetFillColors(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b")
	if err := b.SetFillColors(map[layout.Slot]color.Color{3: engine.White}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
	if err := b.SetFillColors(map[layout.Slot]color.Color{2: engine.White}); err != nil {
		t.Fatal(err)
	}
	if b.Box(2).FillColor != engine.White || b.Box(1).FillColor != nil {
		t.Error("fill colors not applied to P2 only")
	}
}

func TestDrawOrder(t *testing.T) {
	h := enginetest.New()
	h.Images["a.png"] = layout.Size{W: 0.1, H: 0.1}
	b := arrangedBoxes(t, h, "x", "y")
	if err := b.SetImages(engine.ImageList{"a.png", "a.png"}, engine.ScaleNone, engine.ImageStyle{}); err != nil {
		t.Fatal(err)
	}
	h.Reset()
	b.Draw(h)
	want := []string{"rect", "rect", "image", "image", "text", "text"}
	if diff := cmp.Diff(want, h.Kinds()); diff != "" {
		t.Errorf("draw order (-want +got):\n%s", diff)
	}
}

func TestDrawLayersWithoutOverlays(t *testing.T) {
	h := enginetest.New()
	b, err := engine.NewBoxes(h, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.ArrangeLine(layout.Line{Spacing: 0.05}); err != nil {
		t.Fatal(err)
	}
	if err := b.DrawImages(h); !errors.Is(err, engine.ErrState) {
		t.Errorf("DrawImages err = %v, want state error", err)
	}
	if err := b.DrawText(h); !errors.Is(err, engine.ErrState) {
		t.Errorf("DrawText err = %v, want state error", err)
	}
	b.Draw(h)
	if diff := cmp.Diff([]string{"rect", "rect"}, h.Kinds()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestRearrangeMovesOverlays(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b")
	if err := b.ArrangeCustom(map[layout.Slot]layout.Point{1: {X: -0.5, Y: 0.2}, 2: {X: 0.5, Y: -0.2}}); err != nil {
		t.Fatal(err)
	}
	if got := b.Text(2).Pos; got != (layout.Point{X: 0.5, Y: -0.2}) {
		t.Errorf("P2 text at %v, want (0.5, -0.2)", got)
	}
}

func TestArrangeFailureKeepsBoxes(t *testing.T) {
	h := enginetest.New()
	b := arrangedBoxes(t, h, "a", "b")
	before := b.Box(1).Pos
	if err := b.ArrangeCircle(layout.Circle{Radius: 0.9, Oval: 1}); !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if b.Box(1).Pos != before {
		t.Error("failed layout moved the boxes")
	}
}

func TestArrangeRejectsOtherBoxSize(t *testing.T) {
	h := enginetest.New()
	b, err := engine.NewBoxes(h, 4, engine.WithBoxSize(0.6, 0.6))
	if err != nil {
		t.Fatal(err)
	}
	err = b.ArrangeLine(layout.Line{Direction: layout.Horizontal, Box: layout.Size{W: 0.1, H: 0.1}})
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if b.Arranged() {
		t.Error("boxes arranged with a size they are not drawn with")
	}

	// Four 0.6 boxes span 2.4, wider than the display allows.
	if err := b.ArrangeLine(layout.Line{Direction: layout.Horizontal}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("err = %v, want configuration error", err)
	}
	if err := b.ArrangeLine(layout.Line{Direction: layout.Horizontal, Spacing: 0.01, Box: layout.Size{W: 0.6, H: 0.6}}); !errors.Is(err, engine.ErrConfiguration) {
		t.Errorf("matching size: err = %v, want configuration error", err)
	}
}
