package engine

import (
	"fmt"
	"image/color"
	"math"

	"github.com/charmbracelet/log"

	"github.com/chenyu-psy/cogpy/layout"
)

// UnitsHeight is the only supported coordinate system.
const UnitsHeight = "height"

// Box is one positioned placeholder.
type Box struct {
	Slot      layout.Slot
	Pos       layout.Point
	Size      layout.Size
	LineColor color.Color
	LineWidth float64
	FillColor color.Color
}

// Rect returns the box geometry used for drawing and hit testing.
func (b *Box) Rect() layout.Rect { return layout.Rect{Center: b.Pos, Size: b.Size} }

func (b *Box) Draw(c Canvas) {
	c.DrawRect(b.Rect(), RectStyle{LineColor: b.LineColor, LineWidth: b.LineWidth, FillColor: b.FillColor})
}

type boxConfig struct {
	size      layout.Size
	lineColor color.Color
	lineWidth float64
	fillColor color.Color
	units     string
	logger    *log.Logger
}

// BoxOption customizes NewBoxes.
type BoxOption func(*boxConfig)

// WithBoxSize sets the box width and height. A zero height copies the
// width.
func WithBoxSize(w, h float64) BoxOption {
	return func(c *boxConfig) { c.size = layout.Size{W: w, H: h} }
}

func WithLineColor(col color.Color) BoxOption { return func(c *boxConfig) { c.lineColor = col } }

func WithLineWidth(w float64) BoxOption { return func(c *boxConfig) { c.lineWidth = w } }

func WithFillColor(col color.Color) BoxOption { return func(c *boxConfig) { c.fillColor = col } }

// WithUnits exists for configuration files; anything but "height" is
// rejected.
func WithUnits(u string) BoxOption { return func(c *boxConfig) { c.units = u } }

func WithBoxLogger(l *log.Logger) BoxOption { return func(c *boxConfig) { c.logger = l } }

// Boxes is a fixed-size collection of boxes with optional text and image
// overlays. Boxes exist only after one of the Arrange methods succeeds.
type Boxes struct {
	win    Window
	n      int
	cfg    boxConfig
	boxes  []*Box
	text   map[layout.Slot]*Text
	images map[layout.Slot]*Image
}

// NewBoxes prepares a collection of n boxes on win. Call an Arrange method
// before anything else.
func NewBoxes(win Window, n int, opts ...BoxOption) (*Boxes, error) {
	cfg := boxConfig{
		size:      layout.Size{W: 0.16},
		lineColor: Black,
		lineWidth: 3,
		units:     UnitsHeight,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.units != UnitsHeight {
		return nil, fmt.Errorf("%w: only %q units are supported, got %q", ErrConfiguration, UnitsHeight, cfg.units)
	}
	if cfg.size.H == 0 {
		cfg.size.H = cfg.size.W
	}
	if cfg.size.W <= 0 || cfg.size.H <= 0 {
		return nil, fmt.Errorf("%w: box size must be positive, got %gx%g", ErrConfiguration, cfg.size.W, cfg.size.H)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: a box collection needs at least one box, got %d", ErrConfiguration, n)
	}
	if cfg.logger == nil {
		cfg.logger = log.Default()
	}
	return &Boxes{win: win, n: n, cfg: cfg}, nil
}

// Len is the number of boxes.
func (b *Boxes) Len() int { return b.n }

// Arranged reports whether a layout call has succeeded.
func (b *Boxes) Arranged() bool { return b.boxes != nil }

// Arrange positions the boxes with s. Strategies that need a box size and
// leave it zero get the collection's default size. Overlays follow their
// boxes when the collection is arranged again.
func (b *Boxes) Arrange(s layout.Strategy) error {
	var err error
	switch st := s.(type) {
	case layout.Line:
		st.Box, err = b.fitSize(st.Box)
		s = st
	case layout.Grid:
		st.Box, err = b.fitSize(st.Box)
		s = st
	case layout.Random:
		st.Box, err = b.fitSize(st.Box)
		s = st
	}
	if err != nil {
		return err
	}

	a, err := layout.Compute(b.n, s, b.win.Aspect())
	if err != nil {
		return err
	}
	for _, w := range a.Warnings {
		b.cfg.logger.Warn("layout", "strategy", s.Kind(), "warning", w)
	}

	boxes := make([]*Box, b.n)
	for i, p := range a.Positions {
		boxes[i] = &Box{
			Slot:      layout.Slot(i + 1),
			Pos:       p,
			Size:      b.cfg.size,
			LineColor: b.cfg.lineColor,
			LineWidth: b.cfg.lineWidth,
			FillColor: b.cfg.fillColor,
		}
	}
	b.boxes = boxes
	for s, t := range b.text {
		t.Pos = b.boxes[s-1].Pos
	}
	for s, img := range b.images {
		img.Pos = b.boxes[s-1].Pos
	}
	return nil
}

// fitSize is the size a strategy checks the fit with. It must be the size
// the boxes are drawn with.
func (b *Boxes) fitSize(box layout.Size) (layout.Size, error) {
	if box == (layout.Size{}) {
		return b.cfg.size, nil
	}
	if box != b.cfg.size {
		return layout.Size{}, fmt.Errorf("%w: layout box %gx%g differs from the collection's %gx%g",
			ErrConfiguration, box.W, box.H, b.cfg.size.W, b.cfg.size.H)
	}
	return box, nil
}

func (b *Boxes) ArrangeCircle(c layout.Circle) error { return b.Arrange(c) }
func (b *Boxes) ArrangeLine(l layout.Line) error     { return b.Arrange(l) }
func (b *Boxes) ArrangeGrid(g layout.Grid) error     { return b.Arrange(g) }
func (b *Boxes) ArrangeRandom(r layout.Random) error { return b.Arrange(r) }

func (b *Boxes) ArrangeCustom(pos map[layout.Slot]layout.Point) error {
	return b.Arrange(layout.Custom{Positions: pos})
}

func (b *Boxes) requireArranged(op string) error {
	if b.boxes == nil {
		return fmt.Errorf("%w: %s before the boxes were arranged", ErrState, op)
	}
	return nil
}

// Box returns the box in slot s, or nil.
func (b *Boxes) Box(s layout.Slot) *Box {
	if b.boxes == nil || s < 1 || int(s) > len(b.boxes) {
		return nil
	}
	return b.boxes[s-1]
}

// All returns the boxes in slot order.
func (b *Boxes) All() []*Box { return b.boxes }

// Rect returns the current geometry of slot s.
func (b *Boxes) Rect(s layout.Slot) layout.Rect {
	if box := b.Box(s); box != nil {
		return box.Rect()
	}
	return layout.Rect{}
}

// Text returns the text overlay of slot s, or nil.
func (b *Boxes) Text(s layout.Slot) *Text { return b.text[s] }

// Image returns the image overlay of slot s, or nil.
func (b *Boxes) Image(s layout.Slot) *Image { return b.images[s] }

// Label names the response given by pressing slot s: its text, else its
// image path, else the slot name.
func (b *Boxes) Label(s layout.Slot) string {
	if t := b.text[s]; t != nil {
		return t.Content
	}
	if img := b.images[s]; img != nil {
		return img.Path
	}
	return s.String()
}

// TextContent is TextList or TextMap.
type TextContent interface{ textContent() }

// TextList assigns text to the boxes in slot order.
type TextList []string

// TextMap assigns text to the listed slots only.
type TextMap map[layout.Slot]string

func (TextList) textContent() {}
func (TextMap) textContent()  {}

// TextStyle applies to every overlay of one SetText call.
type TextStyle struct {
	Height    float64
	Color     color.Color
	WrapWidth float64
	Units     string
}

// SetText replaces the text overlays.
func (b *Boxes) SetText(content TextContent, style TextStyle) error {
	if err := b.requireArranged("attaching text"); err != nil {
		return err
	}
	if style.Units != "" && style.Units != UnitsHeight {
		return fmt.Errorf("%w: only %q units are supported, got %q", ErrConfiguration, UnitsHeight, style.Units)
	}
	if style.Height == 0 {
		style.Height = 0.16
	}
	if style.Color == nil {
		style.Color = Black
	}

	var values map[layout.Slot]string
	switch c := content.(type) {
	case TextList:
		m, err := b.fromList("text", []string(c))
		if err != nil {
			return err
		}
		values = m
	case TextMap:
		if err := b.checkKeys("text", c); err != nil {
			return err
		}
		values = c
	default:
		return fmt.Errorf("%w: unsupported text content %T", ErrConfiguration, content)
	}

	text := make(map[layout.Slot]*Text, len(values))
	for s, v := range values {
		text[s] = &Text{
			Content:   v,
			Pos:       b.boxes[s-1].Pos,
			Height:    style.Height,
			Color:     style.Color,
			WrapWidth: style.WrapWidth,
		}
	}
	b.text = text
	return nil
}

// ImageContent is ImageList or ImageMap.
type ImageContent interface{ imageContent() }

// ImageList assigns image paths to the boxes in slot order.
type ImageList []string

// ImageMap assigns image paths to the listed slots only.
type ImageMap map[layout.Slot]string

func (ImageList) imageContent() {}
func (ImageMap) imageContent()  {}

// ImageScale selects how images are fitted into their boxes.
type ImageScale string

const (
	// ScaleMax fits the whole image inside the box.
	ScaleMax ImageScale = "max"
	// ScaleWidth matches the box width.
	ScaleWidth ImageScale = "width"
	// ScaleHeight matches the box height.
	ScaleHeight ImageScale = "height"
	// ScaleNone keeps the native size.
	ScaleNone ImageScale = "none"
)

// FitImage rescales native so that it fits box according to scale while
// keeping its aspect ratio. Unknown scales leave the size untouched.
func FitImage(native, box layout.Size, scale ImageScale) layout.Size {
	rw, rh := native.W/box.W, native.H/box.H
	ratio := 1.0
	switch scale {
	case ScaleMax:
		ratio = math.Max(rw, rh)
	case ScaleWidth:
		ratio = rw
	case ScaleHeight:
		ratio = rh
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return native
	}
	return layout.Size{W: native.W / ratio, H: native.H / ratio}
}

// ImageStyle applies to every overlay of one SetImages call.
type ImageStyle struct {
	Units string
}

// SetImages replaces the image overlays. Each image is loaded through the
// window to learn its native size, then fitted to its box.
func (b *Boxes) SetImages(content ImageContent, scale ImageScale, style ImageStyle) error {
	if err := b.requireArranged("attaching images"); err != nil {
		return err
	}
	if style.Units != "" && style.Units != UnitsHeight {
		return fmt.Errorf("%w: only %q units are supported, got %q", ErrConfiguration, UnitsHeight, style.Units)
	}

	var values map[layout.Slot]string
	switch c := content.(type) {
	case ImageList:
		m, err := b.fromList("image", []string(c))
		if err != nil {
			return err
		}
		values = m
	case ImageMap:
		if err := b.checkKeys("image", c); err != nil {
			return err
		}
		values = c
	default:
		return fmt.Errorf("%w: unsupported image content %T", ErrConfiguration, content)
	}

	images := make(map[layout.Slot]*Image, len(values))
	for s, path := range values {
		native, err := b.win.LoadImage(path)
		if err != nil {
			return fmt.Errorf("load image for %s: %w", s, err)
		}
		box := b.boxes[s-1]
		images[s] = &Image{Path: path, Pos: box.Pos, Size: FitImage(native, box.Size, scale)}
	}
	b.images = images
	return nil
}

func (b *Boxes) fromList(what string, list []string) (map[layout.Slot]string, error) {
	if len(list) != b.n {
		return nil, fmt.Errorf("%w: %d %s values for %d boxes", ErrConfiguration, len(list), what, b.n)
	}
	m := make(map[layout.Slot]string, len(list))
	for i, v := range list {
		m[layout.Slot(i+1)] = v
	}
	return m, nil
}

func (b *Boxes) checkKeys(what string, m map[layout.Slot]string) error {
	for s := range m {
		if b.Box(s) == nil {
			return fmt.Errorf("%w: %s for unknown box %s", ErrConfiguration, what, s)
		}
	}
	return nil
}

// Properties holds per-box values in slot order. Nil slices are left
// alone.
type Properties struct {
	FillColor []color.Color
	LineColor []color.Color
	LineWidth []float64
	Width     []float64
	Height    []float64
}

// Assign sets box attributes in bulk. Nothing is changed when any slice
// has the wrong length.
func (b *Boxes) Assign(p Properties) error {
	if err := b.requireArranged("assigning properties"); err != nil {
		return err
	}
	for name, n := range map[string]int{
		"fillColor": lenOrCount(p.FillColor, b.n),
		"lineColor": lenOrCount(p.LineColor, b.n),
		"lineWidth": lenOrCount(p.LineWidth, b.n),
		"width":     lenOrCount(p.Width, b.n),
		"height":    lenOrCount(p.Height, b.n),
	} {
		if n != b.n {
			return fmt.Errorf("%w: %d %s values for %d boxes", ErrConfiguration, n, name, b.n)
		}
	}
	for i, box := range b.boxes {
		if p.FillColor != nil {
			box.FillColor = p.FillColor[i]
		}
		if p.LineColor != nil {
			box.LineColor = p.LineColor[i]
		}
		if p.LineWidth != nil {
			box.LineWidth = p.LineWidth[i]
		}
		if p.Width != nil {
			box.Size.W = p.Width[i]
		}
		if p.Height != nil {
			box.Size.H = p.Height[i]
		}
	}
	return nil
}

func lenOrCount[T any](s []T, n int) int {
	if s == nil {
		return n
	}
	return len(s)
}

// SetFillColors colors the listed slots.
func (b *Boxes) SetFillColors(colors map[layout.Slot]color.Color) error {
	if err := b.requireArranged("coloring boxes"); err != nil {
		return err
	}
	for s := range colors {
		if b.Box(s) == nil {
			return fmt.Errorf("%w: color for unknown box %s", ErrConfiguration, s)
		}
	}
	for s, col := range colors {
		b.boxes[s-1].FillColor = col
	}
	return nil
}

// DrawBoxes draws the box shapes.
func (b *Boxes) DrawBoxes(c Canvas) error {
	if err := b.requireArranged("drawing boxes"); err != nil {
		return err
	}
	for _, box := range b.boxes {
		box.Draw(c)
	}
	return nil
}

// DrawImages draws the image overlays.
func (b *Boxes) DrawImages(c Canvas) error {
	if b.images == nil {
		return fmt.Errorf("%w: drawing images before any were attached", ErrState)
	}
	for _, s := range layout.Slots(b.n) {
		if img := b.images[s]; img != nil {
			img.Draw(c)
		}
	}
	return nil
}

// DrawText draws the text overlays.
func (b *Boxes) DrawText(c Canvas) error {
	if b.text == nil {
		return fmt.Errorf("%w: drawing text before any was attached", ErrState)
	}
	for _, s := range layout.Slots(b.n) {
		if t := b.text[s]; t != nil {
			t.Draw(c)
		}
	}
	return nil
}

// Draw renders boxes, then images, then text, skipping absent layers.
func (b *Boxes) Draw(c Canvas) {
	if b.boxes == nil {
		return
	}
	_ = b.DrawBoxes(c)
	if b.images != nil {
		_ = b.DrawImages(c)
	}
	if b.text != nil {
		_ = b.DrawText(c)
	}
}
