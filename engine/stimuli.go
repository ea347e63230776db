package engine

import (
	"image/color"

	"github.com/chenyu-psy/cogpy/layout"
)

var (
	Black = color.RGBA{A: 255}
	White = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// RectStyle describes how a rectangle outline and fill are painted. A nil
// FillColor leaves the inside transparent. LineWidth is in pixels of a
// 1080 pixel high window; zero draws no outline.
type RectStyle struct {
	LineColor color.Color
	LineWidth float64
	FillColor color.Color
}

// Text is a centered text stimulus.
type Text struct {
	Content string
	Pos     layout.Point
	Height  float64
	Color   color.Color
	// WrapWidth is the maximum line width; 0 disables wrapping.
	WrapWidth float64
}

func (t *Text) Draw(c Canvas) { c.DrawText(t) }

// Image is an image stimulus drawn with its center at Pos.
type Image struct {
	Path string
	Pos  layout.Point
	Size layout.Size
}

func (img *Image) Draw(c Canvas) { c.DrawImage(img) }

// Fixation is a cross at Pos.
type Fixation struct {
	Pos       layout.Point
	Size      float64
	LineWidth float64
	Color     color.Color
}

// NewFixation returns a cross in the middle of the screen.
func NewFixation(col color.Color) *Fixation {
	return &Fixation{Size: 0.04, LineWidth: 0.004, Color: col}
}

func (f *Fixation) Draw(c Canvas) {
	s := RectStyle{LineColor: f.Color, FillColor: f.Color}
	c.DrawRect(layout.Rect{Center: f.Pos, Size: layout.Size{W: f.Size, H: f.LineWidth}}, s)
	c.DrawRect(layout.Rect{Center: f.Pos, Size: layout.Size{W: f.LineWidth, H: f.Size}}, s)
}

// Blank draws nothing.
var Blank Drawable = DrawFunc(func(Canvas) {})
