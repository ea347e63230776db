// Package preview renders displays to PDF without a screen. Every Flip
// becomes one page, which makes it handy for checking layouts and for
// printing stimulus sheets.
package preview

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/layout"
)

const mmToPt = 72 / 25.4

type Options struct {
	// HeightMM is the page height. Width follows from the aspect ratio.
	HeightMM float64
	// ReferenceHeight is the pixel height image sizes and line widths are
	// measured against.
	ReferenceHeight float64
	Background      color.Color
	FontFile        string
	Logger          *log.Logger
}

// Document is an engine.Window that writes PDF pages.
type Document struct {
	opts   Options
	aspect float64
	wmm    float64
	hmm    float64
	logger *log.Logger

	writer *pdf.PDF
	c      *canvas.Canvas
	ctx    *canvas.Context
	pages  int
	dirty  bool

	images map[string]image.Image
	family *canvas.FontFamily
}

// New starts a document for a display of the given aspect ratio.
func New(w io.Writer, aspect float64, opts Options) (*Document, error) {
	if aspect <= 0 {
		return nil, fmt.Errorf("%w: aspect ratio must be positive, got %g", engine.ErrConfiguration, aspect)
	}
	if opts.HeightMM <= 0 {
		opts.HeightMM = 100
	}
	if opts.ReferenceHeight <= 0 {
		opts.ReferenceHeight = 1080
	}
	if opts.Background == nil {
		opts.Background = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	d := &Document{
		opts:   opts,
		aspect: aspect,
		wmm:    opts.HeightMM * aspect,
		hmm:    opts.HeightMM,
		logger: logger,
		images: make(map[string]image.Image),
	}
	d.writer = pdf.New(w, d.wmm, d.hmm, nil)
	d.writer.SetInfo("cogpy preview", "", "", "", "cogpy")

	fontPath := opts.FontFile
	if fontPath == "" {
		var tried []string
		if fontPath, tried = engine.FindFont(); fontPath == "" {
			logger.Debug("no font found, text will not be drawn", "tried", tried)
		}
	}
	if fontPath != "" {
		family := canvas.NewFontFamily("cogpy")
		if err := family.LoadFontFile(fontPath, canvas.FontRegular); err != nil {
			logger.Warn("failed to load font, text will not be drawn", "path", fontPath, "err", err)
		} else {
			d.family = family
		}
	}
	d.newCanvas()
	return d, nil
}

func (d *Document) newCanvas() {
	d.c = canvas.New(d.wmm, d.hmm)
	d.ctx = canvas.NewContext(d.c)
	d.ctx.SetFillColor(d.opts.Background)
	d.ctx.SetStrokeColor(canvas.Transparent)
	d.ctx.DrawPath(0, 0, canvas.Rectangle(d.wmm, d.hmm))
	d.dirty = false
}

// Pages is the number of pages written so far.
func (d *Document) Pages() int { return d.pages }

// toPage maps a point in height units to page millimetres, y up.
func (d *Document) toPage(p layout.Point) (float64, float64) {
	return d.wmm/2 + p.X*d.hmm, d.hmm/2 + p.Y*d.hmm
}

func (d *Document) pxToMM(px float64) float64 { return px * d.hmm / d.opts.ReferenceHeight }

func (d *Document) Aspect() float64 { return d.aspect }

func (d *Document) DrawRect(r layout.Rect, s engine.RectStyle) {
	x, y := d.toPage(r.Center)
	w, h := r.Size.W*d.hmm, r.Size.H*d.hmm
	if s.FillColor != nil {
		d.ctx.SetFillColor(s.FillColor)
	} else {
		d.ctx.SetFillColor(canvas.Transparent)
	}
	if s.LineColor != nil && s.LineWidth > 0 {
		d.ctx.SetStrokeColor(s.LineColor)
		d.ctx.SetStrokeWidth(d.pxToMM(s.LineWidth))
	} else {
		d.ctx.SetStrokeColor(canvas.Transparent)
	}
	d.ctx.DrawPath(x-w/2, y-h/2, canvas.Rectangle(w, h))
	d.dirty = true
}

func (d *Document) DrawText(t *engine.Text) {
	if d.family == nil || t.Content == "" {
		return
	}
	col := t.Color
	if col == nil {
		col = engine.Black
	}
	face := d.family.Face(t.Height*d.hmm*mmToPt, col, canvas.FontRegular, canvas.FontNormal)
	lines := wrap(t.Content, t.WrapWidth*d.hmm, face.TextWidth)

	x, y := d.toPage(t.Pos)
	m := face.Metrics()
	lh := m.LineHeight
	if lh <= 0 {
		lh = t.Height * d.hmm
	}
	top := y + lh*float64(len(lines))/2
	for i, line := range lines {
		baseline := top - float64(i)*lh - m.Ascent
		d.ctx.DrawText(x, baseline, canvas.NewTextLine(face, line, canvas.Center))
	}
	d.dirty = true
}

// wrap breaks s on spaces so that no line is wider than limit. A limit of
// zero only honors explicit newlines.
func wrap(s string, limit float64, width func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		if limit <= 0 {
			lines = append(lines, para)
			continue
		}
		var cur string
		for _, word := range strings.Fields(para) {
			next := word
			if cur != "" {
				next = cur + " " + word
			}
			if cur != "" && width(next) > limit {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}

func (d *Document) image(path string) (image.Image, error) {
	if img, ok := d.images[path]; ok {
		return img, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	d.images[path] = img
	return img, nil
}

// LoadImage reports the image size in height units of a ReferenceHeight
// pixel display.
func (d *Document) LoadImage(path string) (layout.Size, error) {
	img, err := d.image(path)
	if err != nil {
		return layout.Size{}, err
	}
	b := img.Bounds()
	return layout.Size{
		W: float64(b.Dx()) / d.opts.ReferenceHeight,
		H: float64(b.Dy()) / d.opts.ReferenceHeight,
	}, nil
}

func (d *Document) DrawImage(i *engine.Image) {
	img, err := d.image(i.Path)
	if err != nil {
		d.logger.Warn("failed to draw image", "err", err)
		return
	}
	w := i.Size.W * d.hmm
	if w <= 0 || img.Bounds().Dx() == 0 {
		return
	}
	x, y := d.toPage(i.Pos)
	dpmm := float64(img.Bounds().Dx()) / w
	d.ctx.DrawImage(x-w/2, y-i.Size.H*d.hmm/2, img, canvas.DPMM(dpmm))
	d.dirty = true
}

// Flip writes the current page and starts a blank one.
func (d *Document) Flip() {
	if d.pages > 0 {
		d.writer.NewPage(d.wmm, d.hmm)
	}
	d.c.RenderTo(d.writer)
	d.pages++
	d.newCanvas()
}

// Close writes any pending drawing as a last page and finishes the PDF.
func (d *Document) Close() {
	if err := d.Finish(); err != nil {
		d.logger.Error("failed to write PDF", "err", err)
	}
}

// Finish is Close with the write error.
func (d *Document) Finish() error {
	if d.dirty || d.pages == 0 {
		d.Flip()
	}
	return d.writer.Close()
}

var _ engine.Window = (*Document)(nil)
