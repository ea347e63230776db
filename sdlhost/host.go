// Package sdlhost runs trials on a real display through SDL3.
//
// SDL must be used from the main thread: callers lock the OS thread in an
// init function and load the SDL, SDL_image and SDL_ttf binaries before
// calling New.
package sdlhost

import (
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/Zyko0/go-sdl3/img"
	"github.com/Zyko0/go-sdl3/sdl"
	"github.com/Zyko0/go-sdl3/ttf"
	"github.com/charmbracelet/log"

	"github.com/chenyu-psy/cogpy/engine"
	"github.com/chenyu-psy/cogpy/layout"
)

type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	Background color.Color
	// FontFile defaults to the first font engine.FindFont finds.
	FontFile string
	// QuitKey is queued when the window is closed, so that closing the
	// window behaves like the abort key.
	QuitKey string
	Logger  *log.Logger
}

type pointer struct {
	down    bool
	latched bool
	pos     layout.Point
}

// Host is an engine.Host backed by an SDL window and renderer.
type Host struct {
	cfg      Config
	window   *sdl.Window
	renderer *sdl.Renderer
	w, h     float64
	bg       sdl.Color
	fontPath string
	logger   *log.Logger

	fonts    map[int]*ttf.Font
	textures map[string]*texture
	text     map[textKey]*texture

	start   time.Time
	keys    []string
	buttons map[int]*pointer
}

type texture struct {
	tex  *sdl.Texture
	w, h float32
}

type textKey struct {
	content string
	size    int
	color   color.RGBA
	wrap    int
}

// New initializes SDL and opens the window.
func New(cfg Config) (*Host, error) {
	if cfg.Title == "" {
		cfg.Title = "cogpy"
	}
	if cfg.Background == nil {
		cfg.Background = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	if cfg.QuitKey == "" {
		cfg.QuitKey = engine.DefaultAbortKey
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}
	if err := ttf.Init(); err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("ttf init: %w", err)
	}

	flags := sdl.WINDOW_RESIZABLE
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN
	}
	window, renderer, err := sdl.CreateWindowAndRenderer(cfg.Title, cfg.Width, cfg.Height, flags)
	if err != nil {
		ttf.Quit()
		sdl.Quit()
		return nil, fmt.Errorf("create window: %w", err)
	}
	if cfg.VSync {
		renderer.SetVSync(1)
	} else {
		renderer.SetVSync(0)
	}

	fontPath := cfg.FontFile
	if fontPath == "" {
		var tried []string
		if fontPath, tried = engine.FindFont(); fontPath == "" {
			logger.Warn("no font found, text will not be drawn", "tried", tried)
		}
	}

	h := &Host{
		cfg:      cfg,
		window:   window,
		renderer: renderer,
		w:        float64(cfg.Width),
		h:        float64(cfg.Height),
		bg:       sdlColor(cfg.Background),
		fontPath: fontPath,
		logger:   logger,
		fonts:    make(map[int]*ttf.Font),
		textures: make(map[string]*texture),
		text:     make(map[textKey]*texture),
		start:    time.Now(),
		buttons:  make(map[int]*pointer),
	}
	h.clear()
	return h, nil
}

func sdlColor(c color.Color) sdl.Color {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	return sdl.Color{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A}
}

func (h *Host) clear() {
	h.renderer.SetDrawColor(h.bg.R, h.bg.G, h.bg.B, h.bg.A)
	h.renderer.Clear()
}

// toPixels maps a height-units rectangle to renderer coordinates.
func (h *Host) toPixels(center layout.Point, size layout.Size) sdl.FRect {
	w, ht := size.W*h.h, size.H*h.h
	return sdl.FRect{
		X: float32(h.w/2 + center.X*h.h - w/2),
		Y: float32(h.h/2 - center.Y*h.h - ht/2),
		W: float32(w),
		H: float32(ht),
	}
}

func (h *Host) toUnits(x, y float32) layout.Point {
	return layout.Point{
		X: (float64(x) - h.w/2) / h.h,
		Y: (h.h/2 - float64(y)) / h.h,
	}
}

func (h *Host) Aspect() float64 { return h.w / h.h }

func (h *Host) DrawRect(r layout.Rect, s engine.RectStyle) {
	dst := h.toPixels(r.Center, r.Size)
	if s.FillColor != nil {
		c := sdlColor(s.FillColor)
		h.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
		h.renderer.RenderFillRect(&dst)
	}
	if s.LineWidth <= 0 || s.LineColor == nil {
		return
	}
	lw := float32(s.LineWidth * h.h / 1080)
	lw = max(lw, 1)
	c := sdlColor(s.LineColor)
	h.renderer.SetDrawColor(c.R, c.G, c.B, c.A)
	for _, edge := range []sdl.FRect{
		{X: dst.X, Y: dst.Y, W: dst.W, H: lw},
		{X: dst.X, Y: dst.Y + dst.H - lw, W: dst.W, H: lw},
		{X: dst.X, Y: dst.Y, W: lw, H: dst.H},
		{X: dst.X + dst.W - lw, Y: dst.Y, W: lw, H: dst.H},
	} {
		h.renderer.RenderFillRect(&edge)
	}
}

func (h *Host) font(size int) *ttf.Font {
	if f, ok := h.fonts[size]; ok {
		return f
	}
	var f *ttf.Font
	if h.fontPath != "" {
		var err error
		f, err = ttf.OpenFont(h.fontPath, float32(size))
		if err != nil {
			h.logger.Warn("failed to load font", "path", h.fontPath, "err", err)
			f = nil
		}
	}
	h.fonts[size] = f
	return f
}

func (h *Host) DrawText(t *engine.Text) {
	if t.Content == "" {
		return
	}
	col := t.Color
	if col == nil {
		col = engine.Black
	}
	key := textKey{
		content: t.Content,
		size:    max(int(t.Height*h.h), 1),
		color:   color.RGBAModel.Convert(col).(color.RGBA),
		wrap:    int(t.WrapWidth * h.h),
	}
	tx, ok := h.text[key]
	if !ok {
		tx = h.renderText(key)
		h.text[key] = tx
	}
	if tx == nil {
		return
	}
	dst := sdl.FRect{
		X: float32(h.w/2+t.Pos.X*h.h) - tx.w/2,
		Y: float32(h.h/2-t.Pos.Y*h.h) - tx.h/2,
		W: tx.w,
		H: tx.h,
	}
	h.renderer.RenderTexture(tx.tex, nil, &dst)
}

func (h *Host) renderText(k textKey) *texture {
	font := h.font(k.size)
	if font == nil {
		return nil
	}
	fg := sdl.Color{R: k.color.R, G: k.color.G, B: k.color.B, A: k.color.A}
	var (
		surf *sdl.Surface
		err  error
	)
	if k.wrap > 0 {
		surf, err = font.RenderTextBlendedWrapped(k.content, fg, int32(k.wrap))
	} else {
		surf, err = font.RenderTextBlended(k.content, fg)
	}
	if err != nil || surf == nil {
		h.logger.Warn("failed to render text", "text", k.content, "err", err)
		return nil
	}
	defer surf.Destroy()
	tex, err := h.renderer.CreateTextureFromSurface(surf)
	if err != nil {
		h.logger.Warn("failed to create text texture", "err", err)
		return nil
	}
	return &texture{tex: tex, w: float32(surf.W), h: float32(surf.H)}
}

func (h *Host) loadTexture(path string) (*texture, error) {
	if tx, ok := h.textures[path]; ok {
		return tx, nil
	}
	tex, err := img.LoadTexture(h.renderer, path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	w, ht, _ := tex.Size()
	tx := &texture{tex: tex, w: w, h: ht}
	h.textures[path] = tx
	return tx, nil
}

// LoadImage loads the texture once and reports its pixel size in height
// units.
func (h *Host) LoadImage(path string) (layout.Size, error) {
	tx, err := h.loadTexture(path)
	if err != nil {
		return layout.Size{}, err
	}
	return layout.Size{W: float64(tx.w) / h.h, H: float64(tx.h) / h.h}, nil
}

func (h *Host) DrawImage(i *engine.Image) {
	tx, err := h.loadTexture(i.Path)
	if err != nil {
		h.logger.Warn("failed to draw image", "err", err)
		return
	}
	dst := h.toPixels(i.Pos, i.Size)
	h.renderer.RenderTexture(tx.tex, nil, &dst)
}

// Flip presents the frame and starts the next one on the background color.
func (h *Host) Flip() {
	h.renderer.Present()
	h.clear()
}

func (h *Host) Close() {
	for _, tx := range h.textures {
		tx.tex.Destroy()
	}
	for _, tx := range h.text {
		if tx != nil {
			tx.tex.Destroy()
		}
	}
	for _, f := range h.fonts {
		if f != nil {
			f.Close()
		}
	}
	h.renderer.Destroy()
	h.window.Destroy()
	ttf.Quit()
	sdl.Quit()
}

func (h *Host) Now() time.Duration { return time.Since(h.start) }

// Wait keeps pumping events while it sleeps so that key presses are
// queued with the state they arrived in.
func (h *Host) Wait(d time.Duration) {
	deadline := h.Now() + d
	for {
		h.pump()
		left := deadline - h.Now()
		if left <= 0 {
			return
		}
		if left >= time.Millisecond {
			sdl.Delay(1)
		} else {
			time.Sleep(left)
		}
	}
}

func (h *Host) button(b int) *pointer {
	p, ok := h.buttons[b]
	if !ok {
		p = &pointer{}
		h.buttons[b] = p
	}
	return p
}

func (h *Host) pump() {
	var ev sdl.Event
	for sdl.PollEvent(&ev) {
		switch ev.Type {
		case sdl.EVENT_QUIT:
			h.keys = append(h.keys, h.cfg.QuitKey)
		case sdl.EVENT_KEY_DOWN:
			ke := ev.KeyboardEvent()
			if ke.Repeat {
				continue
			}
			h.keys = append(h.keys, strings.ToLower(ke.Key.KeyName()))
		case sdl.EVENT_MOUSE_BUTTON_DOWN:
			me := ev.MouseButtonEvent()
			p := h.button(int(me.Button) - 1)
			p.down, p.latched = true, true
			p.pos = h.toUnits(me.X, me.Y)
		case sdl.EVENT_MOUSE_BUTTON_UP:
			me := ev.MouseButtonEvent()
			h.button(int(me.Button) - 1).down = false
		}
	}
}

// PendingKeys returns lower-case SDL key names ("space", "escape",
// "left", "f").
func (h *Host) PendingKeys(filter []string) []string {
	h.pump()
	var out []string
	for _, k := range h.keys {
		if filter == nil || slices.Contains(filter, k) {
			out = append(out, k)
		}
	}
	h.keys = h.keys[:0]
	return out
}

// ClearEvents drops queued keys and forgets buttons pressed so far.
func (h *Host) ClearEvents() {
	h.pump()
	h.keys = h.keys[:0]
	for _, p := range h.buttons {
		p.down, p.latched = false, false
	}
}

// Pressed reports a button that is down or was pressed since the last
// query.
func (h *Host) Pressed(b int) bool {
	h.pump()
	p := h.button(b)
	pressed := p.down || p.latched
	p.latched = false
	return pressed
}

func (h *Host) PressedIn(r layout.Rect, b int) bool {
	h.pump()
	p := h.button(b)
	if !(p.down || p.latched) || !r.Contains(p.pos) {
		return false
	}
	p.latched = false
	return true
}

var _ engine.Host = (*Host)(nil)
