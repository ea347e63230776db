package engine

import (
	"errors"
	"time"

	"github.com/chenyu-psy/cogpy/layout"
)

var (
	// ErrConfiguration is returned when caller supplied parameters are
	// invalid. It is the same value as layout.ErrConfiguration.
	ErrConfiguration = layout.ErrConfiguration

	// ErrState is returned when an operation is used before the object
	// reached the stage it needs, e.g. attaching text before a layout.
	ErrState = errors.New("state error")
)

// PrimaryButton is the pointer button used for box responses.
const PrimaryButton = 0

// Canvas receives draw calls in height units.
type Canvas interface {
	// Aspect is the window width divided by its height.
	Aspect() float64
	DrawRect(r layout.Rect, s RectStyle)
	DrawText(t *Text)
	DrawImage(img *Image)
}

// Window is a Canvas with a back buffer.
type Window interface {
	Canvas
	// LoadImage returns the native size of the image at path in height
	// units.
	LoadImage(path string) (layout.Size, error)
	// Flip presents the back buffer and clears it.
	Flip()
	Close()
}

// Clock is the host's monotonic time source.
type Clock interface {
	Now() time.Duration
	Wait(d time.Duration)
}

// Input gives access to pending keyboard and pointer events.
type Input interface {
	// PendingKeys drains the key queue and returns the keys matching
	// filter in arrival order. A nil filter matches every key.
	PendingKeys(filter []string) []string
	ClearEvents()
	Pressed(button int) bool
	PressedIn(r layout.Rect, button int) bool
}

// Host is everything a trial needs from the display and input provider.
type Host interface {
	Window
	Clock
	Input
}

// Drawable is any stimulus that can render itself.
type Drawable interface {
	Draw(c Canvas)
}

// DrawFunc adapts a plain function to Drawable.
type DrawFunc func(c Canvas)

func (f DrawFunc) Draw(c Canvas) { f(c) }

// Trigger sends event markers, e.g. TTL lines of a DLP-IO8-G.
type Trigger interface {
	Set(lines string)
	Unset(lines string)
}
