package render

import "errors"

// ErrMissingSurface is returned when a surface cannot provide a drawing
// context. It only disables rendering for that surface.
var ErrMissingSurface = errors.New("render: drawing context unavailable")

// Surface is something a [Loop] can paint on.
type Surface interface {
	// Context acquires the drawing context. Implementations return
	// [ErrMissingSurface] when none is available.
	Context() (Context, error)

	// Size returns the currently displayed size of the surface.
	Size() Size
}

// Context presents painted frames.
type Context interface {
	// Draw presents f. It runs on the scheduler goroutine and must not block
	// on I/O; slow consumers should drop stale frames. A non-nil error stops
	// the loop.
	Draw(f Frame) error
}
