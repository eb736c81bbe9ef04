package canvas

import (
	"errors"
	"sync"

	"github.com/MrWong99/soulsync/internal/render"
)

// Size limits accepted from clients.
const (
	minDimension = 1
	maxDimension = 8192
)

var errSurfaceClosed = errors.New("canvas: surface closed")

var (
	_ render.Surface = (*surface)(nil)
	_ render.Context = (*surface)(nil)
)

// surface is the server-side stand-in for one browser canvas. Draw never
// blocks: it keeps only the newest undelivered frame and the connection's
// writer drains it.
type surface struct {
	mu     sync.Mutex
	size   render.Size
	closed bool

	frames  chan render.Frame
	dropped uint64
}

func newSurface(size render.Size) *surface {
	return &surface{
		size:   size,
		frames: make(chan render.Frame, 1),
	}
}

// Context implements [render.Surface].
func (s *surface) Context() (render.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, render.ErrMissingSurface
	}
	return s, nil
}

// Size implements [render.Surface].
func (s *surface) Size() render.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// setSize records the size the client reported. It returns false when the
// size is out of range or unchanged.
func (s *surface) setSize(w, h float64) bool {
	if w < minDimension || h < minDimension || w > maxDimension || h > maxDimension {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := render.Size{Width: w, Height: h}
	if s.size == next {
		return false
	}
	s.size = next
	return true
}

// Draw implements [render.Context]. A frame the writer has not picked up yet
// is replaced by f.
func (s *surface) Draw(f render.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSurfaceClosed
	}
	select {
	case s.frames <- f:
		return nil
	default:
	}
	select {
	case <-s.frames:
		s.dropped++
	default:
	}
	s.frames <- f
	return nil
}

// Dropped returns the number of frames replaced before delivery.
func (s *surface) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *surface) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}
