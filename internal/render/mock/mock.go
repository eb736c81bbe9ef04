// Package mock provides deterministic stand-ins for [render.Scheduler] and
// [render.Surface] for use in unit tests.
//
// Scheduler fires callbacks only when the test calls [Scheduler.Step], so
// render loops can be driven frame by frame:
//
//	sched := &mock.Scheduler{}
//	surf := mock.NewSurface(600, 400)
//	loop, _ := render.NewLoop(ctx, sched, surf)
//	loop.Bind(scene)
//	sched.Step(time.Now()) // paints exactly one frame into surf
package mock

import (
	"slices"
	"sync"
	"time"

	"github.com/MrWong99/soulsync/internal/render"
)

// Compile-time interface assertions.
var (
	_ render.Scheduler = (*Scheduler)(nil)
	_ render.Surface   = (*Surface)(nil)
	_ render.Context   = (*Surface)(nil)
)

// Scheduler is a manual [render.Scheduler]. The zero value is ready to use
// and safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	next    render.Handle
	pending map[render.Handle]render.FrameFunc

	// Requests counts every Request call.
	Requests int

	// Cancels counts Cancel calls that removed a pending callback.
	Cancels int
}

// Request implements [render.Scheduler].
func (s *Scheduler) Request(fn render.FrameFunc) render.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = make(map[render.Handle]render.FrameFunc)
	}
	s.next++
	s.pending[s.next] = fn
	s.Requests++
	return s.next
}

// Cancel implements [render.Scheduler].
func (s *Scheduler) Cancel(h render.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[h]; ok {
		delete(s.pending, h)
		s.Cancels++
	}
}

// Pending returns the number of scheduled callbacks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Step fires every callback pending at call time, in request order, and
// returns how many fired.
func (s *Scheduler) Step(now time.Time) int {
	s.mu.Lock()
	batch := s.pending
	s.pending = nil
	s.mu.Unlock()

	handles := make([]render.Handle, 0, len(batch))
	for h := range batch {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		batch[h](now)
	}
	return len(handles)
}

// Surface records every frame drawn on it.
type Surface struct {
	mu     sync.Mutex
	size   render.Size
	frames []render.Frame

	// ContextError is returned by Context when set.
	ContextError error

	// DrawError is returned by Draw when set.
	DrawError error
}

// NewSurface returns a surface of the given size.
func NewSurface(width, height float64) *Surface {
	return &Surface{size: render.Size{Width: width, Height: height}}
}

// Context implements [render.Surface].
func (s *Surface) Context() (render.Context, error) {
	if s.ContextError != nil {
		return nil, s.ContextError
	}
	return s, nil
}

// Size implements [render.Surface].
func (s *Surface) Size() render.Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// SetSize changes the reported size.
func (s *Surface) SetSize(width, height float64) {
	s.mu.Lock()
	s.size = render.Size{Width: width, Height: height}
	s.mu.Unlock()
}

// Draw implements [render.Context].
func (s *Surface) Draw(f render.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DrawError != nil {
		return s.DrawError
	}
	s.frames = append(s.frames, f)
	return nil
}

// Frames returns a copy of the frames drawn so far.
func (s *Surface) Frames() []render.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.frames)
}
