package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/soulsync/internal/observe"
)

// Loop repaints one surface every frame from the scene it is bound to.
//
// At most one frame callback is outstanding at any time. Every state change
// (Bind, Resize, Stop) cancels the outstanding callback first and bumps a
// generation counter; a callback from an older generation that fires anyway
// returns without drawing.
type Loop struct {
	sched   Scheduler
	surface Surface
	dc      Context
	metrics *observe.Metrics
	name    string

	mu      sync.Mutex
	scene   Scene
	size    Size
	gen     uint64
	handle  Handle
	armed   bool
	seq     uint64
	stopped bool
	err     error
	done    chan struct{}
}

// LoopOption configures a [Loop].
type LoopOption func(*Loop)

// WithMetrics records frame metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) LoopOption {
	return func(l *Loop) {
		if m != nil {
			l.metrics = m
		}
	}
}

// WithName labels the loop in log output.
func WithName(name string) LoopOption {
	return func(l *Loop) { l.name = name }
}

// NewLoop acquires the surface's drawing context and returns an idle loop.
// Nothing is painted until the first [Loop.Bind]. The loop stops when ctx is
// cancelled.
//
// If the drawing context cannot be acquired the loop is not created and the
// returned error wraps [ErrMissingSurface].
func NewLoop(ctx context.Context, sched Scheduler, surface Surface, opts ...LoopOption) (*Loop, error) {
	if surface == nil {
		return nil, fmt.Errorf("render: new loop: %w", ErrMissingSurface)
	}
	dc, err := surface.Context()
	if err == nil && dc == nil {
		err = ErrMissingSurface
	}
	if err != nil {
		if !errors.Is(err, ErrMissingSurface) {
			err = fmt.Errorf("%w: %w", ErrMissingSurface, err)
		}
		return nil, fmt.Errorf("render: new loop: %w", err)
	}

	l := &Loop{
		sched:   sched,
		surface: surface,
		dc:      dc,
		size:    surface.Size(),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	if l.metrics == nil {
		l.metrics = observe.DefaultMetrics()
	}
	l.metrics.ActiveLoops.Add(ctx, 1)
	context.AfterFunc(ctx, l.Stop)
	return l, nil
}

// Bind replaces the scene and schedules a frame for it. Any outstanding
// callback for the previous scene is cancelled first.
func (l *Loop) Bind(scene Scene) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.scene = scene
	l.rearmLocked()
}

// Resize re-reads the surface size and reschedules the current scene.
func (l *Loop) Resize() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.size = l.surface.Size()
	l.rearmLocked()
}

// Stop cancels the outstanding callback and stops the loop. It is safe to
// call more than once.
func (l *Loop) Stop() {
	l.stop(nil)
}

func (l *Loop) stop(cause error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.cancelLocked()
	l.gen++
	l.stopped = true
	l.err = cause
	close(l.done)
	l.metrics.ActiveLoops.Add(context.Background(), -1)
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Err returns the draw error that stopped the loop, if any.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Frames returns the number of frames painted so far.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Version returns the version of the bound scene.
func (l *Loop) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scene.Version
}

// Outstanding reports whether a frame callback is currently scheduled.
func (l *Loop) Outstanding() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.armed
}

func (l *Loop) cancelLocked() {
	if l.armed {
		l.sched.Cancel(l.handle)
		l.armed = false
	}
}

func (l *Loop) rearmLocked() {
	l.cancelLocked()
	l.gen++
	l.armLocked(l.gen)
}

func (l *Loop) armLocked(gen uint64) {
	l.handle = l.sched.Request(func(now time.Time) { l.frame(gen, now) })
	l.armed = true
}

func (l *Loop) frame(gen uint64, now time.Time) {
	l.mu.Lock()
	if l.stopped || gen != l.gen {
		l.mu.Unlock()
		return
	}
	l.armed = false
	l.seq++
	start := time.Now()
	f := Paint(l.scene, l.size, now)
	f.Seq = l.seq
	l.mu.Unlock()

	if err := l.dc.Draw(f); err != nil {
		slog.Debug("render loop stopped", "loop", l.name, "frames", f.Seq, "err", err)
		l.stop(err)
		return
	}
	l.metrics.RecordFrame(context.Background(), time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.stopped && gen == l.gen && !l.armed {
		l.armLocked(gen)
	}
}
