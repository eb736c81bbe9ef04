package render

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Handle identifies a requested frame callback.
type Handle uint64

// FrameFunc is a frame callback. now is the frame time shared by every
// callback fired on the same tick.
type FrameFunc func(now time.Time)

// Scheduler fires one-shot frame callbacks, like a browser's
// requestAnimationFrame. Callbacks must re-request themselves to keep
// animating.
type Scheduler interface {
	// Request schedules fn for the next frame.
	Request(fn FrameFunc) Handle

	// Cancel drops a pending callback. Cancelling a handle that already
	// fired or was never issued is a no-op.
	Cancel(h Handle)
}

// DefaultFrameRate is used when a non-positive rate is configured.
const DefaultFrameRate = 30

// Compile-time assertion that TickerScheduler satisfies Scheduler.
var _ Scheduler = (*TickerScheduler)(nil)

// TickerScheduler fires every pending callback once per tick of a
// [time.Ticker]. Callbacks run sequentially on the goroutine that called
// [TickerScheduler.Run] and must not block.
type TickerScheduler struct {
	mu      sync.Mutex
	next    Handle
	pending map[Handle]FrameFunc

	interval atomic.Int64
	reset    chan time.Duration
	running  atomic.Bool
	now      func() time.Time
}

// NewTickerScheduler returns a scheduler ticking fps times per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	s := &TickerScheduler{
		pending: make(map[Handle]FrameFunc),
		reset:   make(chan time.Duration, 1),
		now:     time.Now,
	}
	s.interval.Store(int64(frameInterval(fps)))
	return s
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return time.Second / time.Duration(fps)
}

// Request implements [Scheduler].
func (s *TickerScheduler) Request(fn FrameFunc) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	return s.next
}

// Cancel implements [Scheduler].
func (s *TickerScheduler) Cancel(h Handle) {
	s.mu.Lock()
	delete(s.pending, h)
	s.mu.Unlock()
}

// Pending returns the number of callbacks waiting for the next tick.
func (s *TickerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// SetFrameRate changes the tick rate. It takes effect on the next tick when
// the scheduler is running.
func (s *TickerScheduler) SetFrameRate(fps int) {
	d := frameInterval(fps)
	s.interval.Store(int64(d))
	select {
	case s.reset <- d:
	default:
		// A reset is already queued; Run reads the latest interval.
	}
}

// FrameRate returns the configured frames per second.
func (s *TickerScheduler) FrameRate() int {
	return int(time.Second / time.Duration(s.interval.Load()))
}

// Running reports whether Run is active.
func (s *TickerScheduler) Running() bool { return s.running.Load() }

// Run ticks until ctx is cancelled. It returns ctx.Err().
func (s *TickerScheduler) Run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)

	ticker := time.NewTicker(time.Duration(s.interval.Load()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.reset:
			ticker.Reset(time.Duration(s.interval.Load()))
		case <-ticker.C:
			s.fire(s.now())
		}
	}
}

// fire runs the callbacks pending at the start of the tick in request
// order. Callbacks requested while firing wait for the next tick.
func (s *TickerScheduler) fire(now time.Time) {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = make(map[Handle]FrameFunc, len(batch))
	s.mu.Unlock()

	handles := make([]Handle, 0, len(batch))
	for h := range batch {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		batch[h](now)
	}
}
