// Package canvas bridges browser canvases to the render loop over WebSocket.
//
// Each connection is one render surface. A [render.Loop] bound to the
// session's latest snapshot paints into it and every frame is sent to the
// browser as a JSON display list. The browser reports its size with
// "resize" messages and pointer clicks with "click" messages; clicks are
// hit-tested against the session.
package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/render"
	"github.com/MrWong99/soulsync/internal/session"
)

// Default surface size before the first resize message.
const (
	DefaultWidth  = 600
	DefaultHeight = 400
)

const readLimit = 4096

var errSessionClosed = errors.New("canvas: session closed")

// Config holds the dependencies of a [Handler].
type Config struct {
	// Session is the simulation the canvases show. Required.
	Session *session.Session

	// Scheduler drives every connection's render loop. Required.
	Scheduler render.Scheduler

	// DefaultSize is the surface size until the client reports its own.
	// Default: 600×400.
	DefaultSize render.Size

	// OriginPatterns lists extra origins allowed to connect. Same-origin
	// requests are always accepted.
	OriginPatterns []string

	// Metrics records client counts and frame metrics.
	// Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// Handler serves the canvas WebSocket endpoint.
type Handler struct {
	session  *session.Session
	sched    render.Scheduler
	size     atomic.Pointer[render.Size]
	origins  []string
	metrics  *observe.Metrics
	clients  atomic.Int64
	nextConn atomic.Uint64
}

var _ http.Handler = (*Handler)(nil)

// NewHandler validates cfg and returns a [Handler].
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.Session == nil {
		return nil, errors.New("canvas: session is required")
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("canvas: scheduler is required")
	}
	if cfg.DefaultSize.Width <= 0 || cfg.DefaultSize.Height <= 0 {
		cfg.DefaultSize = render.Size{Width: DefaultWidth, Height: DefaultHeight}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	h := &Handler{
		session: cfg.Session,
		sched:   cfg.Scheduler,
		origins: cfg.OriginPatterns,
		metrics: cfg.Metrics,
	}
	h.SetDefaultSize(cfg.DefaultSize)
	return h, nil
}

// SetDefaultSize changes the initial surface size of future connections.
// Non-positive sizes are ignored.
func (h *Handler) SetDefaultSize(size render.Size) {
	if size.Width > 0 && size.Height > 0 {
		h.size.Store(&size)
	}
}

// Clients returns the number of connected canvases.
func (h *Handler) Clients() int {
	return int(h.clients.Load())
}

// ServeHTTP upgrades the request and streams frames until either side goes
// away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Warn("canvas: accept failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(readLimit)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := fmt.Sprintf("canvas-%d", h.nextConn.Add(1))
	h.clients.Add(1)
	h.metrics.CanvasClients.Add(ctx, 1)
	defer func() {
		h.clients.Add(-1)
		h.metrics.CanvasClients.Add(context.Background(), -1)
	}()

	surf := newSurface(*h.size.Load())
	defer surf.close()

	loop, err := render.NewLoop(ctx, h.sched, surf, render.WithMetrics(h.metrics), render.WithName(id))
	if err != nil {
		slog.Warn("canvas: rendering disabled for connection", "conn", id, "err", err)
		conn.Close(websocket.StatusInternalError, "rendering unavailable")
		return
	}
	defer loop.Stop()

	notify, unsubscribe := h.session.Subscribe()
	defer unsubscribe()
	loop.Bind(SceneOf(h.session.Snapshot()))

	slog.Info("canvas connected", "conn", id, "remote", r.RemoteAddr)

	c := &client{id: id, conn: conn, surf: surf, loop: loop, session: h.session}
	g, gctx := errgroup.WithContext(ctx)
	// The reader runs on ctx: cancelling a pending Read tears the connection
	// down without a close handshake. It ends when closeWith closes the conn.
	g.Go(func() error { return c.readLoop(ctx) })
	g.Go(func() error { return c.writeLoop(gctx) })
	g.Go(func() error { return c.bindLoop(gctx, notify) })
	g.Go(func() error {
		<-gctx.Done()
		c.closeWith(context.Cause(gctx))
		return nil
	})
	if err := g.Wait(); err != nil && websocket.CloseStatus(err) == -1 && !errors.Is(err, errSessionClosed) {
		slog.Debug("canvas connection ended", "conn", id, "err", err)
	}
	slog.Info("canvas disconnected", "conn", id, "frames", loop.Frames(), "dropped", surf.Dropped())
}

// client is the state of one connection.
type client struct {
	id      string
	conn    *websocket.Conn
	surf    *surface
	loop    *render.Loop
	session *session.Session
}

// closeWith closes the connection with a status matching cause.
func (c *client) closeWith(cause error) {
	switch {
	case websocket.CloseStatus(cause) != -1:
		// The peer closed first.
		c.conn.CloseNow()
	case errors.Is(cause, errSessionClosed):
		c.conn.Close(websocket.StatusGoingAway, "session closed")
	case cause == nil, errors.Is(cause, context.Canceled):
		c.conn.Close(websocket.StatusNormalClosure, "")
	default:
		c.conn.Close(websocket.StatusInternalError, "")
	}
}

// bindLoop rebinds the render loop whenever the session publishes.
func (c *client) bindLoop(ctx context.Context, notify <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-notify:
			if !ok {
				return errSessionClosed
			}
			snap := c.session.Snapshot()
			if snap.Version != c.loop.Version() {
				c.loop.Bind(SceneOf(snap))
			}
		}
	}
}

// writeLoop sends painted frames until the loop stops.
func (c *client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.loop.Done():
			if err := c.loop.Err(); err != nil {
				return fmt.Errorf("canvas: render loop: %w", err)
			}
			return context.Canceled
		case f := <-c.surf.frames:
			if err := c.write(ctx, serverMessage{Type: msgFrame, Frame: &f}); err != nil {
				return err
			}
		}
	}
}

// readLoop handles client messages until the connection closes.
func (c *client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("canvas: malformed message", "conn", c.id, "err", err)
			if err := c.write(ctx, serverMessage{Type: msgError, Message: "malformed message"}); err != nil {
				return err
			}
			continue
		}
		if err := c.handle(ctx, msg); err != nil {
			return err
		}
	}
}

func (c *client) handle(ctx context.Context, msg clientMessage) error {
	switch msg.Type {
	case msgResize:
		if c.surf.setSize(msg.Width, msg.Height) {
			c.loop.Resize()
		}
		return nil

	case msgClick:
		e, hit, err := c.session.SelectAt(ctx, msg.X, msg.Y)
		if err != nil {
			return c.write(ctx, serverMessage{Type: msgError, Message: err.Error()})
		}
		reply := serverMessage{Type: msgSelection, Hit: hit}
		if hit {
			reply.Entity = &e
		}
		return c.write(ctx, reply)

	default:
		return c.write(ctx, serverMessage{Type: msgError, Message: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

// write marshals msg and sends it as a text message.
func (c *client) write(ctx context.Context, msg serverMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("canvas: marshal: %w", err)
	}
	return c.conn.Write(ctx, websocket.MessageText, data)
}

// SceneOf converts a session snapshot to a render scene.
func SceneOf(snap *session.Snapshot) render.Scene {
	if snap == nil {
		return render.Scene{}
	}
	return render.Scene{
		Version:      snap.Version,
		Entities:     snap.Entities,
		Interactions: snap.Interactions,
		SelectedID:   snap.SelectedID,
		Active:       snap.Active,
	}
}
