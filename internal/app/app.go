// Package app wires all SoulSync subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP and drives the render scheduler, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithMetrics,
// WithListener, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/soulsync/internal/api"
	"github.com/MrWong99/soulsync/internal/canvas"
	"github.com/MrWong99/soulsync/internal/config"
	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/health"
	"github.com/MrWong99/soulsync/internal/mcp"
	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/render"
	"github.com/MrWong99/soulsync/internal/selection"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// shutdownTimeout bounds the graceful HTTP shutdown performed by Run.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes of one SoulSync server.
type App struct {
	cfg      *config.Config
	metrics  *observe.Metrics
	scrape   http.Handler
	logLevel *slog.LevelVar
	watcher  *config.Watcher
	listener net.Listener
	version  string

	// Subsystems, initialised in New and torn down in Shutdown.
	store      *entity.MemStore
	session    *session.Session
	translator *translate.Translator
	sched      *render.TickerScheduler
	canvas     *canvas.Handler
	mcp        *mcp.Server
	handler    http.Handler
	server     *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New.
type Option func(*App)

// WithMetrics records all metrics on m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h at the metrics path instead of the default
// Prometheus registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.scrape = h }
}

// WithLevelVar lets hot reloads change the level of the process logger.
func WithLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// WithWatcher polls the config file and applies hot-reloadable changes
// while the app runs.
func WithWatcher(w *config.Watcher) Option {
	return func(a *App) { a.watcher = w }
}

// WithListener serves on l instead of listening on the configured address.
func WithListener(l net.Listener) Option {
	return func(a *App) { a.listener = l }
}

// WithVersion sets the version reported by the MCP server.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together: the session with its
// seed entities, the translator, the render scheduler and every HTTP surface.
// Nothing is served until [App.Run].
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Session ───────────────────────────────────────────────────────
	if err := a.initSession(ctx); err != nil {
		return nil, fmt.Errorf("app: init session: %w", err)
	}

	// ── 2. Translator ────────────────────────────────────────────────────
	a.translator = translate.New(
		translate.WithSeed(cfg.Translator.Seed),
		translate.WithHistorySize(cfg.Translator.HistorySize),
		translate.WithMetrics(a.metrics),
	)

	// ── 3. Render scheduler ──────────────────────────────────────────────
	a.sched = render.NewTickerScheduler(cfg.Canvas.FrameRate)

	// ── 4. HTTP surfaces ─────────────────────────────────────────────────
	if err := a.initHTTP(); err != nil {
		return nil, fmt.Errorf("app: init http: %w", err)
	}

	slog.Info("app initialised",
		"entities", len(a.session.Snapshot().Entities),
		"frame_rate", cfg.Canvas.FrameRate,
		"mcp", cfg.MCP.IsEnabled(),
		"metrics", cfg.Metrics.IsEnabled(),
	)
	return a, nil
}

func (a *App) initSession(ctx context.Context) error {
	cfg := a.cfg
	a.store = entity.NewMemStore(
		entity.WithBounds(entity.Bounds{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height}),
		entity.WithPlacer(entity.NewRandomPlacer(cfg.Simulation.PlacementSeed)),
	)
	a.session = session.New(session.Config{
		Entities:    a.store,
		Resolver:    resolverFor(cfg),
		StrictTypes: cfg.Simulation.StrictTypes,
		StartActive: cfg.Simulation.StartActive,
		Metrics:     a.metrics,
	})
	a.closers = append(a.closers, func() error {
		a.session.Close()
		return nil
	})

	if cfg.Simulation.LoadSamples() {
		if _, err := a.session.ImportSeeds(ctx, entity.SampleSeeds()); err != nil {
			return fmt.Errorf("sample entities: %w", err)
		}
	}
	for _, path := range cfg.Simulation.SeedFiles {
		sf, err := entity.LoadSeedFile(path)
		if err != nil {
			return err
		}
		n, err := a.session.ImportSeeds(ctx, sf.Seeds)
		if err != nil {
			return fmt.Errorf("seed file %q: %w", path, err)
		}
		slog.Info("seed file imported", "path", path, "entities", n)
	}
	return nil
}

func (a *App) initHTTP() error {
	cfg := a.cfg
	mux := http.NewServeMux()

	var err error
	a.canvas, err = canvas.NewHandler(canvas.Config{
		Session:        a.session,
		Scheduler:      a.sched,
		DefaultSize:    render.Size{Width: cfg.Canvas.Width, Height: cfg.Canvas.Height},
		OriginPatterns: cfg.Server.AllowedOrigins,
		Metrics:        a.metrics,
	})
	if err != nil {
		return err
	}
	mux.Handle("GET /canvas/ws", a.canvas)
	mux.Handle("/", canvas.StaticHandler())

	rest, err := api.New(api.Config{Session: a.session, Translator: a.translator})
	if err != nil {
		return err
	}
	rest.Register(mux)

	health.New(
		health.SessionChecker(a.session),
		health.SchedulerChecker(a.sched),
	).Register(mux)

	if cfg.MCP.IsEnabled() {
		a.mcp, err = mcp.NewServer(mcp.Config{
			Session:    a.session,
			Translator: a.translator,
			Metrics:    a.metrics,
			Version:    a.version,
		})
		if err != nil {
			return err
		}
		h := a.mcp.Handler()
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			mux.Handle(method+" "+cfg.MCP.Path, h)
		}
	}
	if cfg.Metrics.IsEnabled() {
		if a.scrape == nil {
			a.scrape = observe.MetricsHandler()
		}
		mux.Handle("GET "+cfg.Metrics.Path, a.scrape)
	}

	a.handler = observe.Middleware(a.metrics,
		observe.WithQuietPaths("/healthz", "/readyz", cfg.Metrics.Path),
	)(mux)
	return nil
}

func resolverFor(cfg *config.Config) *selection.Resolver {
	return selection.NewResolver(
		selection.WithHitRadius(cfg.Canvas.HitRadius),
		selection.WithMode(cfg.Canvas.SelectionMode),
	)
}

// Handler returns the root HTTP handler with all routes mounted.
func (a *App) Handler() http.Handler { return a.handler }

// Session returns the simulation served by the app.
func (a *App) Session() *session.Session { return a.session }

// Scheduler returns the render scheduler shared by every canvas.
func (a *App) Scheduler() *render.TickerScheduler { return a.sched }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP, ticks the render scheduler and polls the config watcher
// (if any) until ctx is cancelled or one of them fails. On return every
// subsystem has been shut down.
func (a *App) Run(ctx context.Context) error {
	ln := a.listener
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.cfg.Server.ListenAddr)
		if err != nil {
			return fmt.Errorf("app: listen on %q: %w", a.cfg.Server.ListenAddr, err)
		}
	}
	a.server = &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("http server listening", "addr", ln.Addr().String())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return a.sched.Run(gctx)
	})
	if a.watcher != nil {
		g.Go(func() error {
			return a.watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ApplyConfig applies the hot-reloadable differences between old and new.
// It is the callback to pass to [config.NewWatcher].
func (a *App) ApplyConfig(old, new *config.Config) {
	d := config.Diff(old, new)

	if d.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(d.NewLogLevel.Slog())
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.FrameRateChanged {
		a.sched.SetFrameRate(d.NewFrameRate)
		slog.Info("frame rate changed", "frame_rate", d.NewFrameRate)
	}
	if d.SelectionChanged() {
		r := resolverFor(new)
		a.session.SetResolver(r)
		slog.Info("selection resolver changed", "hit_radius", r.Radius(), "mode", r.Mode())
	}
	if d.CanvasSizeChanged {
		a.canvas.SetDefaultSize(render.Size{Width: d.NewWidth, Height: d.NewHeight})
		a.store.SetBounds(entity.Bounds{Width: d.NewWidth, Height: d.NewHeight})
		slog.Info("canvas size changed", "width", d.NewWidth, "height", d.NewHeight)
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("config changes require a restart to take effect", "fields", d.RestartRequired)
	}
	a.cfg = new
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown runs the closers in order, starting with the session, which ends
// every canvas connection, and then stops the HTTP server. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers), "canvas_clients", a.canvas.Clients())

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		if a.server != nil {
			if err := a.server.Shutdown(ctx); err != nil {
				slog.Warn("http shutdown error", "err", err)
				shutdownErr = err
				return
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
