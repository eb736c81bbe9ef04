// Package mcp exposes the simulation to agents as a Model Context Protocol
// server.
//
// Tools mirror the REST surface: agents create entities, list them, select
// one, propose interactions, read the timeline, start or pause the
// simulation and translate free text. Entity references accept an id or a
// name; names resolve through the session's phonetic name matcher, so an
// agent that writes "echo prime" or "Resonanse Alpha" still hits the right
// entity.
//
// The server is served over the streamable HTTP transport by [Server.Handler].
package mcp

import (
	"context"
	"errors"
	"net/http"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// Implementation defaults.
const (
	DefaultName    = "soulsync"
	DefaultVersion = "1.0.0"
)

// Config holds the dependencies of a [Server].
type Config struct {
	// Session is the simulation the tools act on. Required.
	Session *session.Session

	// Translator backs the translate tool. Required.
	Translator *translate.Translator

	// Metrics records tool calls. Default: [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// Name and Version identify the server during initialisation.
	Name    string
	Version string
}

// Server is the SoulSync MCP server.
type Server struct {
	server     *mcpsdk.Server
	session    *session.Session
	translator *translate.Translator
	metrics    *observe.Metrics
}

// NewServer validates cfg, creates the SDK server and registers every tool.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("mcp: session is required")
	}
	if cfg.Translator == nil {
		return nil, errors.New("mcp: translator is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}

	s := &Server{
		server: mcpsdk.NewServer(&mcpsdk.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, &mcpsdk.ServerOptions{
			Instructions: "SoulSync simulates synthetic consciousness entities on a shared canvas. " +
				"Create entities from blueprints, connect them with interactions and read the timeline.",
		}),
		session:    cfg.Session,
		translator: cfg.Translator,
		metrics:    cfg.Metrics,
	}
	s.registerTools()
	return s, nil
}

// SDK returns the underlying SDK server, for example to connect it to an
// in-process transport.
func (s *Server) SDK() *mcpsdk.Server {
	return s.server
}

// Handler returns an HTTP handler serving the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return s.server
	}, nil)
}

// instrumented wraps h so that every call is traced, counted and logged. The output
// type is erased to any: results embed time values, so no output schema is
// inferred and results are sent as JSON text.
func instrumented[In, Out any](s *Server, tool string, h mcpsdk.ToolHandlerFor[In, Out]) mcpsdk.ToolHandlerFor[In, any] {
	return func(ctx context.Context, req *mcpsdk.CallToolRequest, in In) (*mcpsdk.CallToolResult, any, error) {
		start := time.Now()
		ctx, span := observe.StartSpan(ctx, "mcp.tool "+tool,
			trace.WithAttributes(attribute.String("mcp.tool", tool)))

		res, out, err := h(ctx, req, in)
		observe.EndSpan(span, err)
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordToolCall(ctx, tool, status)
		observe.Logger(ctx, "tool", tool).Debug("mcp tool call", "status", status,
			"duration_ms", time.Since(start).Milliseconds(), "err", err)
		if err != nil {
			return res, nil, err
		}
		return res, out, nil
	}
}
