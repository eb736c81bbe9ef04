// Package api serves the SoulSync REST interface under /api.
//
// Every handler is a thin adapter over [session.Session] and
// [translate.Translator]: it decodes the JSON request, calls one session
// operation and encodes the result. Domain errors map to status codes in
// [statusFor].
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Config holds the dependencies of a [Handler].
type Config struct {
	// Session is the simulation the API operates on. Required.
	Session *session.Session

	// Translator serves /api/translate. Required.
	Translator *translate.Translator
}

// Handler serves the REST routes.
type Handler struct {
	session    *session.Session
	translator *translate.Translator
}

// New validates cfg and returns a [Handler].
func New(cfg Config) (*Handler, error) {
	if cfg.Session == nil {
		return nil, errors.New("api: session is required")
	}
	if cfg.Translator == nil {
		return nil, errors.New("api: translator is required")
	}
	return &Handler{session: cfg.Session, translator: cfg.Translator}, nil
}

// Register adds every /api route to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/entities", h.listEntities)
	mux.HandleFunc("POST /api/entities", h.createEntity)
	mux.HandleFunc("GET /api/entities/{id}", h.getEntity)

	mux.HandleFunc("GET /api/interactions", h.listInteractions)
	mux.HandleFunc("POST /api/interactions", h.createInteraction)

	mux.HandleFunc("GET /api/timeline", h.timeline)
	mux.HandleFunc("GET /api/snapshot", h.snapshot)
	mux.HandleFunc("GET /api/options", h.options)

	mux.HandleFunc("GET /api/hit", h.hit)
	mux.HandleFunc("POST /api/selection", h.selectEntity)
	mux.HandleFunc("DELETE /api/selection", h.clearSelection)

	mux.HandleFunc("GET /api/simulation", h.simulation)
	mux.HandleFunc("POST /api/simulation", h.setSimulation)

	mux.HandleFunc("POST /api/translate", h.translate)
	mux.HandleFunc("GET /api/translate/history", h.translateHistory)
}

// errorBody is the JSON body of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: encode response", "err", err)
	}
}

// writeError maps err to a status code and writes an error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observe.Logger(r.Context()).Error("api: request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		observe.Logger(r.Context()).Debug("api: request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("api: bad request")

// decode reads a JSON body into v. Unknown fields are rejected.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return nil
}
