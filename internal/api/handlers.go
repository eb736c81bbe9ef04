package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// ── Entities ──────────────────────────────────────────────────────────────────

type createEntityRequest struct {
	Name      string           `json:"name"`
	Blueprint entity.Blueprint `json:"blueprint"`

	// Position pins the entity; omitted means random placement.
	Position *entity.Position `json:"position,omitempty"`
}

func (h *Handler) listEntities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot().Entities)
}

func (h *Handler) createEntity(w http.ResponseWriter, r *http.Request) {
	var req createEntityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var placer entity.Placer
	if req.Position != nil {
		placer = entity.At(*req.Position)
	}
	e, err := h.session.CreateEntity(r.Context(), entity.Input{Name: req.Name, Blueprint: req.Blueprint}, placer, session.OriginREST)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/entities/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	e, err := h.session.Entity(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ── Interactions ──────────────────────────────────────────────────────────────

type createInteractionRequest struct {
	// SourceID defaults to the selected entity.
	SourceID string           `json:"source_id,omitempty"`
	TargetID string           `json:"target_id"`
	Type     interaction.Type `json:"type"`
}

func (h *Handler) listInteractions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot().Interactions)
}

func (h *Handler) createInteraction(w http.ResponseWriter, r *http.Request) {
	var req createInteractionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		ix  interaction.Interaction
		err error
	)
	if req.SourceID == "" {
		ix, err = h.session.Interact(r.Context(), req.TargetID, req.Type)
	} else {
		ix, err = h.session.Propose(r.Context(), req.SourceID, req.TargetID, req.Type)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ix)
}

// ── Views ─────────────────────────────────────────────────────────────────────

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.TimelineEntries(limit))
}

func (h *Handler) snapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Snapshot())
}

type optionsResponse struct {
	Types              []interaction.TypeOption   `json:"types"`
	TemporalStructures []entity.TemporalStructure `json:"temporal_structures"`
	LogicLoops         []string                   `json:"logic_loops"`
	DefaultBlueprint   entity.Blueprint           `json:"default_blueprint"`
	HitRadius          float64                    `json:"hit_radius"`
	SelectionMode      string                     `json:"selection_mode"`
	StrictTypes        bool                       `json:"strict_types"`
	ExamplePrompts     []string                   `json:"example_prompts"`
}

func (h *Handler) options(w http.ResponseWriter, _ *http.Request) {
	res := h.session.Resolver()
	writeJSON(w, http.StatusOK, optionsResponse{
		Types:              interaction.TypeOptions(),
		TemporalStructures: entity.TemporalStructures,
		LogicLoops:         entity.LogicLoopSuggestions,
		DefaultBlueprint:   entity.DefaultBlueprint(),
		HitRadius:          res.Radius(),
		SelectionMode:      string(res.Mode()),
		StrictTypes:        h.session.StrictTypes(),
		ExamplePrompts:     translate.ExamplePrompts(),
	})
}

// ── Selection ─────────────────────────────────────────────────────────────────

// hit resolves a canvas coordinate without changing the selection.
func (h *Handler) hit(w http.ResponseWriter, r *http.Request) {
	x, errX := floatParam(r, "x")
	y, errY := floatParam(r, "y")
	if errX != nil || errY != nil {
		writeError(w, r, fmt.Errorf("%w: x and y must be numbers", errBadRequest))
		return
	}
	e, ok := h.session.Resolver().Resolve(h.session.Snapshot().Entities, x, y)
	if !ok {
		writeError(w, r, fmt.Errorf("no entity at (%g, %g): %w", x, y, entity.ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type selectRequest struct {
	ID string   `json:"id,omitempty"`
	X  *float64 `json:"x,omitempty"`
	Y  *float64 `json:"y,omitempty"`
}

type selectResponse struct {
	Hit    bool           `json:"hit"`
	Entity *entity.Entity `json:"entity,omitempty"`
}

func (h *Handler) selectEntity(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	switch {
	case req.ID != "":
		e, err := h.session.SelectID(r.Context(), req.ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, selectResponse{Hit: true, Entity: &e})

	case req.X != nil && req.Y != nil:
		e, hit, err := h.session.SelectAt(r.Context(), *req.X, *req.Y)
		if err != nil {
			writeError(w, r, err)
			return
		}
		res := selectResponse{Hit: hit}
		if hit {
			res.Entity = &e
		}
		writeJSON(w, http.StatusOK, res)

	default:
		writeError(w, r, fmt.Errorf("%w: either id or x and y are required", errBadRequest))
	}
}

func (h *Handler) clearSelection(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ClearSelection(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Simulation ────────────────────────────────────────────────────────────────

type simulationState struct {
	// Active is the requested state; omitted toggles.
	Active *bool `json:"active,omitempty"`
}

type simulationResponse struct {
	Active  bool   `json:"active"`
	Version uint64 `json:"version"`
}

func (h *Handler) simulation(w http.ResponseWriter, _ *http.Request) {
	snap := h.session.Snapshot()
	writeJSON(w, http.StatusOK, simulationResponse{Active: snap.Active, Version: snap.Version})
}

func (h *Handler) setSimulation(w http.ResponseWriter, r *http.Request) {
	var req simulationState
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	var err error
	if req.Active == nil {
		_, err = h.session.ToggleActive(r.Context())
	} else {
		err = h.session.SetActive(r.Context(), *req.Active)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.simulation(w, r)
}

// ── Translator ────────────────────────────────────────────────────────────────

type translateRequest struct {
	Text string `json:"text"`
}

func (h *Handler) translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.translator.Translate(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) translateHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, translate.Describe(h.translator.History(), time.Now()))
}

// ── Query parameters ──────────────────────────────────────────────────────────

// intParam parses an optional non-negative integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

// floatParam parses a required, finite float query parameter.
func floatParam(r *http.Request, name string) (float64, error) {
	v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", errBadRequest, name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s must be a finite number", errBadRequest, name)
	}
	return v, nil
}
