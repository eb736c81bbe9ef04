package mcp

import (
	"context"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/timeline"
	"github.com/MrWong99/soulsync/internal/translate"
)

// Tool names.
const (
	ToolCreateEntity       = "create_entity"
	ToolListEntities       = "list_entities"
	ToolSelectEntity       = "select_entity"
	ToolProposeInteraction = "propose_interaction"
	ToolTimeline           = "timeline"
	ToolToggleSimulation   = "toggle_simulation"
	ToolTranslate          = "translate"
)

// ErrUnknownEntity is returned when an entity reference matches neither an
// id nor a name.
var ErrUnknownEntity = errors.New("mcp: no entity matches reference")

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name: ToolCreateEntity,
		Description: "Create a consciousness entity from a blueprint. Omitted blueprint fields take the builder defaults " +
			"(vector [0.5,0.5,0.5], loops [reflection], linear, 432 Hz, stability 0.7). Omitting x and y places it randomly.",
	}, instrumented(s, ToolCreateEntity, s.createEntity))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolListEntities,
		Description: "List every entity in creation order.",
	}, instrumented(s, ToolListEntities, s.listEntities))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolSelectEntity,
		Description: "Select an entity by id or name, or clear the selection.",
	}, instrumented(s, ToolSelectEntity, s.selectEntity))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name: ToolProposeInteraction,
		Description: "Record an interaction between two distinct entities. Types: merge, resist, harmonize, fragment, reflect. " +
			"The source defaults to the selected entity.",
	}, instrumented(s, ToolProposeInteraction, s.proposeInteraction))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolTimeline,
		Description: "Return the evolution timeline, newest first.",
	}, instrumented(s, ToolTimeline, s.timeline))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolToggleSimulation,
		Description: "Start or pause the simulation. Omitting active toggles it.",
	}, instrumented(s, ToolToggleSimulation, s.toggleSimulation))

	mcpsdk.AddTool(s.server, &mcpsdk.Tool{
		Name:        ToolTranslate,
		Description: "Translate a free-form description into consciousness language.",
	}, instrumented(s, ToolTranslate, s.translate))
}

// resolve finds the entity an agent referred to by id or name.
func (s *Server) resolve(ref string) (entity.Entity, error) {
	e, ok := s.session.FindEntity(ref)
	if !ok {
		return entity.Entity{}, fmt.Errorf("%w %q", ErrUnknownEntity, ref)
	}
	return e, nil
}

// ── create_entity ─────────────────────────────────────────────────────────────

type createEntityArgs struct {
	Name              string    `json:"name" jsonschema:"display name of the entity"`
	EmotionalVector   []float64 `json:"emotional_vector,omitempty" jsonschema:"three values in [0,1]"`
	LogicLoops        []string  `json:"logic_loops,omitempty" jsonschema:"behavioural tags such as reflection or synthesis"`
	TemporalStructure string    `json:"temporal_structure,omitempty" jsonschema:"linear, spiral, fractal, quantum, cyclical or crystalline"`
	ResonanceFreq     float64   `json:"resonance_freq,omitempty" jsonschema:"frequency in Hz between 100 and 1000"`
	MemoryStability   *float64  `json:"memory_stability,omitempty" jsonschema:"value in [0,1]"`
	X                 *float64  `json:"x,omitempty" jsonschema:"canvas x coordinate"`
	Y                 *float64  `json:"y,omitempty" jsonschema:"canvas y coordinate"`
}

type entityResult struct {
	Entity entity.Entity `json:"entity"`
}

func (a createEntityArgs) blueprint() entity.Blueprint {
	b := entity.DefaultBlueprint()
	if len(a.EmotionalVector) > 0 {
		b.EmotionalVector = a.EmotionalVector
	}
	if len(a.LogicLoops) > 0 {
		b.LogicLoops = a.LogicLoops
	}
	if a.TemporalStructure != "" {
		b.TemporalStructure = entity.TemporalStructure(a.TemporalStructure)
	}
	if a.ResonanceFreq != 0 {
		b.ResonanceFreq = a.ResonanceFreq
	}
	if a.MemoryStability != nil {
		b.MemoryStability = *a.MemoryStability
	}
	return b
}

func (s *Server) createEntity(ctx context.Context, _ *mcpsdk.CallToolRequest, args createEntityArgs) (*mcpsdk.CallToolResult, entityResult, error) {
	var placer entity.Placer
	switch {
	case args.X != nil && args.Y != nil:
		placer = entity.At(entity.Position{X: *args.X, Y: *args.Y})
	case args.X != nil || args.Y != nil:
		return nil, entityResult{}, errors.New("mcp: x and y must be given together")
	}

	e, err := s.session.CreateEntity(ctx, entity.Input{Name: args.Name, Blueprint: args.blueprint()}, placer, session.OriginMCP)
	if err != nil {
		return nil, entityResult{}, err
	}
	return nil, entityResult{Entity: e}, nil
}

// ── list_entities ─────────────────────────────────────────────────────────────

type listEntitiesArgs struct{}

type listEntitiesResult struct {
	Entities   []entity.Entity `json:"entities"`
	Count      int             `json:"count"`
	SelectedID string          `json:"selected_id,omitempty"`
}

func (s *Server) listEntities(_ context.Context, _ *mcpsdk.CallToolRequest, _ listEntitiesArgs) (*mcpsdk.CallToolResult, listEntitiesResult, error) {
	snap := s.session.Snapshot()
	entities := make([]entity.Entity, len(snap.Entities))
	copy(entities, snap.Entities)
	return nil, listEntitiesResult{Entities: entities, Count: len(entities), SelectedID: snap.SelectedID}, nil
}

// ── select_entity ─────────────────────────────────────────────────────────────

type selectEntityArgs struct {
	Entity string `json:"entity,omitempty" jsonschema:"id or name of the entity to select"`
	Clear  bool   `json:"clear,omitempty" jsonschema:"clear the selection instead"`
}

type selectEntityResult struct {
	Selected *entity.Entity `json:"selected,omitempty"`
	Cleared  bool           `json:"cleared"`
}

func (s *Server) selectEntity(ctx context.Context, _ *mcpsdk.CallToolRequest, args selectEntityArgs) (*mcpsdk.CallToolResult, selectEntityResult, error) {
	if args.Clear {
		if err := s.session.ClearSelection(ctx); err != nil {
			return nil, selectEntityResult{}, err
		}
		return nil, selectEntityResult{Cleared: true}, nil
	}
	if args.Entity == "" {
		return nil, selectEntityResult{}, errors.New("mcp: entity is required unless clear is set")
	}

	target, err := s.resolve(args.Entity)
	if err != nil {
		return nil, selectEntityResult{}, err
	}
	e, err := s.session.SelectID(ctx, target.ID)
	if err != nil {
		return nil, selectEntityResult{}, err
	}
	return nil, selectEntityResult{Selected: &e}, nil
}

// ── propose_interaction ───────────────────────────────────────────────────────

type proposeInteractionArgs struct {
	Source string `json:"source,omitempty" jsonschema:"id or name of the source entity; defaults to the selection"`
	Target string `json:"target" jsonschema:"id or name of the target entity"`
	Type   string `json:"type" jsonschema:"merge, resist, harmonize, fragment or reflect"`
}

type interactionResult struct {
	Interaction interaction.Interaction `json:"interaction"`
	SourceName  string                  `json:"source_name"`
	TargetName  string                  `json:"target_name"`
}

func (s *Server) proposeInteraction(ctx context.Context, _ *mcpsdk.CallToolRequest, args proposeInteractionArgs) (*mcpsdk.CallToolResult, interactionResult, error) {
	target, err := s.resolve(args.Target)
	if err != nil {
		return nil, interactionResult{}, err
	}

	var ix interaction.Interaction
	if args.Source == "" {
		ix, err = s.session.Interact(ctx, target.ID, interaction.Type(args.Type))
	} else {
		source, rerr := s.resolve(args.Source)
		if rerr != nil {
			return nil, interactionResult{}, rerr
		}
		ix, err = s.session.Propose(ctx, source.ID, target.ID, interaction.Type(args.Type))
	}
	if err != nil {
		return nil, interactionResult{}, err
	}
	return nil, interactionResult{
		Interaction: ix,
		SourceName:  s.session.EntityName(ix.SourceID),
		TargetName:  s.session.EntityName(ix.TargetID),
	}, nil
}

// ── timeline ──────────────────────────────────────────────────────────────────

type timelineArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of events; 0 returns all"`
}

type timelineResult struct {
	Events []timeline.Entry `json:"events"`
	Stats  timeline.Stats   `json:"stats"`
}

func (s *Server) timeline(_ context.Context, _ *mcpsdk.CallToolRequest, args timelineArgs) (*mcpsdk.CallToolResult, timelineResult, error) {
	if args.Limit < 0 {
		return nil, timelineResult{}, errors.New("mcp: limit must not be negative")
	}
	entries := s.session.TimelineEntries(args.Limit)
	if entries == nil {
		entries = []timeline.Entry{}
	}
	return nil, timelineResult{Events: entries, Stats: timeline.Count(s.session.Timeline())}, nil
}

// ── toggle_simulation ─────────────────────────────────────────────────────────

type toggleSimulationArgs struct {
	Active *bool `json:"active,omitempty" jsonschema:"desired state; omit to toggle"`
}

type simulationResult struct {
	Active bool `json:"active"`
}

func (s *Server) toggleSimulation(ctx context.Context, _ *mcpsdk.CallToolRequest, args toggleSimulationArgs) (*mcpsdk.CallToolResult, simulationResult, error) {
	if args.Active == nil {
		active, err := s.session.ToggleActive(ctx)
		return nil, simulationResult{Active: active}, err
	}
	if err := s.session.SetActive(ctx, *args.Active); err != nil {
		return nil, simulationResult{}, err
	}
	return nil, simulationResult{Active: *args.Active}, nil
}

// ── translate ─────────────────────────────────────────────────────────────────

type translateArgs struct {
	Text string `json:"text" jsonschema:"free-form description to translate"`
}

func (s *Server) translate(ctx context.Context, _ *mcpsdk.CallToolRequest, args translateArgs) (*mcpsdk.CallToolResult, translate.Record, error) {
	rec, err := s.translator.Translate(ctx, args.Text)
	if err != nil {
		return nil, translate.Record{}, err
	}
	return nil, rec, nil
}
