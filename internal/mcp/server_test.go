package mcp_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/mcp"
	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// ── Helpers ───────────────────────────────────────────────────────────────────

type fixture struct {
	sess   *session.Session
	reader *sdkmetric.ManualReader
	client *mcpsdk.ClientSession
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	sess := session.New(session.Config{Metrics: m})
	if _, err := sess.ImportSeeds(ctx, entity.SampleSeeds()); err != nil {
		t.Fatalf("ImportSeeds: %v", err)
	}

	srv, err := mcp.NewServer(mcp.Config{
		Session:    sess,
		Translator: translate.New(translate.WithSeed(11)),
		Metrics:    m,
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ct, st := mcpsdk.NewInMemoryTransports()
	ss, err := srv.SDK().Connect(ctx, st, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })

	return &fixture{sess: sess, reader: reader, client: cs}
}

// call invokes a tool and returns the text of its result.
func (f *fixture) call(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	res, err := f.client.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String(), res.IsError
}

func callInto[T any](t *testing.T, f *fixture, name string, args map[string]any) T {
	t.Helper()
	text, isErr := f.call(t, name, args)
	if isErr {
		t.Fatalf("%s returned tool error: %s", name, text)
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("%s: decode %q: %v", name, text, err)
	}
	return v
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestServer_ListsAllTools(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	want := map[string]bool{
		mcp.ToolCreateEntity: false, mcp.ToolListEntities: false, mcp.ToolSelectEntity: false,
		mcp.ToolProposeInteraction: false, mcp.ToolTimeline: false,
		mcp.ToolToggleSimulation: false, mcp.ToolTranslate: false,
	}
	for tool, err := range f.client.Tools(context.Background(), nil) {
		if err != nil {
			t.Fatalf("Tools: %v", err)
		}
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestCreateAndListEntities(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	created := callInto[struct {
		Entity entity.Entity `json:"entity"`
	}](t, f, mcp.ToolCreateEntity, map[string]any{
		"name":               "Quantum Whisper",
		"temporal_structure": "quantum",
		"x":                  300,
		"y":                  320,
	})
	e := created.Entity
	if e.Name != "Quantum Whisper" || e.Blueprint.TemporalStructure != entity.TemporalQuantum {
		t.Fatalf("created = %+v", e)
	}
	if e.Blueprint.ResonanceFreq != 432 || len(e.Blueprint.LogicLoops) != 1 {
		t.Errorf("defaults not applied: %+v", e.Blueprint)
	}
	if e.Position != (entity.Position{X: 300, Y: 320}) {
		t.Errorf("position = %+v", e.Position)
	}

	list := callInto[struct {
		Entities []entity.Entity `json:"entities"`
		Count    int             `json:"count"`
	}](t, f, mcp.ToolListEntities, nil)
	if list.Count != 3 || list.Entities[2].ID != e.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestCreateEntity_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"invalid frequency", map[string]any{"name": "Loud", "resonance_freq": 5000}, "resonanceFreq"},
		{"empty name", map[string]any{"name": ""}, "name"},
		{"half a position", map[string]any{"name": "Lost", "x": 10}, "x and y"},
	}
	for _, tc := range tests {
		text, isErr := f.call(t, mcp.ToolCreateEntity, tc.args)
		if !isErr || !strings.Contains(text, tc.want) {
			t.Errorf("%s: isErr=%v text=%q, want error containing %q", tc.name, isErr, text, tc.want)
		}
	}
	if n := len(f.sess.Snapshot().Entities); n != 2 {
		t.Fatalf("entities = %d, want 2", n)
	}
}

func TestProposeInteraction_ByName(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res := callInto[struct {
		Interaction interaction.Interaction `json:"interaction"`
		SourceName  string                  `json:"source_name"`
		TargetName  string                  `json:"target_name"`
	}](t, f, mcp.ToolProposeInteraction, map[string]any{
		"source": "echo prime",
		"target": "Resonanse Alpha",
		"type":   "merge",
	})
	if res.Interaction.SourceID != "2" || res.Interaction.TargetID != "1" {
		t.Fatalf("edge = %s -> %s", res.Interaction.SourceID, res.Interaction.TargetID)
	}
	if res.SourceName != "Echo Prime" || res.TargetName != "Resonance Alpha" {
		t.Errorf("names = %q, %q", res.SourceName, res.TargetName)
	}
	if res.Interaction.Summary != "Consciousness patterns converged into unified resonance field" {
		t.Errorf("summary = %q", res.Interaction.Summary)
	}
}

func TestProposeInteraction_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"unknown target", map[string]any{"source": "1", "target": "zzzz", "type": "merge"}, "no entity matches"},
		{"self reference", map[string]any{"source": "1", "target": "Resonance Alpha", "type": "merge"}, "must differ"},
		{"no selection", map[string]any{"target": "2", "type": "merge"}, "no entity selected"},
	}
	for _, tc := range tests {
		text, isErr := f.call(t, mcp.ToolProposeInteraction, tc.args)
		if !isErr || !strings.Contains(text, tc.want) {
			t.Errorf("%s: isErr=%v text=%q, want error containing %q", tc.name, isErr, text, tc.want)
		}
	}
}

func TestSelectThenPropose(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	sel := callInto[struct {
		Selected *entity.Entity `json:"selected"`
	}](t, f, mcp.ToolSelectEntity, map[string]any{"entity": "Echo Prime"})
	if sel.Selected == nil || sel.Selected.ID != "2" {
		t.Fatalf("selected = %+v", sel.Selected)
	}

	res := callInto[struct {
		Interaction interaction.Interaction `json:"interaction"`
	}](t, f, mcp.ToolProposeInteraction, map[string]any{"target": "1", "type": "harmonize"})
	if res.Interaction.SourceID != "2" {
		t.Fatalf("source = %q, want selection", res.Interaction.SourceID)
	}

	cleared := callInto[struct {
		Cleared bool `json:"cleared"`
	}](t, f, mcp.ToolSelectEntity, map[string]any{"clear": true})
	if !cleared.Cleared || f.sess.Snapshot().SelectedID != "" {
		t.Fatal("selection not cleared")
	}
}

func TestTimelineTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	if _, err := f.sess.Propose(context.Background(), "1", "2", interaction.TypeFragment); err != nil {
		t.Fatal(err)
	}

	res := callInto[struct {
		Events []struct {
			Kind       string `json:"kind"`
			SourceName string `json:"source_name"`
		} `json:"events"`
		Stats struct {
			Entities     int `json:"entities"`
			Interactions int `json:"interactions"`
		} `json:"stats"`
	}](t, f, mcp.ToolTimeline, map[string]any{"limit": 2})
	if len(res.Events) != 2 || res.Events[0].Kind != "interaction" || res.Events[0].SourceName != "Resonance Alpha" {
		t.Fatalf("events = %+v", res.Events)
	}
	if res.Stats.Entities != 2 || res.Stats.Interactions != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestToggleSimulation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	type state struct {
		Active bool `json:"active"`
	}
	if s := callInto[state](t, f, mcp.ToolToggleSimulation, nil); !s.Active {
		t.Fatal("toggle did not start the simulation")
	}
	if s := callInto[state](t, f, mcp.ToolToggleSimulation, map[string]any{"active": true}); !s.Active {
		t.Fatal("explicit active lost")
	}
	if s := callInto[state](t, f, mcp.ToolToggleSimulation, map[string]any{"active": false}); s.Active || f.sess.Snapshot().Active {
		t.Fatal("pause failed")
	}
}

func TestTranslateTool(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	rec := callInto[translate.Record](t, f, mcp.ToolTranslate, map[string]any{"text": "we transform"})
	if rec.Category != translate.CategoryChange || !strings.HasPrefix(rec.Output, "The pattern transforms into living geometry") {
		t.Fatalf("record = %+v", rec)
	}
	if text, isErr := f.call(t, mcp.ToolTranslate, map[string]any{"text": "  "}); !isErr {
		t.Fatalf("empty text accepted: %q", text)
	}
}

func TestToolCallMetrics(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.call(t, mcp.ToolListEntities, nil)
	f.call(t, mcp.ToolProposeInteraction, map[string]any{"source": "1", "target": "1", "type": "merge"})

	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "soulsync.tool.calls" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				tool, _ := dp.Attributes.Value("tool")
				status, _ := dp.Attributes.Value("status")
				counts[tool.AsString()+"/"+status.AsString()] += dp.Value
			}
		}
	}
	if counts["list_entities/ok"] != 1 || counts["propose_interaction/error"] != 1 {
		t.Fatalf("tool call counts = %v", counts)
	}
}

func TestHandler_StreamableHTTP(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	srv, err := mcp.NewServer(mcp.Config{Session: f.sess, Translator: translate.New()})
	if err != nil {
		t.Fatal(err)
	}
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)

	ctx := context.Background()
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "http-client", Version: "1.0.0"}, nil)
	cs, err := client.Connect(ctx, &mcpsdk.StreamableClientTransport{Endpoint: hs.URL}, nil)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: mcp.ToolListEntities})
	if err != nil || res.IsError {
		t.Fatalf("CallTool: %v %+v", err, res)
	}
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := mcp.NewServer(mcp.Config{Translator: translate.New()}); err == nil {
		t.Error("expected error without session")
	}
	if _, err := mcp.NewServer(mcp.Config{Session: session.New(session.Config{})}); err == nil {
		t.Error("expected error without translator")
	}
}
