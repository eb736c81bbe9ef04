package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/soulsync/internal/api"
	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/observe"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/timeline"
	"github.com/MrWong99/soulsync/internal/translate"
)

type fixture struct {
	sess *session.Session
	mux  *http.ServeMux
}

func newFixture(t *testing.T, cfg session.Config) *fixture {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	cfg.Metrics = m
	sess := session.New(cfg)
	if _, err := sess.ImportSeeds(context.Background(), entity.SampleSeeds()); err != nil {
		t.Fatalf("ImportSeeds: %v", err)
	}

	h, err := api.New(api.Config{
		Session:    sess,
		Translator: translate.New(translate.WithSeed(3), translate.WithMetrics(m)),
	})
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	mux := http.NewServeMux()
	h.Register(mux)
	return &fixture{sess: sess, mux: mux}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, r)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := api.New(api.Config{Translator: translate.New()}); err == nil {
		t.Error("expected error without session")
	}
	if _, err := api.New(api.Config{Session: session.New(session.Config{})}); err == nil {
		t.Error("expected error without translator")
	}
}

func TestEntities(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	rec := f.do(t, "POST", "/api/entities", `{
		"name": "Crystal Drift",
		"blueprint": {"emotionalVector": [0.1, 0.2, 0.3], "logicLoops": ["divergence"],
			"temporalStructure": "quantum", "resonanceFreq": 777, "memoryStability": 0.4},
		"position": {"x": 120, "y": 130}
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	created := decodeBody[entity.Entity](t, rec)
	if created.ID == "" || created.Position != (entity.Position{X: 120, Y: 130}) {
		t.Fatalf("created = %+v", created)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/entities/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	rec = f.do(t, "GET", "/api/entities/"+created.ID, "")
	if rec.Code != http.StatusOK || decodeBody[entity.Entity](t, rec).Name != "Crystal Drift" {
		t.Fatalf("get = %d %s", rec.Code, rec.Body)
	}

	list := decodeBody[[]entity.Entity](t, f.do(t, "GET", "/api/entities", ""))
	if len(list) != 3 || list[2].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}
}

func TestEntities_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing entity", "GET", "/api/entities/nope", "", http.StatusNotFound},
		{"malformed json", "POST", "/api/entities", `{`, http.StatusBadRequest},
		{"unknown field", "POST", "/api/entities", `{"name":"x","colour":"red"}`, http.StatusBadRequest},
		{"invalid blueprint", "POST", "/api/entities", `{"name":"x","blueprint":{"emotionalVector":[2]}}`, http.StatusBadRequest},
		{"wrong method", "PUT", "/api/entities", `{}`, http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		rec := f.do(t, tc.method, tc.path, tc.body)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d (body %s)", tc.name, rec.Code, tc.want, rec.Body)
		}
		if tc.want != http.StatusMethodNotAllowed {
			if body := decodeBody[map[string]string](t, rec); body["error"] == "" {
				t.Errorf("%s: missing error message", tc.name)
			}
		}
	}
}

func TestInteractions(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	rec := f.do(t, "POST", "/api/interactions", `{"source_id":"1","target_id":"2","type":"merge"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	ix := decodeBody[interaction.Interaction](t, rec)
	if ix.Summary != "Consciousness patterns converged into unified resonance field" || ix.Type != interaction.TypeMerge {
		t.Fatalf("interaction = %+v", ix)
	}

	rec = f.do(t, "POST", "/api/interactions", `{"source_id":"1","target_id":"2","type":"bogus-type"}`)
	if rec.Code != http.StatusCreated || decodeBody[interaction.Interaction](t, rec).Summary != interaction.FallbackSummary {
		t.Fatalf("lenient unknown type = %d %s", rec.Code, rec.Body)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{"self reference", `{"source_id":"1","target_id":"1","type":"merge"}`, http.StatusUnprocessableEntity},
		{"unknown target", `{"source_id":"1","target_id":"9","type":"merge"}`, http.StatusUnprocessableEntity},
		{"no selection", `{"target_id":"2","type":"merge"}`, http.StatusConflict},
	}
	for _, tc := range tests {
		if rec := f.do(t, "POST", "/api/interactions", tc.body); rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}

	// With a selection, source_id may be omitted.
	if rec := f.do(t, "POST", "/api/selection", `{"id":"2"}`); rec.Code != http.StatusOK {
		t.Fatalf("select status = %d", rec.Code)
	}
	rec = f.do(t, "POST", "/api/interactions", `{"target_id":"1","type":"reflect"}`)
	if rec.Code != http.StatusCreated || decodeBody[interaction.Interaction](t, rec).SourceID != "2" {
		t.Fatalf("selection-sourced interaction = %d %s", rec.Code, rec.Body)
	}

	list := decodeBody[[]interaction.Interaction](t, f.do(t, "GET", "/api/interactions", ""))
	if len(list) != 3 {
		t.Fatalf("interactions = %d, want 3", len(list))
	}
}

func TestInteractions_StrictTypes(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{StrictTypes: true})
	rec := f.do(t, "POST", "/api/interactions", `{"source_id":"1","target_id":"2","type":"bogus-type"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSelection(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	type selectResponse struct {
		Hit    bool           `json:"hit"`
		Entity *entity.Entity `json:"entity"`
	}

	res := decodeBody[selectResponse](t, f.do(t, "POST", "/api/selection", `{"x":210,"y":150}`))
	if !res.Hit || res.Entity == nil || res.Entity.ID != "1" {
		t.Fatalf("select by point = %+v", res)
	}
	if f.sess.Snapshot().SelectedID != "1" {
		t.Fatal("selection not stored")
	}

	res = decodeBody[selectResponse](t, f.do(t, "POST", "/api/selection", `{"x":0,"y":0}`))
	if res.Hit || f.sess.Snapshot().SelectedID != "" {
		t.Fatalf("miss = %+v, selected %q", res, f.sess.Snapshot().SelectedID)
	}

	if rec := f.do(t, "POST", "/api/selection", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty select status = %d", rec.Code)
	}
	if rec := f.do(t, "POST", "/api/selection", `{"id":"missing"}`); rec.Code != http.StatusNotFound {
		t.Errorf("missing id status = %d", rec.Code)
	}

	f.do(t, "POST", "/api/selection", `{"id":"2"}`)
	if rec := f.do(t, "DELETE", "/api/selection", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	if f.sess.Snapshot().SelectedID != "" {
		t.Fatal("selection not cleared")
	}
}

func TestHit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	rec := f.do(t, "GET", "/api/hit?x=400&y=260", "")
	if rec.Code != http.StatusOK || decodeBody[entity.Entity](t, rec).ID != "2" {
		t.Fatalf("hit = %d %s", rec.Code, rec.Body)
	}
	if f.sess.Snapshot().SelectedID != "" {
		t.Fatal("hit test changed the selection")
	}
	if rec := f.do(t, "GET", "/api/hit?x=1&y=1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("miss status = %d", rec.Code)
	}
	if rec := f.do(t, "GET", "/api/hit?x=abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad params status = %d", rec.Code)
	}
	for _, q := range []string{"x=NaN&y=0", "x=200&y=nan", "x=Inf&y=150", "x=200&y=-Inf"} {
		if rec := f.do(t, "GET", "/api/hit?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET /api/hit?%s status = %d, want 400", q, rec.Code)
		}
	}
}

func TestSimulation(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	type state struct {
		Active  bool   `json:"active"`
		Version uint64 `json:"version"`
	}
	if s := decodeBody[state](t, f.do(t, "GET", "/api/simulation", "")); s.Active {
		t.Fatal("simulation starts paused")
	}
	if s := decodeBody[state](t, f.do(t, "POST", "/api/simulation", `{"active":true}`)); !s.Active {
		t.Fatal("set active failed")
	}
	if s := decodeBody[state](t, f.do(t, "POST", "/api/simulation", `{}`)); s.Active {
		t.Fatal("toggle failed")
	}
}

func TestTimeline(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})
	f.do(t, "POST", "/api/interactions", `{"source_id":"2","target_id":"1","type":"harmonize"}`)

	entries := decodeBody[[]timeline.Entry](t, f.do(t, "GET", "/api/timeline", ""))
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	first := entries[0]
	if first.Kind != timeline.KindInteraction || first.SourceName != "Echo Prime" || first.TargetName != "Resonance Alpha" {
		t.Fatalf("first entry = %+v", first)
	}

	if limited := decodeBody[[]timeline.Entry](t, f.do(t, "GET", "/api/timeline?limit=1", "")); len(limited) != 1 {
		t.Fatalf("limited entries = %d", len(limited))
	}
	if rec := f.do(t, "GET", "/api/timeline?limit=-1", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit status = %d", rec.Code)
	}
}

func TestOptionsAndSnapshot(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	opts := decodeBody[map[string]json.RawMessage](t, f.do(t, "GET", "/api/options", ""))
	for _, key := range []string{"types", "temporal_structures", "logic_loops", "default_blueprint", "hit_radius", "example_prompts"} {
		if _, ok := opts[key]; !ok {
			t.Errorf("options missing %q", key)
		}
	}
	var types []interaction.TypeOption
	if err := json.Unmarshal(opts["types"], &types); err != nil || len(types) != 5 {
		t.Fatalf("types = %v (%v)", types, err)
	}

	snap := decodeBody[session.Snapshot](t, f.do(t, "GET", "/api/snapshot", ""))
	if snap.Version != f.sess.Version() || len(snap.Entities) != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})

	rec := f.do(t, "POST", "/api/translate", `{"text":"merge us together"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	got := decodeBody[translate.Record](t, rec)
	if got.Category != translate.CategoryConnection || !strings.HasPrefix(got.Output, "Consciousness threads") {
		t.Fatalf("record = %+v", got)
	}

	if rec := f.do(t, "POST", "/api/translate", `{"text":"   "}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d", rec.Code)
	}

	history := decodeBody[[]translate.Entry](t, f.do(t, "GET", "/api/translate/history", ""))
	if len(history) != 1 || history[0].Input != "merge us together" {
		t.Fatalf("history = %+v", history)
	}
}

func TestClosedSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, session.Config{})
	f.sess.Close()
	if rec := f.do(t, "POST", "/api/simulation", `{"active":true}`); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
