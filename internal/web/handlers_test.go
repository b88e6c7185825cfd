package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/loadwizard/internal/config"
	"github.com/JonMunkholm/loadwizard/internal/inspect"
	"github.com/JonMunkholm/loadwizard/internal/metrics"
	"github.com/JonMunkholm/loadwizard/internal/wizard"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.ServerConfig{
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 60 * time.Second,
	}
	sessions := wizard.NewSessions(time.Hour, 100)
	inspector := inspect.New(time.Second, time.Second)
	return NewServer(cfg, config.SecurityConfig{}, sessions, inspector, wizard.DefaultPolicy(), metrics.New())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func createSession(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards", createWizardRequest{Mode: wizard.ModeCreate})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: got %d, want 201: %s", rec.Code, rec.Body.String())
	}
	resp := decodeSession(t, rec)
	if resp.Session.ID == "" {
		t.Fatal("create session: empty session ID")
	}
	return resp.Session.ID
}

func sourceColumns() []wizard.SourceColumn {
	return []wizard.SourceColumn{
		{Name: "Email", Type: "text"},
		{Name: "Age", Type: "integer"},
	}
}

func tableColumns() []wizard.TableColumn {
	return []wizard.TableColumn{
		{Name: "email", Type: "text"},
		{Name: "age", Type: "integer", Nullable: true},
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "loadwizard_sessions_active") {
		t.Error("metrics output missing sessions gauge")
	}
}

func TestCreateWizardRejectsBadMode(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards", map[string]string{"mode": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestCreateWizardEditRequiresPriorState(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards", map[string]string{"mode": "edit"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestGetUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/wizards/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", rec.Code)
	}
}

func TestDeleteWizard(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodDelete, "/api/wizards/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d, want 204", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/wizards/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: got %d, want 404", rec.Code)
	}
}

func TestNextRejectsEmptySource(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)

	rec := doJSON(t, srv, http.MethodPost, "/api/wizards/"+id+"/next", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %d, want 422", rec.Code)
	}
	resp := decodeSession(t, rec)
	if resp.Result == nil || resp.Result.Valid {
		t.Fatal("expected invalid validation result")
	}
	if resp.Session.State.Current != wizard.StepSource {
		t.Errorf("state advanced past a failed step: %v", resp.Session.State.Current)
	}
	if len(resp.Session.State.Errors) == 0 {
		t.Error("diagnostics not surfaced on the state")
	}
}

func TestFullWizardWalkthrough(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := "/api/wizards/" + id

	// Source
	rec := doJSON(t, srv, http.MethodPut, base+"/source", wizard.SourceSelection{
		Type:     wizard.SourceCSV,
		Location: "/uploads/users.csv",
		Columns:  sourceColumns(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put source: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodPost, base+"/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next after source: got %d: %s", rec.Code, rec.Body.String())
	}

	// Job details
	rec = doJSON(t, srv, http.MethodPut, base+"/details", wizard.JobDetails{
		Name:      "nightly users load",
		Strategy:  wizard.StrategyInsert,
		BatchSize: 5000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put details: got %d: %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, srv, http.MethodPost, base+"/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next after details: got %d: %s", rec.Code, rec.Body.String())
	}

	// Destination with caller-supplied schema triggers reconciliation.
	rec = doJSON(t, srv, http.MethodPut, base+"/destination", destinationRequest{
		Destination: wizard.Destination{
			CredentialID: "cred-1",
			Type:         wizard.DestPostgreSQL,
			Schema:       "public",
			Table:        "users",
			Columns:      tableColumns(),
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put destination: got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeSession(t, rec)
	if len(resp.Session.State.Mappings) == 0 {
		t.Fatal("destination update did not reconcile mappings")
	}
	for _, m := range resp.Session.State.Mappings {
		if m.Sourced() && !m.Mapped() {
			t.Errorf("column %q not matched against table schema", m.SourceColumn)
		}
	}
	rec = doJSON(t, srv, http.MethodPost, base+"/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next after destination: got %d: %s", rec.Code, rec.Body.String())
	}

	// Column mapping passes as reconciled (missing PK is only a warning).
	rec = doJSON(t, srv, http.MethodPost, base+"/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next after mapping: got %d: %s", rec.Code, rec.Body.String())
	}
	resp = decodeSession(t, rec)
	if resp.Result == nil || len(resp.Result.Warnings) == 0 {
		t.Error("expected a primary key warning on the mapping step")
	}

	// Skip the optional schedule.
	rec = doJSON(t, srv, http.MethodPost, base+"/skip", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("skip schedule: got %d: %s", rec.Code, rec.Body.String())
	}
	resp = decodeSession(t, rec)
	if resp.Session.State.Current != wizard.StepReview {
		t.Fatalf("expected review step, got %v", resp.Session.State.Current)
	}

	// Submit assembles the job request and discards the session.
	rec = doJSON(t, srv, http.MethodPost, base+"/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Job wizard.JobRequest `json:"job"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if out.Job.Name != "nightly users load" {
		t.Errorf("job name = %q", out.Job.Name)
	}
	if out.Job.LoadStrategy != wizard.StrategyInsert {
		t.Errorf("load strategy = %q", out.Job.LoadStrategy)
	}
	if len(out.Job.ColumnMappings) == 0 {
		t.Error("job request carries no column mappings")
	}

	rec = doJSON(t, srv, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("session survived submit: got %d", rec.Code)
	}
}

func TestEditModeRejectsSourceChange(t *testing.T) {
	srv := newTestServer(t)

	prior := wizard.NewState(wizard.ModeCreate)
	prior = prior.WithSource(wizard.SourceSelection{
		Type:     wizard.SourceCSV,
		Location: "/uploads/users.csv",
		Columns:  sourceColumns(),
	})
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards", createWizardRequest{
		Mode:       wizard.ModeEdit,
		PriorState: &prior,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create edit session: got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeSession(t, rec)
	if resp.Session.State.Current != wizard.StepJobDetails {
		t.Errorf("edit session starts on %v, want job details", resp.Session.State.Current)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/wizards/"+resp.Session.ID+"/source", wizard.SourceSelection{
		Type:     wizard.SourceCSV,
		Location: "/uploads/other.csv",
		Columns:  sourceColumns(),
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rec.Code)
	}
}

func TestSkipRejectsRequiredStep(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards/"+id+"/skip", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rec.Code)
	}
}

func TestJumpForwardRejected(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	rec := doJSON(t, srv, http.MethodPost, "/api/wizards/"+id+"/jump", jumpRequest{Step: wizard.StepReview})
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rec.Code)
	}
}

func TestDDLRequiresNewTable(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	rec := doJSON(t, srv, http.MethodGet, "/api/wizards/"+id+"/ddl", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("got %d, want 409", rec.Code)
	}
}

func TestDDLForNewTable(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := "/api/wizards/" + id

	doJSON(t, srv, http.MethodPut, base+"/source", wizard.SourceSelection{
		Type:     wizard.SourceCSV,
		Location: "/uploads/users.csv",
		Columns:  sourceColumns(),
	})
	rec := doJSON(t, srv, http.MethodPut, base+"/destination", destinationRequest{
		Destination: wizard.Destination{
			CredentialID:   "cred-1",
			Type:           wizard.DestPostgreSQL,
			Schema:         "public",
			Table:          "users_new",
			CreateNewTable: true,
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("put destination: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, base+"/ddl", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ddl: got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(out["ddl"], `CREATE TABLE "public"."users_new"`) {
		t.Errorf("unexpected ddl: %s", out["ddl"])
	}
}

func TestSuggestRanksColumns(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := "/api/wizards/" + id

	doJSON(t, srv, http.MethodPut, base+"/source", wizard.SourceSelection{
		Type:     wizard.SourceCSV,
		Location: "/uploads/users.csv",
		Columns:  sourceColumns(),
	})
	doJSON(t, srv, http.MethodPut, base+"/destination", destinationRequest{
		Destination: wizard.Destination{
			CredentialID: "cred-1",
			Type:         wizard.DestPostgreSQL,
			Schema:       "public",
			Table:        "users",
			Columns:      tableColumns(),
		},
	})

	rec := doJSON(t, srv, http.MethodPost, base+"/suggest", suggestRequest{Column: "E-Mail"})
	if rec.Code != http.StatusOK {
		t.Fatalf("suggest: got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Suggestions []wizard.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Suggestions) == 0 || out.Suggestions[0].Column != "email" {
		t.Errorf("unexpected suggestions: %+v", out.Suggestions)
	}
}

func TestValidationEndpointDoesNotAdvance(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv)
	base := "/api/wizards/" + id

	rec := doJSON(t, srv, http.MethodGet, base+"/validation", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validation: got %d", rec.Code)
	}
	var result wizard.ValidationResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Valid {
		t.Error("empty source reported valid")
	}

	resp := decodeSession(t, doJSON(t, srv, http.MethodGet, base, nil))
	if resp.Session.State.Current != wizard.StepSource {
		t.Errorf("validation moved the step to %v", resp.Session.State.Current)
	}
}

func TestListTransformations(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/transformations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var out struct {
		Transformations []wizard.Transformation `json:"transformations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Transformations) == 0 {
		t.Error("empty transformation catalog")
	}
}

func TestListStrategies(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/strategies", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var out struct {
		Strategies []strategyInfo `json:"strategies"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Strategies) != 3 {
		t.Fatalf("got %d strategies, want 3", len(out.Strategies))
	}
	for _, si := range out.Strategies {
		if si.Name == wizard.StrategyUpsert && si.Capabilities.AllowNewTable {
			t.Error("upsert must not allow creating a new table")
		}
	}
}

func TestInspectRequiresDSN(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/inspect/schemas", inspectRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("schemas without dsn: got %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/inspect/tables", inspectRequest{DSN: "postgres://x"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("tables without schema: got %d, want 400", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}
