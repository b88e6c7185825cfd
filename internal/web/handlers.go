package web

// handlers.go implements the wizard API. Handlers follow one shape:
// load a session snapshot, run a pure state transition, put the result
// back, respond with the session. The store is the only holder of
// current state, so a failed transition never leaves partial writes.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/loadwizard/internal/wizard"
)

// createWizardRequest opens a session. Edit mode requires the prior
// job's state so the wizard starts pre-populated.
type createWizardRequest struct {
	Mode       wizard.Mode         `json:"mode"`
	PriorState *wizard.WizardState `json:"priorState,omitempty"`
}

// destinationRequest is the destination step update. When DSN is set the
// live table schema is fetched from the database; otherwise the caller
// supplies the columns (or none, for a new table).
type destinationRequest struct {
	wizard.Destination
	DSN string `json:"dsn,omitempty"`
}

type jumpRequest struct {
	Step wizard.Step `json:"step"`
}

type suggestRequest struct {
	Column string `json:"column"`
}

// sessionResponse is the envelope returned by every state-changing call.
type sessionResponse struct {
	Session wizard.Session           `json:"session"`
	Result  *wizard.ValidationResult `json:"result,omitempty"`
}

func decodeJSON(r *http.Request, v any) error {
	defer io.Copy(io.Discard, r.Body)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// loadSession resolves the {sessionID} URL parameter to a snapshot.
// Writes the 404 itself; callers just return when ok is false.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (wizard.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.sessions.Get(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, "wizard session not found")
		return wizard.Session{}, false
	}
	return sess, true
}

// storeState writes the transitioned state back, guarding against the
// sweeper having dropped the session mid-request.
func (s *Server) storeState(w http.ResponseWriter, r *http.Request, id string, state wizard.WizardState) bool {
	if !s.sessions.Put(id, state) {
		respondError(w, r, http.StatusNotFound, "wizard session not found")
		return false
	}
	return true
}

func (s *Server) respondSession(w http.ResponseWriter, id string, result *wizard.ValidationResult) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		// Deleted between Put and Get; treat as gone.
		respondJSON(w, http.StatusGone, ErrorResponse{Error: "wizard session expired"})
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Session: sess, Result: result})
}

// handleCreateWizard opens a new wizard session.
func (s *Server) handleCreateWizard(w http.ResponseWriter, r *http.Request) {
	var req createWizardRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = wizard.ModeCreate
	}
	if req.Mode != wizard.ModeCreate && req.Mode != wizard.ModeEdit {
		respondError(w, r, http.StatusBadRequest, "mode must be create or edit")
		return
	}
	if req.Mode == wizard.ModeEdit && req.PriorState == nil {
		respondError(w, r, http.StatusBadRequest, "edit mode requires priorState")
		return
	}

	sess, err := s.sessions.Create(req.Mode, req.PriorState)
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, sessionResponse{Session: *sess})
}

func (s *Server) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{Session: sess})
}

func (s *Server) handleDeleteWizard(w http.ResponseWriter, r *http.Request) {
	s.sessions.Delete(chi.URLParam(r, "sessionID"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutSource(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if sess.State.Mode == wizard.ModeEdit {
		respondError(w, r, http.StatusConflict, "source cannot be changed while editing a job")
		return
	}

	var src wizard.SourceSelection
	if err := decodeJSON(r, &src); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.storeState(w, r, sess.ID, sess.State.WithSource(src)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handlePutDetails(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var details wizard.JobDetails
	if err := decodeJSON(r, &details); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.storeState(w, r, sess.ID, sess.State.WithDetails(details)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

// handlePutDestination updates the destination and runs reconciliation.
// With a DSN the live table schema is fetched first; callers without
// database access supply columns inline.
func (s *Server) handlePutDestination(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req destinationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	dest := req.Destination
	if req.DSN != "" && !dest.CreateNewTable {
		cols, err := s.inspector.TableColumns(r.Context(), req.DSN, dest.Schema, dest.Table)
		if err != nil {
			respondError(w, r, http.StatusBadGateway, "failed to inspect destination table: "+err.Error())
			return
		}
		dest.Columns = cols
	}

	next := sess.State.WithDestination(dest, s.policy)
	if s.metrics != nil && !dest.CreateNewTable {
		s.metrics.ReconcilesTotal.Inc()
	}

	if !s.storeState(w, r, sess.ID, next) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handlePutMappings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var mappings []wizard.ColumnMapping
	if err := decodeJSON(r, &mappings); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.storeState(w, r, sess.ID, sess.State.WithMappings(mappings)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handlePutUpsertKeys(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var keys []string
	if err := decodeJSON(r, &keys); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.storeState(w, r, sess.ID, sess.State.WithUpsertKeys(keys)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var sched *wizard.Schedule
	if err := decodeJSON(r, &sched); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.storeState(w, r, sess.ID, sess.State.WithSchedule(sched)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

// handleNext validates the current step and advances on success. The
// response always carries the validation result; a failed validation is
// 422 with the state left on the same step, diagnostics surfaced.
func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	next, result := wizard.Next(sess.State)
	if s.metrics != nil {
		s.metrics.ObserveValidation(sess.State.Current.String(), result.Valid)
	}

	if !s.storeState(w, r, sess.ID, next) {
		return
	}
	if !result.Valid {
		stored, _ := s.sessions.Get(sess.ID)
		respondJSON(w, http.StatusUnprocessableEntity, sessionResponse{Session: stored, Result: &result})
		return
	}
	s.respondSession(w, sess.ID, &result)
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	if !s.storeState(w, r, sess.ID, wizard.Back(sess.State)) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	next, skipped := wizard.Skip(sess.State)
	if !skipped {
		respondError(w, r, http.StatusConflict, sess.State.Current.String()+" cannot be skipped")
		return
	}
	if !s.storeState(w, r, sess.ID, next) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	next, jumped := wizard.Jump(sess.State, req.Step)
	if !jumped {
		respondError(w, r, http.StatusConflict, "cannot jump to an incomplete forward step")
		return
	}
	if !s.storeState(w, r, sess.ID, next) {
		return
	}
	s.respondSession(w, sess.ID, nil)
}

// handleValidation runs the current step's validator without advancing
// or touching stored state.
func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	result := wizard.ValidateStep(sess.State, sess.State.Current)
	if s.metrics != nil {
		s.metrics.ObserveValidation(sess.State.Current.String(), result.Valid)
	}
	respondJSON(w, http.StatusOK, result)
}

// handleDDL previews the CREATE TABLE statement for the current mapping
// selection. Only meaningful when the destination asks for a new table.
func (s *Server) handleDDL(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	st := sess.State
	if !st.Destination.CreateNewTable {
		respondError(w, r, http.StatusConflict, "destination does not create a new table")
		return
	}

	gen := wizard.NewDDLGenerator(s.policy)
	ddl := gen.Generate(st.Destination.Schema, st.Destination.Table, st.Mappings, st.Destination.Type)
	if s.metrics != nil {
		s.metrics.DDLGeneratedTotal.Inc()
	}
	respondJSON(w, http.StatusOK, map[string]string{"ddl": ddl})
}

// handleSuggest ranks destination columns for a source column name
// against the fetched table schema.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Column == "" {
		respondError(w, r, http.StatusBadRequest, "column is required")
		return
	}

	suggestions := wizard.SuggestDestination(req.Column, sess.State.Destination.Columns)
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// handleSubmit finalizes the wizard: the current step is re-validated,
// the job request is assembled, and the session is discarded. A failed
// validation returns 422 and keeps the session so the caller can fix
// and retry.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}

	next, result := wizard.Finalize(sess.State)
	if s.metrics != nil {
		s.metrics.ObserveValidation(sess.State.Current.String(), result.Valid)
	}
	if !result.Valid {
		s.sessions.Put(sess.ID, next)
		stored, _ := s.sessions.Get(sess.ID)
		respondJSON(w, http.StatusUnprocessableEntity, sessionResponse{Session: stored, Result: &result})
		return
	}

	var ddl string
	if next.Destination.CreateNewTable {
		gen := wizard.NewDDLGenerator(s.policy)
		ddl = gen.Generate(next.Destination.Schema, next.Destination.Table, next.Mappings, next.Destination.Type)
		if s.metrics != nil {
			s.metrics.DDLGeneratedTotal.Inc()
		}
	}

	job := wizard.BuildJobRequest(next, ddl)
	s.sessions.Delete(sess.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"job":    job,
		"result": result,
	})
}

// inspectRequest carries the connection details for destination
// browsing. The DSN travels in the request body so it never lands in
// access logs.
type inspectRequest struct {
	DSN    string `json:"dsn"`
	Schema string `json:"schema,omitempty"`
}

// handleListSchemas lists the destination's non-system schemas.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DSN == "" {
		respondError(w, r, http.StatusBadRequest, "dsn is required")
		return
	}

	schemas, err := s.inspector.ListSchemas(r.Context(), req.DSN)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "failed to list schemas: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"schemas": schemas})
}

// handleListTables lists the tables of one destination schema.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	var req inspectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.DSN == "" || req.Schema == "" {
		respondError(w, r, http.StatusBadRequest, "dsn and schema are required")
		return
	}

	tables, err := s.inspector.ListTables(r.Context(), req.DSN, req.Schema)
	if err != nil {
		respondError(w, r, http.StatusBadGateway, "failed to list tables: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

// handleListTransformations serves the transformation catalog.
func (s *Server) handleListTransformations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"transformations": wizard.Transformations(),
	})
}

// strategyInfo pairs a load strategy with its mapping capabilities.
type strategyInfo struct {
	Name         wizard.LoadStrategy `json:"name"`
	Capabilities wizard.Capabilities `json:"capabilities"`
}

// handleListStrategies serves the load strategies and what each allows.
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	strategies := []wizard.LoadStrategy{
		wizard.StrategyInsert,
		wizard.StrategyUpsert,
		wizard.StrategyTruncateInsert,
	}
	out := make([]strategyInfo, 0, len(strategies))
	for _, st := range strategies {
		out = append(out, strategyInfo{Name: st, Capabilities: wizard.CapabilitiesFor(st)})
	}
	respondJSON(w, http.StatusOK, map[string]any{"strategies": out})
}
