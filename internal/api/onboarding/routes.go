// Package onboarding provides the REST handlers that drive an onboarding
// run stage by stage.
package onboarding

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gleansync/ns-glean-sync/internal/api/common"
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/telemetry"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

const (
	// SessionCookie carries the session id for browser clients
	SessionCookie = "nsgs_session"

	// SessionHeader carries the session id for API clients
	SessionHeader = telemetry.SessionHeader

	maxBodyBytes = 64 << 10
)

// stage summaries used as the error of transport and remote failures
var failureSummaries = map[workflow.Stage]string{
	workflow.IndexingUsers:   "User indexing failed.",
	workflow.FetchingRecords: "Bulk Fetch NS Data failed.",
	workflow.BulkIndexing:    "Bulk document indexing failed.",
}

// Routes holds the onboarding handlers
type Routes struct {
	sessions *workflow.Sessions
}

// NewRoutes creates the onboarding handlers over sessions
func NewRoutes(sessions *workflow.Sessions) *Routes {
	return &Routes{sessions: sessions}
}

// Router creates the onboarding router
func Router(sessions *workflow.Sessions) http.Handler {
	routes := NewRoutes(sessions)

	r := chi.NewRouter()
	r.Post("/auth", routes.submitCredentials)
	r.Post("/index_users", routes.indexUsers)
	r.Post("/fetch_ns_bulk_data", routes.fetchRecords)
	r.Post("/bulk_doc_index", routes.bulkIndex)
	r.Get("/status", routes.status)
	r.Delete("/session", routes.discard)

	return r
}

// submitCredentials handles POST /api/auth. A session is created when the
// request does not name a live one.
func (rr *Routes) submitCredentials(w http.ResponseWriter, r *http.Request) {
	var creds credentials.CredentialSet
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&creds); err != nil {
		common.WriteErrorResponse(w, "invalid request body", http.StatusBadRequest)
		return
	}

	id := sessionID(r)
	coord, ok := rr.sessions.Get(id)
	if !ok {
		id, coord = rr.sessions.Create(r.Context())
	}
	setSession(w, r, id)

	result := coord.SubmitCredentials(r.Context(), creds)
	if !result.OK {
		writeStageError(w, result)
		return
	}

	common.WriteJSONResponse(w, AuthResponse{
		Success:   true,
		ID:        result.Payload.CredentialID,
		SessionID: id,
	}, http.StatusOK)
}

// indexUsers handles POST /api/index_users
func (rr *Routes) indexUsers(w http.ResponseWriter, r *http.Request) {
	coord, ok := rr.coordinator(w, r)
	if !ok {
		return
	}

	result := coord.RunIndexUsers(r.Context())
	if !result.OK {
		writeStageError(w, result)
		return
	}

	resp := IndexUsersResponse{Message: result.Message}
	if result.Payload != nil && result.Payload.UsersIndexed != nil {
		resp.UsersIndexed = *result.Payload.UsersIndexed
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// fetchRecords handles POST /api/fetch_ns_bulk_data
func (rr *Routes) fetchRecords(w http.ResponseWriter, r *http.Request) {
	coord, ok := rr.coordinator(w, r)
	if !ok {
		return
	}

	result := coord.RunFetchRecords(r.Context())
	if !result.OK {
		writeStageError(w, result)
		return
	}

	resp := FetchRecordsResponse{Message: result.Message, RecordCounts: map[string]int{}}
	if result.Payload != nil && result.Payload.RecordCounts != nil {
		resp.RecordCounts = result.Payload.RecordCounts
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// bulkIndex handles POST /api/bulk_doc_index
func (rr *Routes) bulkIndex(w http.ResponseWriter, r *http.Request) {
	coord, ok := rr.coordinator(w, r)
	if !ok {
		return
	}

	result := coord.RunBulkIndex(r.Context())
	if !result.OK {
		writeStageError(w, result)
		return
	}

	resp := BulkIndexResponse{Message: result.Message}
	if result.Payload != nil && result.Payload.DocumentsIndexed != nil {
		resp.DocumentsIndexed = *result.Payload.DocumentsIndexed
	}
	common.WriteJSONResponse(w, resp, http.StatusOK)
}

// status handles GET /api/status
func (rr *Routes) status(w http.ResponseWriter, r *http.Request) {
	coord, ok := rr.coordinator(w, r)
	if !ok {
		return
	}
	common.WriteJSONResponse(w, coord.Snapshot(), http.StatusOK)
}

// discard handles DELETE /api/session
func (rr *Routes) discard(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r); id != "" {
		rr.sessions.Delete(r.Context(), id)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// coordinator resolves the request's session, answering 409 when there is none
func (rr *Routes) coordinator(w http.ResponseWriter, r *http.Request) (*workflow.Coordinator, bool) {
	id := sessionID(r)
	if id == "" {
		common.WriteJSONResponse(w, ErrorResponse{
			Error: "no onboarding session; submit credentials first",
			Kind:  string(workflow.KindSequence),
		}, http.StatusConflict)
		return nil, false
	}

	coord, ok := rr.sessions.Get(id)
	if !ok {
		common.WriteJSONResponse(w, ErrorResponse{
			Error: "onboarding session not found or expired; submit credentials again",
			Kind:  string(workflow.KindSequence),
		}, http.StatusConflict)
		return nil, false
	}
	return coord, true
}

func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func setSession(w http.ResponseWriter, r *http.Request, id string) {
	w.Header().Set(SessionHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeStageError maps a failed StageResult onto an HTTP response:
// validation 400, sequence 409, everything else 500.
func writeStageError(w http.ResponseWriter, result workflow.StageResult) {
	e := result.Err
	if e == nil {
		slog.Error("Failed stage result without error", "message", result.Message)
		common.WriteErrorResponse(w, result.Message, http.StatusInternalServerError)
		return
	}

	resp := ErrorResponse{
		Error: e.Message,
		Kind:  string(e.Kind),
		Stage: e.Stage.String(),
	}
	status := http.StatusInternalServerError

	switch e.Kind {
	case workflow.KindValidation:
		status = http.StatusBadRequest
		resp.Fields = e.Fields
	case workflow.KindSequence:
		status = http.StatusConflict
	case workflow.KindTransport, workflow.KindRemote:
		if summary, ok := failureSummaries[e.Stage]; ok {
			resp.Error = summary
			resp.Details = e.Message
		}
	}

	if p := result.Payload; p != nil {
		resp.PartialSuccessCount = p.PartialSuccessCount
		resp.DocumentsIndexed = p.DocumentsIndexed
	}

	common.WriteJSONResponse(w, resp, status)
}
