package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "DrawLots API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Session coordination API for the draw-lots party games.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/sessions
	postCreate, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	postCreate.SetSummary("Create session")
	postCreate.SetDescription("Creates a session, seats the creator as admin, and returns the join reference.")
	postCreate.AddReqStructure(CreateSessionRequest{})
	postCreate.AddRespStructure(CreateSessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCreate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(postCreate)

	// GET /api/sessions/{code}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{code}")
	getSession.SetSummary("Get session snapshot")
	getSession.SetDescription("Returns the current session document, seating order, and the caller's light cue.")
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// POST /api/sessions/{code}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/join")
	postJoin.SetSummary("Join session")
	postJoin.SetDescription("Adds a player to the session and returns the minted player id used as the Bearer credential.")
	postJoin.AddReqStructure(JoinRequest{})
	postJoin.AddRespStructure(JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postJoin)

	// POST /api/sessions/{code}/leave
	postLeave, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/leave")
	postLeave.SetSummary("Leave session")
	postLeave.SetDescription("Removes the caller; the admin leaving removes the whole session. Requires Bearer player id.")
	postLeave.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	postLeave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postLeave.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postLeave)

	// GET /api/sessions/{code}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{code}/events")
	getEvents.SetSummary("SSE change feed")
	getEvents.SetDescription("Server-Sent Events stream of full session snapshots; a removed session delivers a terminal event.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// GET /api/sessions/{code}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{code}/ws")
	getWS.SetSummary("WebSocket change feed")
	getWS.SetDescription("Upgrades to a WebSocket delivering the same change events as the SSE feed.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/sessions/{code}/invite.png
	getInvite, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{code}/invite.png")
	getInvite.SetSummary("Invite QR code")
	getInvite.SetDescription("Renders the join link as a QR code.")
	getInvite.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	getInvite.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getInvite)

	// GET /api/sessions/{code}/results
	getResults, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{code}/results")
	getResults.SetSummary("Standings")
	getResults.SetDescription("Returns per-player totals sorted descending, ties broken by seat number.")
	getResults.AddRespStructure(ResultsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getResults.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getResults)

	// POST /api/sessions/{code}/game/select
	postSelect, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/game/select")
	postSelect.SetSummary("Select game")
	postSelect.SetDescription("Admin selects timing or light mode from the lobby. Requires Bearer player id.")
	postSelect.AddReqStructure(SelectGameRequest{})
	postSelect.AddRespStructure(map[string]string{}, openapi.WithHTTPStatus(http.StatusOK))
	postSelect.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postSelect.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSelect)

	// POST /api/sessions/{code}/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/game/start")
	postStart.SetSummary("Start timing round")
	postStart.SetDescription("Admin opens the current timing round; the 4-second deadline is armed. Requires Bearer player id.")
	postStart.AddRespStructure(map[string]bool{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/sessions/{code}/game/click
	postClick, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/game/click")
	postClick.SetSummary("Click")
	postClick.SetDescription("Registers the caller's click for the active round and returns rank and points.")
	postClick.AddRespStructure(ClickResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postClick.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postClick)

	// POST /api/sessions/{code}/game/next
	postNext, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/game/next")
	postNext.SetSummary("Advance round")
	postNext.SetDescription("Admin advances a resolved round, or moves to results after round 3. Requires Bearer player id.")
	postNext.AddRespStructure(NextRoundResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postNext.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postNext)

	// POST /api/sessions/{code}/game/new
	postNew, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{code}/game/new")
	postNew.SetSummary("New game")
	postNew.SetDescription("Admin resets the session to the lobby, preserving the roster. Requires Bearer player id.")
	postNew.AddRespStructure(map[string]string{}, openapi.WithHTTPStatus(http.StatusOK))
	postNew.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postNew.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postNew)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
