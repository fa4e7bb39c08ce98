package handler

import (
	"context"
	"net/http"
	"strconv"

	"teamportal/internal/model"
	"teamportal/internal/service"
	"teamportal/internal/transport/rest/middleware"
)

// AdminHandler handles administrative endpoints
type AdminHandler struct {
	teamSvc  *service.TeamService
	allocSvc *service.AllocationService
	authSvc  *service.AuthService
	sessions *service.SessionService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	teamSvc *service.TeamService,
	allocSvc *service.AllocationService,
	authSvc *service.AuthService,
	sessions *service.SessionService,
) *AdminHandler {
	return &AdminHandler{
		teamSvc:  teamSvc,
		allocSvc: allocSvc,
		authSvc:  authSvc,
		sessions: sessions,
	}
}

// AddTeamRequest is the request body for creating a team
type AddTeamRequest struct {
	TeamName string `json:"teamName"`
	TeamCode string `json:"teamCode"`
	Passcode string `json:"passcode"`
}

// AddTeam handles POST /api/admin/team/add
func (h *AdminHandler) AddTeam(w http.ResponseWriter, r *http.Request) {
	var req AddTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	team, err := h.teamSvc.Create(r.Context(), req.TeamName, req.TeamCode, req.Passcode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, team.AdminView())
}

// ToggleTeam handles POST /api/admin/team/toggle
func (h *AdminHandler) ToggleTeam(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeTeamCode(w, r)
	if !ok {
		return
	}

	active, err := h.teamSvc.Toggle(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"teamCode": code, "active": active}))
}

// SetActiveRequest is the request body for setting the active flag
type SetActiveRequest struct {
	TeamCode string `json:"teamCode"`
	Active   *bool  `json:"active"`
}

// SetActive handles POST /api/admin/team/active
func (h *AdminHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TeamCode == "" || req.Active == nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "teamCode and active are required")
		return
	}

	if err := h.teamSvc.SetActive(r.Context(), req.TeamCode, *req.Active); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"teamCode": req.TeamCode, "active": *req.Active}))
}

// LoginLockRequest is the request body for the login switch
type LoginLockRequest struct {
	Enabled *bool `json:"enabled"`
}

// LoginLock handles POST /api/admin/login-lock
func (h *AdminHandler) LoginLock(w http.ResponseWriter, r *http.Request) {
	var req LoginLockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "enabled must be boolean")
		return
	}

	if err := h.authSvc.SetLoginEnabled(r.Context(), *req.Enabled); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"loginEnabled": *req.Enabled}))
}

// ResetProblem handles POST /api/admin/team/reset-ps
func (h *AdminHandler) ResetProblem(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.allocSvc.ResetSelection)
}

// ResetSpin handles POST /api/admin/team/reset-spin
func (h *AdminHandler) ResetSpin(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.allocSvc.ResetSpin)
}

// DeleteTeam handles POST /api/admin/team/delete
func (h *AdminHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.teamSvc.Delete)
}

// FullReset handles POST /api/admin/team/reset
func (h *AdminHandler) FullReset(w http.ResponseWriter, r *http.Request) {
	h.teamAction(w, r, h.teamSvc.FullReset)
}

// RevokeSession handles POST /api/admin/team/revoke
func (h *AdminHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	code, ok := decodeTeamCode(w, r)
	if !ok {
		return
	}
	if _, err := h.teamSvc.Get(r.Context(), code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	n, err := h.sessions.Revoke(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"teamCode": code, "revoked": n}))
}

func (h *AdminHandler) teamAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, teamCode string) error) {
	code, ok := decodeTeamCode(w, r)
	if !ok {
		return
	}

	if err := action(r.Context(), code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"teamCode": code}))
}

// ListTeams handles GET /api/admin/teams
func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamSvc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	views := make([]model.AdminTeamView, len(teams))
	for i := range teams {
		views[i] = teams[i].AdminView()
	}
	writeJSON(w, http.StatusOK, views)
}

// ListProblems handles GET /api/admin/problems
func (h *AdminHandler) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.allocSvc.AdminProblems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, problems)
}

// Settings handles GET /api/admin/config
func (h *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.authSvc.Settings(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// Logins handles GET /api/admin/logins
func (h *AdminHandler) Logins(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := h.authSvc.RecentLogins(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, events)
}

// Ticket handles POST /api/admin/ws-ticket
func (h *AdminHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.authSvc.IssueTicket(middleware.GetAdminTier(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"ticket": ticket})
}
