package handler

import (
	"net/http"

	"teamportal/internal/service"
	"teamportal/internal/transport/rest/middleware"
)

// TeamHandler handles team-facing endpoints
type TeamHandler struct {
	teamSvc  *service.TeamService
	allocSvc *service.AllocationService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamSvc *service.TeamService, allocSvc *service.AllocationService) *TeamHandler {
	return &TeamHandler{
		teamSvc:  teamSvc,
		allocSvc: allocSvc,
	}
}

// Me handles GET /api/team/me
func (h *TeamHandler) Me(w http.ResponseWriter, r *http.Request) {
	team, err := h.teamSvc.Get(r.Context(), middleware.GetTeamCode(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, team.View())
}

// Spin handles POST /api/spin
func (h *TeamHandler) Spin(w http.ResponseWriter, r *http.Request) {
	reward, err := h.allocSvc.Spin(r.Context(), middleware.GetTeamCode(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reward": reward})
}

// Problems handles GET /api/problems
func (h *TeamHandler) Problems(w http.ResponseWriter, r *http.Request) {
	problems, err := h.allocSvc.ListProblems(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, problems)
}

// SelectProblemRequest is the request body for claiming a problem
type SelectProblemRequest struct {
	ProblemID string `json:"problemId"`
}

// SelectProblem handles POST /api/problems/select
func (h *TeamHandler) SelectProblem(w http.ResponseWriter, r *http.Request) {
	var req SelectProblemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	teamCode := middleware.GetTeamCode(r.Context())
	if err := h.allocSvc.Select(r.Context(), teamCode, req.ProblemID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"problemId": req.ProblemID}))
}
