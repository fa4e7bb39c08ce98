package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"teamportal/internal/service"

	"github.com/rs/zerolog/hlog"
)

const maxBodyBytes = 1 << 20

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.ErrorCode(err)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, code, err.Error())
	case errors.Is(err, service.ErrPreconditionFailed):
		writeError(w, http.StatusForbidden, code, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, code, err.Error())
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, code, err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return false
	}
	return true
}

// TeamCodeRequest is the body of every single-team admin action
type TeamCodeRequest struct {
	TeamCode string `json:"teamCode"`
}

func decodeTeamCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TeamCodeRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if req.TeamCode == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "teamCode is required")
		return "", false
	}
	return req.TeamCode, true
}

func success(extra map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"success": true}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
