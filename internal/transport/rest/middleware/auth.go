package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"teamportal/internal/model"
	"teamportal/internal/service"

	"github.com/rs/zerolog/hlog"
)

type contextKey string

const (
	TeamCodeKey  contextKey = "teamCode"
	AdminTierKey contextKey = "adminTier"
)

// AuthMiddleware provides session and admin authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireTeam resolves the bearer session token to a team code
func (m *AuthMiddleware) RequireTeam(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "NO_TOKEN", "no token")
			return
		}

		teamCode, err := m.authSvc.ResolveSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, service.ErrorCode(err), err.Error())
				return
			}
			hlog.FromRequest(r).Error().Err(err).Msg("session resolution failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), TeamCodeKey, teamCode)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin checks Basic credentials and demands at least tier min
func (m *AuthMiddleware) RequireAdmin(min model.AdminTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeError(w, http.StatusUnauthorized, "ADMIN_AUTH_REQUIRED", "admin credentials required")
				return
			}

			tier := m.authSvc.AdminTier(username, password)
			if tier == model.TierNone {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				writeError(w, http.StatusUnauthorized, "INVALID_ADMIN_CREDENTIALS", "invalid admin credentials")
				return
			}
			if tier < min {
				writeError(w, http.StatusForbidden, "INSUFFICIENT_PRIVILEGE", "elevated admin required")
				return
			}

			ctx := context.WithValue(r.Context(), AdminTierKey, tier)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTeamCode extracts the authenticated team code from context
func GetTeamCode(ctx context.Context) string {
	if v, ok := ctx.Value(TeamCodeKey).(string); ok {
		return v
	}
	return ""
}

// GetAdminTier extracts the authenticated admin tier from context
func GetAdminTier(ctx context.Context) model.AdminTier {
	if v, ok := ctx.Value(AdminTierKey).(model.AdminTier); ok {
		return v
	}
	return model.TierNone
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code})
}
