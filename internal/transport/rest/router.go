package rest

import (
	"net/http"
	"time"

	"teamportal/internal/model"
	"teamportal/internal/service"
	"teamportal/internal/transport/rest/handler"
	"teamportal/internal/transport/rest/middleware"
	"teamportal/internal/transport/ws"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	SessionService    *service.SessionService
	TeamService       *service.TeamService
	AllocationService *service.AllocationService
	WSHub             *ws.Hub
	CORSOrigins       []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	teamHandler := handler.NewTeamHandler(c.TeamService, c.AllocationService)
	adminHandler := handler.NewAdminHandler(c.TeamService, c.AllocationService, c.AuthService, c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.AllocationService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	// WebSocket routes (credentials in query param)
	api.HandleFunc("/ws", wsHandler.TeamWS).Methods("GET")
	api.HandleFunc("/admin/ws", wsHandler.AdminWS).Methods("GET")

	// Team routes (require session)
	teamRoutes := api.NewRoute().Subrouter()
	teamRoutes.Use(authMW.RequireTeam)

	teamRoutes.HandleFunc("/team/me", teamHandler.Me).Methods("GET")
	teamRoutes.HandleFunc("/spin", teamHandler.Spin).Methods("POST")
	teamRoutes.HandleFunc("/problems", teamHandler.Problems).Methods("GET")
	teamRoutes.HandleFunc("/problems/select", teamHandler.SelectProblem).Methods("POST")

	admin := api.PathPrefix("/admin").Subrouter()

	// Standard admin routes
	adminRoutes := admin.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin(model.TierAdmin))

	adminRoutes.HandleFunc("/team/add", adminHandler.AddTeam).Methods("POST")
	adminRoutes.HandleFunc("/team/toggle", adminHandler.ToggleTeam).Methods("POST")
	adminRoutes.HandleFunc("/team/active", adminHandler.SetActive).Methods("POST")
	adminRoutes.HandleFunc("/login-lock", adminHandler.LoginLock).Methods("POST")
	adminRoutes.HandleFunc("/teams", adminHandler.ListTeams).Methods("GET")
	adminRoutes.HandleFunc("/problems", adminHandler.ListProblems).Methods("GET")
	adminRoutes.HandleFunc("/config", adminHandler.Settings).Methods("GET")
	adminRoutes.HandleFunc("/logins", adminHandler.Logins).Methods("GET")
	adminRoutes.HandleFunc("/ws-ticket", adminHandler.Ticket).Methods("POST")

	// Elevated admin routes
	superRoutes := admin.NewRoute().Subrouter()
	superRoutes.Use(authMW.RequireAdmin(model.TierSuper))

	superRoutes.HandleFunc("/team/reset-ps", adminHandler.ResetProblem).Methods("POST")
	superRoutes.HandleFunc("/team/reset-spin", adminHandler.ResetSpin).Methods("POST")
	superRoutes.HandleFunc("/team/delete", adminHandler.DeleteTeam).Methods("POST")
	superRoutes.HandleFunc("/team/reset", adminHandler.FullReset).Methods("POST")
	superRoutes.HandleFunc("/team/revoke", adminHandler.RevokeSession).Methods("POST")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: c.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	var h http.Handler = corsHandler.Handler(r)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.NewHandler(log.Logger)(h)
	return h
}
