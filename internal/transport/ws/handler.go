package ws

import (
	"context"
	"net/http"
	"time"

	"teamportal/internal/model"
	"teamportal/internal/service"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS policy is enforced by the router
	},
}

// Authenticator resolves team sessions and admin tickets
type Authenticator interface {
	ResolveSession(ctx context.Context, token string) (string, error)
	ValidateTicket(ticket string) (model.AdminTier, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub         *Hub
	authSvc     Authenticator
	allocations *service.AllocationService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc Authenticator, allocations *service.AllocationService) *Handler {
	return &Handler{
		hub:         hub,
		authSvc:     authSvc,
		allocations: allocations,
	}
}

// TeamWS handles GET /api/ws?token=<session>
func (h *Handler) TeamWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	teamCode, err := h.authSvc.ResolveSession(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid session", http.StatusUnauthorized)
		return
	}

	problems, err := h.allocations.ListProblems(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	initial, err := Encode(model.EventProblemsUpdated, problems)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConnection(teamCode, false)
	conn.Send <- initial
	h.hub.Register(conn)

	// a revoke between the first check and Register disconnected nothing,
	// so the token is checked again now that the hub can reach this feed
	if _, err := h.authSvc.ResolveSession(r.Context(), token); err != nil {
		log.Debug().Str("team_code", teamCode).Msg("session revoked while opening feed")
		h.hub.Unregister(conn)
		wsConn.Close()
		return
	}

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// AdminWS handles GET /api/admin/ws?ticket=<jwt>
func (h *Handler) AdminWS(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		http.Error(w, "missing ticket", http.StatusUnauthorized)
		return
	}

	tier, err := h.authSvc.ValidateTicket(ticket)
	if err != nil {
		http.Error(w, "invalid ticket", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := NewConnection("", true)
	h.hub.Register(conn)
	log.Info().Str("tier", tier.String()).Msg("admin event feed opened")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// feeds are server-push only; reads just drive pong handling
		if _, _, err := wsConn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
