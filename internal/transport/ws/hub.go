package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub tracks live admin and team connections. All map access happens on
// the run goroutine.
type Hub struct {
	adminConns map[*Connection]bool
	teamConns  map[string]map[*Connection]bool // teamCode -> conns

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	done       chan struct{}
}

// Connection represents a WebSocket connection
type Connection struct {
	TeamCode string // empty for admin connections
	IsAdmin  bool
	Send     chan []byte
}

// NewConnection creates a connection with a buffered send queue
func NewConnection(teamCode string, isAdmin bool) *Connection {
	return &Connection{
		TeamCode: teamCode,
		IsAdmin:  isAdmin,
		Send:     make(chan []byte, 256),
	}
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	ToAdmins bool
	Data     []byte
}

// NewHub creates a new WebSocket hub and starts its loop
func NewHub() *Hub {
	h := &Hub{
		adminConns: make(map[*Connection]bool),
		teamConns:  make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		disconnect: make(chan string, 64),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			if conn.IsAdmin {
				h.adminConns[conn] = true
				log.Debug().Msg("admin connected to event feed")
			} else {
				if h.teamConns[conn.TeamCode] == nil {
					h.teamConns[conn.TeamCode] = make(map[*Connection]bool)
				}
				h.teamConns[conn.TeamCode][conn] = true
				log.Debug().Str("team_code", conn.TeamCode).Msg("team connected to feed")
			}

		case conn := <-h.unregister:
			h.remove(conn)

		case code := <-h.disconnect:
			for conn := range h.teamConns[code] {
				h.remove(conn)
			}

		case msg := <-h.broadcast:
			if msg.ToAdmins {
				for conn := range h.adminConns {
					h.send(conn, msg.Data)
				}
				continue
			}
			for _, conns := range h.teamConns {
				for conn := range conns {
					h.send(conn, msg.Data)
				}
			}

		case <-h.done:
			for conn := range h.adminConns {
				h.remove(conn)
			}
			for _, conns := range h.teamConns {
				for conn := range conns {
					h.remove(conn)
				}
			}
			return
		}
	}
}

func (h *Hub) remove(conn *Connection) {
	if conn.IsAdmin {
		if h.adminConns[conn] {
			delete(h.adminConns, conn)
			close(conn.Send)
		}
		return
	}
	conns, ok := h.teamConns[conn.TeamCode]
	if !ok || !conns[conn] {
		return
	}
	delete(conns, conn)
	close(conn.Send)
	if len(conns) == 0 {
		delete(h.teamConns, conn.TeamCode)
	}
	log.Debug().Str("team_code", conn.TeamCode).Msg("team disconnected from feed")
}

func (h *Hub) send(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Stop closes every connection and ends the hub loop
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastToAdmins sends an event to every admin feed (implements service.Broadcaster)
func (h *Hub) BroadcastToAdmins(msgType string, payload interface{}) {
	h.enqueue(true, msgType, payload)
}

// BroadcastToTeams sends an event to every team feed (implements service.Broadcaster)
func (h *Hub) BroadcastToTeams(msgType string, payload interface{}) {
	h.enqueue(false, msgType, payload)
}

// DisconnectTeam closes every feed of a team whose session was revoked
// (implements service.Broadcaster)
func (h *Hub) DisconnectTeam(teamCode string) {
	select {
	case h.disconnect <- teamCode:
	default:
		log.Warn().Str("team_code", teamCode).Msg("hub disconnect queue full")
	}
}

func (h *Hub) enqueue(toAdmins bool, msgType string, payload interface{}) {
	data, err := Encode(msgType, payload)
	if err != nil {
		log.Warn().Err(err).Str("type", msgType).Msg("failed to encode ws message")
		return
	}
	select {
	case h.broadcast <- &BroadcastMessage{ToAdmins: toAdmins, Data: data}:
	default:
		log.Warn().Str("type", msgType).Msg("hub broadcast queue full, dropping")
	}
}

// Encode builds an envelope
func Encode(msgType string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Type: msgType, Payload: raw})
}
