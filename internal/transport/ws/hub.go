package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per session and implements the game
// notifier: every event broadcast goes to all players attached to the
// session. Delivery is best-effort; a slow client's buffer overflowing
// drops the message rather than blocking the game.
type Hub struct {
	// sessionID -> playerID -> conn
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *broadcastMessage
	disconnect chan string

	// onDisconnect is invoked when a player's connection drops, so the
	// game can treat a vanished client as a leave.
	onDisconnect func(sessionID, playerID string)
}

// Connection represents one player's WebSocket connection
type Connection struct {
	SessionID string
	PlayerID  string
	Send      chan []byte
	Hub       *Hub
}

type broadcastMessage struct {
	SessionID string
	Message   *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *broadcastMessage, 256),
		disconnect: make(chan string),
	}
	go h.run()
	return h
}

// SetDisconnectHandler installs the drop callback. Must be called before
// any connection registers.
func (h *Hub) SetDisconnectHandler(fn func(sessionID, playerID string)) {
	h.onDisconnect = fn
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.SessionID] == nil {
				h.conns[conn.SessionID] = make(map[string]*Connection)
			}
			h.conns[conn.SessionID][conn.PlayerID] = conn
			h.mu.Unlock()
			log.Printf("Player %s connected to session %s", conn.PlayerID, conn.SessionID)

		case conn := <-h.unregister:
			h.mu.Lock()
			dropped := false
			if players, ok := h.conns[conn.SessionID]; ok {
				if existing, ok := players[conn.PlayerID]; ok && existing == conn {
					delete(players, conn.PlayerID)
					close(conn.Send)
					dropped = true
					if len(players) == 0 {
						delete(h.conns, conn.SessionID)
					}
				}
			}
			h.mu.Unlock()
			if dropped {
				log.Printf("Player %s disconnected from session %s", conn.PlayerID, conn.SessionID)
				if h.onDisconnect != nil {
					go h.onDisconnect(conn.SessionID, conn.PlayerID)
				}
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for _, conn := range h.conns[msg.SessionID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()

		case sessionID := <-h.disconnect:
			h.mu.Lock()
			for _, conn := range h.conns[sessionID] {
				close(conn.Send)
			}
			delete(h.conns, sessionID)
			h.mu.Unlock()
			log.Printf("Session %s connections dropped", sessionID)
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// sessionClosedEvent tears down the session's connections after delivery.
const sessionClosedEvent = "session_closed"

// Broadcast sends one event to every player attached to the session
// (implements the store notifier).
func (h *Hub) Broadcast(sessionID, event string, payload any) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &broadcastMessage{
		SessionID: sessionID,
		Message: &Message{
			Type:    event,
			Payload: data,
		},
	}
	if event == sessionClosedEvent {
		h.DisconnectSession(sessionID)
	}
}

// DisconnectSession drops every connection attached to a session. Called
// after a session_closed broadcast.
func (h *Hub) DisconnectSession(sessionID string) {
	h.disconnect <- sessionID
}
