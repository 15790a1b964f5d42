package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Envelope is the wire format in both directions: a type tag and a free-form
// payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Connection is one upgraded client. The write pump drains Send; a full
// buffer drops the message rather than blocking the game loop.
type Connection struct {
	ID   string
	Send chan []byte
}

// Hub tracks live connections by id and delivers outbound events. Roles are
// not tracked here; the game service decides who receives what.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]*Connection)}
}

func (h *Hub) add(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID] = c
}

func (h *Hub) remove(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.conns[c.ID]; ok && existing == c {
		delete(h.conns, c.ID)
		close(c.Send)
	}
}

// SendToConn implements service.Broadcaster. Unknown ids and full buffers are
// dropped silently; a client that cannot keep up catches up on the next state
// update.
func (h *Hub) SendToConn(connID string, event string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ws: marshal %s payload: %v", event, err)
		return
	}
	data, err := json.Marshal(Envelope{Type: event, Payload: body})
	if err != nil {
		log.Printf("ws: marshal %s envelope: %v", event, err)
		return
	}

	// The lock is held across the send so remove cannot close the channel
	// between the lookup and the send.
	h.mu.RLock()
	defer h.mu.RUnlock()
	conn, ok := h.conns[connID]
	if !ok {
		return
	}
	select {
	case conn.Send <- data:
	default:
	}
}
