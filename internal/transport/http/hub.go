package http

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// envelope is the wire frame for every realtime event, both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type client struct {
	conn      *websocket.Conn
	send      chan []byte
	roomID    string
	closeOnce sync.Once
}

// closeSend is safe to call from both the reader teardown and the
// hub's slow-client eviction path.
func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub maintains one broadcast group per room code. Delivery is
// fire-and-forget: there is no buffering or replay for clients that
// connect after an event was published.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

// join subscribes a client to a room's broadcast group, moving it out
// of any previous group first.
func (h *Hub) join(roomID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(c)
	group, ok := h.rooms[roomID]
	if !ok {
		group = make(map[*client]struct{})
		h.rooms[roomID] = group
	}
	group[c] = struct{}{}
	c.roomID = roomID
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if c.roomID == "" {
		return
	}
	if group, ok := h.rooms[c.roomID]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	c.roomID = ""
}

// Broadcast delivers an event to every member of a room's group,
// including the publisher. Slow clients are dropped from the group
// rather than allowed to block the fan-out.
func (h *Hub) Broadcast(roomID, event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("broadcast %s to %s: marshal: %v", event, roomID, err)
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		log.Printf("broadcast %s to %s: marshal frame: %v", event, roomID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	group, ok := h.rooms[roomID]
	if !ok {
		return
	}
	for c := range group {
		select {
		case c.send <- frame:
		default:
			delete(group, c)
			c.closeSend()
		}
	}
}

func (c *client) writePump() {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
