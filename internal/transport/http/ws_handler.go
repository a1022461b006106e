package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/rathi22/quizzia/internal/app"
	"github.com/rathi22/quizzia/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler is the realtime gateway. Every inbound event is
// fire-and-forget: a missing room or player is logged and dropped,
// never answered with an error frame.
type WSHandler struct {
	service  *app.RoomService
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.RoomService, hub *Hub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type joinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type startGamePayload struct {
	RoomID   string `json:"roomId"`
	Category string `json:"category"`
}

type scorePayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

type gameStartedPayload struct {
	RoomID    string                    `json:"roomId"`
	Category  string                    `json:"category"`
	Players   []domain.Player           `json:"players"`
	Questions []domain.RenderedQuestion `json:"questions"`
}

// ServeWS upgrades the connection and pumps room events through the hub.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}
	go c.writePump()

	defer func() {
		h.hub.remove(c)
		c.closeSend()
		conn.Close()
	}()

	for {
		var inbound envelope
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		h.dispatch(r, c, inbound)
	}
}

func (h *WSHandler) dispatch(r *http.Request, c *client, inbound envelope) {
	switch inbound.Event {
	case "join_room":
		var payload joinRoomPayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			log.Printf("join_room: bad payload: %v", err)
			return
		}
		h.hub.join(payload.RoomID, c)
		room, ok := h.service.Snapshot(payload.RoomID)
		if !ok {
			log.Printf("join_room: room %s not found, dropping", payload.RoomID)
			return
		}
		h.hub.Broadcast(payload.RoomID, "room_update", room)

	case "start_game":
		var payload startGamePayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			log.Printf("start_game: bad payload: %v", err)
			return
		}
		room, err := h.service.StartGame(r.Context(), payload.RoomID, payload.Category)
		if err != nil {
			log.Printf("start_game: room %s: %v, dropping", payload.RoomID, err)
			return
		}
		h.hub.Broadcast(payload.RoomID, "game_started", gameStartedPayload{
			RoomID:    room.ID,
			Category:  room.Category,
			Players:   room.Players,
			Questions: room.Questions,
		})

	case "update_score", "finish_quiz":
		var payload scorePayload
		if err := json.Unmarshal(inbound.Data, &payload); err != nil {
			log.Printf("%s: bad payload: %v", inbound.Event, err)
			return
		}
		players, err := h.service.ReportScore(payload.RoomID, payload.Name, payload.Score)
		if err != nil {
			log.Printf("%s: room %s player %s: %v, dropping", inbound.Event, payload.RoomID, payload.Name, err)
			return
		}
		h.hub.Broadcast(payload.RoomID, "leaderboard_update", players)

	default:
		log.Printf("unsupported event %q, dropping", inbound.Event)
	}
}
