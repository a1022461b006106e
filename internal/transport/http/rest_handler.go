package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/rathi22/quizzia/internal/app"
	"github.com/rathi22/quizzia/internal/domain"
	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"
)

// RESTHandler serves the request/response half of the protocol.
type RESTHandler struct {
	service *app.RoomService
}

func NewRESTHandler(service *app.RoomService) *RESTHandler {
	return &RESTHandler{service: service}
}

// Register mounts all REST routes on the router.
func (h *RESTHandler) Register(router *httprouter.Router) {
	router.POST("/api/room", h.createRoom)
	router.POST("/api/room/:roomId/join", h.joinRoom)
	router.GET("/api/room/:roomId/qr", h.roomQR)
	router.GET("/api/quiz", h.quiz)
	router.GET("/api/categories", h.categories)
	router.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Write([]byte("ok"))
	})
}

type nameRequest struct {
	Name string `json:"name"`
}

type roomResponse struct {
	RoomID string `json:"roomId"`
}

func (h *RESTHandler) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	roomID, err := h.service.CreateRoom(req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{RoomID: roomID})
}

func (h *RESTHandler) joinRoom(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.service.JoinRoom(p.ByName("roomId"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, roomResponse{RoomID: room.ID})
}

// roomQR renders a join QR code for sharing a room out-of-band.
func (h *RESTHandler) roomQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	roomID := p.ByName("roomId")
	if _, ok := h.service.Snapshot(roomID); !ok {
		writeServiceError(w, domain.ErrRoomNotFound)
		return
	}

	joinURL := fmt.Sprintf("http://%s/?room=%s", r.Host, roomID)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not render qr code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

type quizResponse struct {
	Questions []domain.RenderedQuestion `json:"questions"`
}

func (h *RESTHandler) quiz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	questions, err := h.service.Quiz(r.Context(), category)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quizResponse{Questions: questions})
}

func (h *RESTHandler) categories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	names, err := h.service.Categories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": names})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, domain.ErrCategoryNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, domain.ErrDataLoad.Error())
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
