package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"

	"virusbreach/internal/model"
	"virusbreach/internal/registry"
)

// RoomHandler serves the read-only room endpoints used by join pages. All
// gameplay goes over the WebSocket.
type RoomHandler struct {
	registry  *registry.Registry
	publicURL string
}

func NewRoomHandler(reg *registry.Registry, publicURL string) *RoomHandler {
	return &RoomHandler{registry: reg, publicURL: publicURL}
}

// Get handles GET /v1/rooms/{code}. Join pages use it to validate a code
// before opening the WebSocket.
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, ok := h.registry.LookupByCode(code)
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}

	room.Lock()
	resp := map[string]interface{}{
		"roomCode": room.Code,
		"phase":    room.Phase,
		"joinable": room.Phase == model.PhaseLobby,
	}
	room.Unlock()
	respondJSON(w, http.StatusOK, resp)
}

// QR handles GET /v1/rooms/{code}/qr, returning a PNG that encodes the join
// URL for the room.
func (h *RoomHandler) QR(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	room, ok := h.registry.LookupByCode(code)
	if !ok {
		respondError(w, http.StatusNotFound, "room not found")
		return
	}

	room.Lock()
	joinURL := fmt.Sprintf("%s/join?code=%s", h.publicURL, room.Code)
	room.Unlock()

	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		log.Printf("qr encode for room %s: %v", code, err)
		respondError(w, http.StatusInternalServerError, "could not generate QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
