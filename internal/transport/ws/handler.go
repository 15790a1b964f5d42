package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"virusbreach/internal/model"
	"virusbreach/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // clients connect from arbitrary origins (QR code joins)
	},
}

// Handler upgrades HTTP to WebSocket and routes inbound envelopes to the game
// service. Every connection gets a fresh id at upgrade; whether it is a host
// or a player emerges from the messages it sends.
type Handler struct {
	hub  *Hub
	game *service.GameService
}

func NewHandler(hub *Hub, game *service.GameService) *Handler {
	return &Handler{hub: hub, game: game}
}

// ServeWS handles GET /ws.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	conn := &Connection{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 256),
	}
	h.hub.add(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.remove(conn)
		h.game.HandleDisconnect(conn.ID)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read: %v", err)
			}
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.sendError(conn.ID, "malformed message")
			continue
		}
		if err := h.dispatch(conn.ID, env); err != nil {
			h.sendError(conn.ID, err.Error())
		}
	}
}

// dispatch routes one inbound envelope. Returned errors go back to the sender
// as a game:error event; they never tear down the connection.
func (h *Handler) dispatch(connID string, env Envelope) error {
	ctx := context.Background()

	switch env.Type {
	case "host:create-game":
		var p struct {
			Config model.RoomConfig `json:"config"`
		}
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				return err
			}
		}
		_, err := h.game.CreateRoom(connID, p.Config)
		return err

	case "host:request-state":
		var p struct {
			RoomCode string `json:"roomCode"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.game.RequestState(connID, p.RoomCode)

	case "host:assign-team":
		var p struct {
			PlayerID string `json:"playerId"`
			TeamID   string `json:"teamId"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.game.AssignTeam(connID, p.PlayerID, p.TeamID)

	case "host:start-game":
		return h.game.StartGame(connID)

	case "host:next-scenario":
		return h.game.NextScenario(ctx, connID)

	case "host:process-answers":
		return h.game.ProcessAnswers(ctx, connID)

	case "host:reveal-winner":
		return h.game.RevealWinner(connID)

	case "host:end-game":
		return h.game.EndGame(ctx, connID)

	case "player:join":
		var p struct {
			RoomCode   string `json:"roomCode"`
			PlayerName string `json:"playerName"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.game.JoinPlayer(connID, p.RoomCode, p.PlayerName)

	case "player:rejoin":
		var p struct {
			RoomCode   string `json:"roomCode"`
			PlayerName string `json:"playerName"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.game.RejoinPlayer(connID, p.RoomCode, p.PlayerName)

	case "player:submit-answer":
		var p struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		return h.game.SubmitAnswer(connID, p.Answer)

	case "player:typing":
		var p struct {
			IsTyping bool `json:"isTyping"`
		}
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return err
		}
		h.game.HandleTyping(connID, p.IsTyping)
		return nil
	}

	h.sendError(connID, "unknown message type: "+env.Type)
	return nil
}

func (h *Handler) sendError(connID, message string) {
	h.hub.SendToConn(connID, service.EventError, map[string]string{"message": message})
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
			if err := wsConn.WriteMessage(websocket.TextMessage, message); err != nil {
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
