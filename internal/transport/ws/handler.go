package ws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"molehunt/internal/auth"
	"molehunt/internal/game"
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
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections.
type Handler struct {
	hub      *Hub
	engine   *game.Engine
	authSvc  *auth.Service
	maxConns int
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, engine *game.Engine, authSvc *auth.Service, maxConns int) *Handler {
	return &Handler{
		hub:      hub,
		engine:   engine,
		authSvc:  authSvc,
		maxConns: maxConns,
	}
}

// GameWS handles GET /v1/ws. A connection starts as a spectator; joining or
// restoring binds it to a player. Passing ?token= restores a prior session
// before the upgrade, so a rejected token costs no socket.
func (h *Handler) GameWS(w http.ResponseWriter, r *http.Request) {
	if h.hub.ConnectionCount() >= h.maxConns {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	name := ""
	if token := r.URL.Query().Get("token"); token != "" {
		player, err := h.engine.Restore(token)
		switch {
		case errors.Is(err, game.ErrSessionExpired):
			http.Error(w, "session expired", http.StatusGone)
			return
		case err != nil:
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		name = player.Name
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		Name: name,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}
	h.hub.Register(conn)
	h.hub.SendState(conn)
	if name != "" {
		h.hub.BroadcastState()
	}

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
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(conn, game.ErrInvalidMessage)
			continue
		}

		broadcast, err := h.route(conn, &msg)
		if err != nil {
			h.sendError(conn, err)
			continue
		}
		if broadcast {
			h.hub.BroadcastState()
		}
	}
}

// route dispatches one inbound envelope. The returned bool asks for a state
// broadcast; errors go back to the requesting connection only.
func (h *Handler) route(conn *Connection, msg *Message) (bool, error) {
	switch msg.Type {
	case MsgJoin:
		return h.handleJoin(conn, msg.Payload)

	case MsgHeartbeat:
		if conn.Name == "" {
			return false, game.ErrNotInGame
		}
		restored, err := h.engine.Heartbeat(conn.Name)
		return restored, err

	case MsgAdmin:
		return h.handleAdmin(conn, msg.Payload)

	case MsgConfigure:
		var p configurePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return false, game.ErrInvalidMessage
		}
		if conn.Name == "" || !h.engine.IsHost(conn.Name) {
			return false, game.ErrNotHost
		}
		return true, h.engine.Configure(p.Field, p.Value)

	case MsgCallVote:
		if conn.Name == "" {
			return false, game.ErrNotInGame
		}
		return true, h.engine.CallVote(conn.Name)

	case MsgVote:
		var p votePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return false, game.ErrInvalidMessage
		}
		if conn.Name == "" {
			return false, game.ErrNotInGame
		}
		return true, h.engine.RecordVote(conn.Name, p.Target, p.Confidence)

	case MsgSpyGuess:
		var p spyGuessPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return false, game.ErrInvalidMessage
		}
		if conn.Name == "" {
			return false, game.ErrNotInGame
		}
		return true, h.engine.RecordSpyGuess(conn.Name, p.LocationID)

	default:
		return false, game.ErrInvalidMessage
	}
}

func (h *Handler) handleJoin(conn *Connection, payload json.RawMessage) (bool, error) {
	var p joinPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, game.ErrInvalidMessage
	}

	// Claiming the host seat requires a credential-backed token from the
	// login endpoint; the in-game host flag alone is never trusted.
	if p.IsHost {
		if _, err := h.authSvc.ValidateHostToken(p.HostToken); err != nil {
			return false, game.ErrNotHost
		}
	}

	player, replaced, err := h.engine.Join(p.Name, p.IsHost)
	if err != nil {
		return false, err
	}
	if replaced {
		log.Printf("Join replaced an existing session for %s", p.Name)
	}

	conn.Name = player.Name
	conn.IsHost = player.IsHost
	h.hub.Bind(conn)

	reply, _ := json.Marshal(&Message{
		Type: MsgJoined,
		Payload: mustRaw(joinedPayload{
			Name:   player.Name,
			Token:  player.Token,
			IsHost: player.IsHost,
		}),
	})
	select {
	case conn.Send <- reply:
	default:
	}
	return true, nil
}

func (h *Handler) handleAdmin(conn *Connection, payload json.RawMessage) (bool, error) {
	var p adminPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return false, game.ErrInvalidMessage
	}
	if conn.Name == "" || !h.engine.IsHost(conn.Name) {
		return false, game.ErrNotHost
	}

	switch p.Action {
	case "start_game":
		return true, h.engine.StartGame()
	case "remove_player":
		return true, h.engine.RemovePlayer(p.Target, conn.Name)
	case "advance_turn":
		return true, h.engine.AdvanceTurn(conn.Name)
	case "pause":
		return true, h.engine.Pause()
	case "resume":
		return true, h.engine.Resume()
	case "new_game":
		return true, h.engine.NewGame()
	default:
		return false, game.ErrInvalidMessage
	}
}

func (h *Handler) sendError(conn *Connection, err error) {
	data, _ := json.Marshal(&Message{
		Type: MsgError,
		Payload: mustRaw(errorPayload{
			Code:    errorCode(err),
			Message: err.Error(),
		}),
	})
	select {
	case conn.Send <- data:
	default:
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
