package ws

import (
	"encoding/json"
	"log"
	"sync"

	"molehunt/internal/game"
)

// Hub manages the session's WebSocket connections. A connection is anonymous
// (spectator) until it joins or restores; after that it is keyed by player
// name, one active connection per name.
type Hub struct {
	engine *game.Engine

	mu    sync.RWMutex
	named map[string]*Connection // player name -> active connection
	anon  map[*Connection]bool   // connected but not yet joined

	register   chan *Connection
	unregister chan *Connection
}

// Connection represents one WebSocket client.
type Connection struct {
	Name   string // empty until joined/restored
	IsHost bool
	Send   chan []byte
	Hub    *Hub

	closeOnce sync.Once
}

// closeSend closes the outbound channel exactly once. Both the replacement
// path and the unregister path may reach a connection's teardown.
func (c *Connection) closeSend() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// NewHub creates the hub and starts its coordination loop.
func NewHub(engine *game.Engine) *Hub {
	h := &Hub{
		engine:     engine,
		named:      make(map[string]*Connection),
		anon:       make(map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if conn.Name != "" {
				h.bindLocked(conn)
			} else {
				h.anon[conn] = true
			}
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			name := ""
			if conn.Name != "" {
				if existing, ok := h.named[conn.Name]; ok && existing == conn {
					delete(h.named, conn.Name)
					name = conn.Name
				}
			} else {
				delete(h.anon, conn)
			}
			conn.closeSend()
			h.mu.Unlock()

			// Only the connection that still owned the name starts the
			// disconnect grace period; a superseded connection closing must
			// not disturb its replacement.
			if name != "" {
				h.engine.ConnectionLost(name)
				h.BroadcastState()
			}
		}
	}
}

// bindLocked installs conn as the holder of its name. A superseded connection
// is cleared from the registry before being closed so it can never be
// mistaken for the name's holder during teardown.
func (h *Hub) bindLocked(conn *Connection) {
	if old, ok := h.named[conn.Name]; ok && old != conn {
		delete(h.named, conn.Name)
		h.closeConn(old, "session replaced by a new connection")
	}
	h.named[conn.Name] = conn
	log.Printf("Connection bound to player %s (host=%v)", conn.Name, conn.IsHost)
}

func (h *Hub) closeConn(conn *Connection, reason string) {
	data, _ := json.Marshal(&Message{
		Type:    MsgKicked,
		Payload: mustRaw(map[string]string{"reason": reason}),
	})
	select {
	case conn.Send <- data:
	default:
	}
	conn.closeSend()
}

// Register adds a connection.
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection.
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Bind upgrades an anonymous connection to a named one after a successful
// join or restore, replacing any previous holder of the name.
func (h *Hub) Bind(conn *Connection) {
	h.mu.Lock()
	delete(h.anon, conn)
	h.bindLocked(conn)
	h.mu.Unlock()
}

// ConnectionCount returns the number of open connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.named) + len(h.anon)
}

// BroadcastState pushes a freshly projected snapshot to every connection,
// personalized per viewer. Delivery is fire-and-forget per recipient: a slow
// client gets its frame dropped, never blocking the others. Implements
// game.Broadcaster.
func (h *Hub) BroadcastState() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for name, conn := range h.named {
		h.sendSnapshot(conn, name)
	}
	for conn := range h.anon {
		h.sendSnapshot(conn, game.PublicViewer)
	}
}

// SendState pushes a snapshot to a single connection.
func (h *Hub) SendState(conn *Connection) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.sendSnapshot(conn, conn.Name)
}

func (h *Hub) sendSnapshot(conn *Connection, viewer string) {
	snapshot := h.engine.Snapshot(viewer)
	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("Failed to marshal snapshot for %q: %v", viewer, err)
		return
	}
	data, _ := json.Marshal(&Message{Type: MsgState, Payload: payload})
	select {
	case conn.Send <- data:
	default:
		log.Printf("Dropped state frame for %q: send buffer full", viewer)
	}
}

func mustRaw(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
