package broadcast

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/example/secure-chat-relay/modules/relay"
)

// Conn is the write side of a client connection. *websocket.Conn satisfies
// it; tests substitute capturing fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	ID   string
	Conn Conn
}

// Hub is the transport channel: it tracks live connections and the room
// broadcast groups, and delivers payloads to one connection, to a room, or
// to a room excluding a sender. Room membership here mirrors the relay
// registry for delivery only; the registry stays the single source of truth
// for identity.
type Hub struct {
	clients    map[string]*Client         // connectionID -> Client
	rooms      map[string]map[string]bool // roomID -> set of connectionIDs
	memberRoom map[string]string          // connectionID -> roomID
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// Compile-time check: the hub is the relay coordinator's room subscriber.
var _ relay.RoomSubscriber = (*Hub)(nil)

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		memberRoom: make(map[string]string),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		h.removeFromRoomLocked(client.ID)
		log.Printf("[hub] Client %s unregistered", client.ID)
	}
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
	h.memberRoom = make(map[string]string)
}

// JoinRoom subscribes a connection to a room's broadcast group.
func (h *Hub) JoinRoom(connectionID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[connectionID]; !ok {
		return
	}

	h.removeFromRoomLocked(connectionID)
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]bool)
	}
	h.rooms[roomID][connectionID] = true
	h.memberRoom[connectionID] = roomID
	log.Printf("[hub] Client %s joined room %s", connectionID, roomID)
}

// LeaveRoom removes a connection from its broadcast group.
func (h *Hub) LeaveRoom(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeFromRoomLocked(connectionID)
}

func (h *Hub) removeFromRoomLocked(connectionID string) {
	roomID, ok := h.memberRoom[connectionID]
	if !ok {
		return
	}
	delete(h.memberRoom, connectionID)
	if h.rooms[roomID] != nil {
		delete(h.rooms[roomID], connectionID)
		if len(h.rooms[roomID]) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// SendTo delivers a payload to a single connection.
func (h *Hub) SendTo(connectionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, ok := h.clients[connectionID]; ok {
		h.sendToClient(client, data)
	}
}

// BroadcastRoom delivers a payload to every member of a room. A non-empty
// exclude id skips that connection (sender exclusion); payloads never cross
// room boundaries.
func (h *Hub) BroadcastRoom(roomID, exclude string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for connectionID := range h.rooms[roomID] {
		if connectionID == exclude {
			continue
		}
		if client, ok := h.clients[connectionID]; ok {
			h.sendToClient(client, data)
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of subscribed connections in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
