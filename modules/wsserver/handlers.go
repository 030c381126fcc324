package wsserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/example/secure-chat-relay/modules/broadcast"
	"github.com/example/secure-chat-relay/modules/relay"
)

// Rate limiting constants
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// WebSocketMessage represents a message sent over WebSocket.
type WebSocketMessage struct {
	Type    string          `json:"type"` // "join", "send"
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// JoinPayload is the payload for joining a room.
type JoinPayload struct {
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

// SendPayload is the payload for relaying an encrypted message. Body is
// ciphertext produced by the sending endpoint; the relay forwards it
// verbatim.
type SendPayload struct {
	Body   string `json:"body"`
	RoomID string `json:"room_id"`
	Time   string `json:"time,omitempty"`
}

// rateLimiter implements a simple token bucket rate limiter.
type rateLimiter struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// Handlers contains the WebSocket connection handler.
type Handlers struct {
	relayModule  *relay.Module
	hub          *broadcast.Hub
	rateLimiters sync.Map // connectionID -> *rateLimiter
	logger       *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(relayModule *relay.Module, hub *broadcast.Hub) *Handlers {
	return &Handlers{
		relayModule: relayModule,
		hub:         hub,
		logger:      slog.Default(),
	}
}

// HandleWebSocket handles a WebSocket connection for its whole lifetime.
// The connection identifier is assigned here, on connect, and is never
// reused.
func (h *Handlers) HandleWebSocket(c *websocket.Conn) {
	connectionID := uuid.New().String()
	client := &broadcast.Client{ID: connectionID, Conn: c}
	h.hub.Register(client)
	h.rateLimiters.Store(connectionID, newRateLimiter(burstSize, messagesPerSecond))

	defer func() {
		h.relayModule.Disconnect(connectionID)
		h.hub.Unregister(client)
		h.rateLimiters.Delete(connectionID)
		c.Close()
	}()

	h.logger.Info("WebSocket connected", "connectionID", connectionID)

	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket error", "connectionID", connectionID, "error", err)
			}
			break
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(msgBytes, &msg); err != nil {
			h.sendError(c, "Invalid message format")
			continue
		}

		h.handleMessage(c, connectionID, msg)
	}

	h.logger.Info("WebSocket disconnected", "connectionID", connectionID)
}

// handleMessage processes incoming WebSocket messages.
func (h *Handlers) handleMessage(c *websocket.Conn, connectionID string, msg WebSocketMessage) {
	switch msg.Type {
	case "join":
		h.handleJoin(c, connectionID, msg.Payload)
	case "send":
		h.handleSend(c, connectionID, msg.Payload)
	default:
		h.sendError(c, "Unknown message type: "+msg.Type)
	}
}

// handleJoin processes join requests. A rejected join leaves the connection
// open and unjoined so the client can retry with a different username.
func (h *Handlers) handleJoin(c *websocket.Conn, connectionID string, payload json.RawMessage) {
	var req JoinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(c, "Invalid join payload")
		return
	}

	if err := h.relayModule.Join(connectionID, req.Username, req.RoomID); err != nil {
		if errors.Is(err, relay.ErrDuplicateUsername) {
			h.sendJoinRejected(c, "DuplicateUsername")
			return
		}
		h.sendError(c, err.Error())
		return
	}
	// No explicit ack: the meta broadcast that follows a successful join
	// reaches the joiner too.
}

// handleSend processes message relays. Empty bodies are dropped silently,
// before the session coordinator is involved.
func (h *Handlers) handleSend(c *websocket.Conn, connectionID string, payload json.RawMessage) {
	if limiterVal, ok := h.rateLimiters.Load(connectionID); ok {
		limiter := limiterVal.(*rateLimiter)
		if !limiter.allow() {
			h.sendError(c, "Rate limit exceeded, please slow down")
			return
		}
	}

	var req SendPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		h.sendError(c, "Invalid send payload")
		return
	}

	if req.Body == "" {
		return
	}

	if err := h.relayModule.Relay(connectionID, req.RoomID, req.Body, req.Time); err != nil {
		h.sendError(c, err.Error())
	}
}

// sendJoinRejected reports a failed join to the originating connection only.
func (h *Handlers) sendJoinRejected(c *websocket.Conn, code string) {
	msg := WebSocketMessage{
		Type:  "join_rejected",
		Error: code,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal join_rejected message", "error", err)
		return
	}

	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Error("Failed to send join_rejected message", "error", err)
	}
}

// sendError sends an error message to a WebSocket connection.
func (h *Handlers) sendError(c *websocket.Conn, errMsg string) {
	msg := WebSocketMessage{
		Type:  "error",
		Error: errMsg,
	}

	msgBytes, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal error message", "error", err)
		return
	}

	if err := c.WriteMessage(websocket.TextMessage, msgBytes); err != nil {
		h.logger.Error("Failed to send error message", "error", err)
	}
}
