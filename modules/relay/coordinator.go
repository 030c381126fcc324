package relay

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/secure-chat-relay/events"
)

// EventSink carries room events toward connected members. The production
// sink publishes on the application event bus; tests substitute a capture.
type EventSink interface {
	Emit(event events.RoomEvent) error
}

// RoomSubscriber maintains the transport-level broadcast groups so that a
// joined connection receives the room's traffic. Implemented by the
// broadcast hub.
type RoomSubscriber interface {
	JoinRoom(connectionID, roomID string)
	LeaveRoom(connectionID string)
}

// Coordinator is the per-connection state machine handling join, send and
// disconnect. Connection state is realized through registry presence:
// a connection is Joined exactly while it holds a membership record.
type Coordinator struct {
	registry   *Registry
	secrets    *SecretManager
	sink       EventSink
	subscriber RoomSubscriber
	newUID     func() string

	mu  sync.Mutex
	seq map[string]uint64 // roomID -> last event sequence
}

// NewCoordinator creates a coordinator over the given registry and secret
// manager. newUID supplies message identifiers.
func NewCoordinator(registry *Registry, secrets *SecretManager, sink EventSink, subscriber RoomSubscriber, newUID func() string) *Coordinator {
	return &Coordinator{
		registry:   registry,
		secrets:    secrets,
		sink:       sink,
		subscriber: subscriber,
		newUID:     newUID,
		seq:        make(map[string]uint64),
	}
}

// Join admits a connection into a room. On success the connection is
// subscribed to the room's broadcast group, the whole room (including the
// joiner) receives a meta event with the updated occupancy and the room
// secret, and the prior members receive a system announcement. On failure
// nothing is mutated and the error is reported to the caller; the
// connection stays unjoined and may retry.
func (c *Coordinator) Join(connectionID, username, roomID string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateRoomID(roomID); err != nil {
		return err
	}

	if _, err := c.registry.Add(connectionID, username, roomID); err != nil {
		return err
	}

	secret, err := c.secrets.Secret(roomID)
	if err != nil {
		// Roll the membership back so the failed join leaves no trace.
		c.registry.Remove(connectionID)
		return fmt.Errorf("failed to issue room secret: %w", err)
	}

	c.subscriber.JoinRoom(connectionID, roomID)

	now := time.Now()
	c.emit(events.RoomEvent{
		Kind:             events.KindMeta,
		RoomID:           roomID,
		Seq:              c.nextSeq(roomID),
		TotalActiveUsers: c.registry.Occupancy(roomID),
		RoomSecret:       secret,
		Timestamp:        now,
	})
	c.emit(events.RoomEvent{
		Kind:                events.KindAnnouncement,
		RoomID:              roomID,
		Seq:                 c.nextSeq(roomID),
		ExcludeConnectionID: connectionID,
		UID:                 c.newUID(),
		Author:              events.SystemAuthor,
		Body:                fmt.Sprintf("%s has joined", username),
		Timestamp:           now,
	})
	return nil
}

// Relay fans a ciphertext message out to every other member of the sender's
// room. The body is relayed verbatim; the relay never decrypts. The sender
// does not receive its own message back.
func (c *Coordinator) Relay(connectionID, roomID, body, displayTime string) error {
	record, ok := c.registry.Get(connectionID)
	if !ok {
		return ErrNotJoined
	}
	if record.RoomID != roomID {
		return ErrRoomMismatch
	}
	if body == "" {
		// Empty bodies are dropped on the originating side; be silent
		// here too rather than erroring on a race.
		return nil
	}
	if err := ValidateBody(body); err != nil {
		return err
	}

	c.emit(events.RoomEvent{
		Kind:                events.KindMessage,
		RoomID:              roomID,
		Seq:                 c.nextSeq(roomID),
		ExcludeConnectionID: connectionID,
		UID:                 c.newUID(),
		Author:              record.Username,
		Body:                body,
		DisplayTime:         displayTime,
		Timestamp:           time.Now(),
	})
	return nil
}

// Disconnect closes a connection's session. A connection that never joined
// is a no-op. Otherwise the membership record is removed and, if members
// remain, they receive a meta event with the decremented count plus a
// system announcement. An emptied room ceases to exist and its secret is
// discarded.
func (c *Coordinator) Disconnect(connectionID string) {
	record, ok := c.registry.Remove(connectionID)
	if !ok {
		return
	}

	c.subscriber.LeaveRoom(connectionID)

	roomID := record.RoomID
	remaining := c.registry.Occupancy(roomID)
	if remaining == 0 {
		c.secrets.Drop(roomID)
		c.dropSeq(roomID)
		return
	}

	secret, err := c.secrets.Secret(roomID)
	if err != nil {
		log.Printf("[relay] Warning: failed to read room secret for %s: %v", roomID, err)
	}

	now := time.Now()
	c.emit(events.RoomEvent{
		Kind:             events.KindMeta,
		RoomID:           roomID,
		Seq:              c.nextSeq(roomID),
		TotalActiveUsers: remaining,
		RoomSecret:       secret,
		Timestamp:        now,
	})
	c.emit(events.RoomEvent{
		Kind:      events.KindAnnouncement,
		RoomID:    roomID,
		Seq:       c.nextSeq(roomID),
		UID:       c.newUID(),
		Author:    events.SystemAuthor,
		Body:      fmt.Sprintf("%s left the room", record.Username),
		Timestamp: now,
	})
}

// emit hands an event to the sink. Delivery is best-effort: a failed emit
// affects observers, never the registry state that produced it.
func (c *Coordinator) emit(event events.RoomEvent) {
	if err := c.sink.Emit(event); err != nil {
		log.Printf("[relay] Warning: failed to emit %s event for room %s: %v", event.Kind, event.RoomID, err)
	}
}

func (c *Coordinator) nextSeq(roomID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[roomID]++
	return c.seq[roomID]
}

func (c *Coordinator) dropSeq(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seq, roomID)
}
