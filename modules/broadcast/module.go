package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/secure-chat-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Module consumes room events from the relay and broadcasts them to
// WebSocket clients through the hub.
type Module struct {
	hub       *Hub
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new broadcast module.
func NewModule() *Module {
	return &Module{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *Module) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers the room event handler. All room traffic
// arrives on a single subject so members observe membership changes in the
// order the coordinator triggered them.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.RoomEventV1, m.handleRoomEvent, m,
	); err != nil {
		return fmt.Errorf("failed to register RoomEvent consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: RoomEvent")
	return nil
}

// handleRoomEvent renders a room event as a wire envelope and delivers it
// with the scope the coordinator chose.
func (m *Module) handleRoomEvent(_ context.Context, event events.RoomEvent, _ *mono.Msg) error {
	envelope, err := renderEnvelope(event)
	if err != nil {
		log.Printf("[broadcast] Dropping unrenderable %s event for room %s: %v", event.Kind, event.RoomID, err)
		return nil // never retry a malformed event
	}

	m.hub.BroadcastRoom(event.RoomID, event.ExcludeConnectionID, envelope)
	return nil
}

// GetHub returns the WebSocket hub for the relay and server modules to use.
func (m *Module) GetHub() *Hub {
	return m.hub
}

// Envelope is the outbound wire format written to WebSocket clients.
type Envelope struct {
	Type             string `json:"type"` // "meta" or "message"
	RoomID           string `json:"room_id,omitempty"`
	TotalActiveUsers int    `json:"total_active_users,omitempty"`
	RoomSecret       string `json:"room_secret,omitempty"`
	UID              string `json:"uid,omitempty"`
	Author           string `json:"author,omitempty"`
	Body             string `json:"body,omitempty"`
	Time             string `json:"time,omitempty"`
}

// Wire envelope types.
const (
	EnvelopeMeta    = "meta"
	EnvelopeMessage = "message"
)

// renderEnvelope maps a room event onto the client wire format. System
// announcements travel as plaintext messages under the reserved author;
// user messages carry ciphertext the relay never inspected.
func renderEnvelope(event events.RoomEvent) ([]byte, error) {
	var envelope Envelope
	switch event.Kind {
	case events.KindMeta:
		envelope = Envelope{
			Type:             EnvelopeMeta,
			RoomID:           event.RoomID,
			TotalActiveUsers: event.TotalActiveUsers,
			RoomSecret:       event.RoomSecret,
		}
	case events.KindMessage, events.KindAnnouncement:
		envelope = Envelope{
			Type:   EnvelopeMessage,
			RoomID: event.RoomID,
			UID:    event.UID,
			Author: event.Author,
			Body:   event.Body,
			Time:   event.DisplayTime,
		}
	default:
		return nil, fmt.Errorf("unknown room event kind %q", event.Kind)
	}
	return json.Marshal(envelope)
}
