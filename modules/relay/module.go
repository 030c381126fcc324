package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/example/secure-chat-relay/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	gonanoid "github.com/jaevor/go-nanoid"
)

// uidLength is the length of generated message identifiers. The original
// system derived uids from sub-second timestamps, which collide under rapid
// sends; nanoids do not.
const uidLength = 21

// Module is the relay core: connection registry, room directory, session
// coordinator and room secrets. It emits room events on the event bus and
// exposes the room directory to dependent modules via request-reply
// services.
type Module struct {
	registry    *Registry
	secrets     *SecretManager
	newUID      func() string
	eventBus    mono.EventBus
	subscriber  RoomSubscriber
	coordinator *Coordinator
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.EventBusAwareModule = (*Module)(nil)
var _ mono.EventEmitterModule = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the relay module. RELAY_STATIC_SECRET pins a single
// process-wide room secret; when unset every room gets its own generated
// key.
func NewModule() *Module {
	newUID, err := gonanoid.Standard(uidLength)
	if err != nil {
		panic(fmt.Sprintf("relay: failed to build uid generator: %v", err))
	}
	return &Module{
		registry: NewRegistry(),
		secrets:  NewSecretManager(os.Getenv("RELAY_STATIC_SECRET")),
		newUID:   newUID,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "relay"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// SetRoomSubscriber wires the transport-level broadcast groups (the hub).
// Called from main.go before the application starts.
func (m *Module) SetRoomSubscriber(subscriber RoomSubscriber) {
	m.subscriber = subscriber
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomEventV1.ToBase(),
	}
}

// RegisterServices exposes the room directory as request-reply services.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.listRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomOccupancy, json.Unmarshal, json.Marshal, m.roomOccupancy,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomOccupancy, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRoomMembers, json.Unmarshal, json.Marshal, m.roomMembers,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRoomMembers, err)
	}

	log.Printf("[relay] Registered services: %s, %s, %s", ServiceListRooms, ServiceRoomOccupancy, ServiceRoomMembers)
	return nil
}

// Start wires the session coordinator once its collaborators are in place.
func (m *Module) Start(_ context.Context) error {
	if m.subscriber == nil {
		return errors.New("room subscriber dependency not set")
	}
	if m.eventBus == nil {
		return errors.New("event bus not set")
	}

	m.coordinator = NewCoordinator(m.registry, m.secrets, &busSink{bus: m.eventBus}, m.subscriber, m.newUID)
	log.Println("[relay] Module started")
	return nil
}

// Stop gracefully shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[relay] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.coordinator != nil,
		Message: "operational",
		Details: map[string]any{
			"active_rooms": len(m.registry.ActiveRooms()),
		},
	}
}

// Join admits a connection into a room. See Coordinator.Join.
func (m *Module) Join(connectionID, username, roomID string) error {
	return m.coordinator.Join(connectionID, username, roomID)
}

// Relay fans a ciphertext message out to the sender's room. See
// Coordinator.Relay.
func (m *Module) Relay(connectionID, roomID, body, displayTime string) error {
	return m.coordinator.Relay(connectionID, roomID, body, displayTime)
}

// Disconnect closes a connection's session. See Coordinator.Disconnect.
func (m *Module) Disconnect(connectionID string) {
	m.coordinator.Disconnect(connectionID)
}

// busSink publishes room events on the application event bus.
type busSink struct {
	bus mono.EventBus
}

func (s *busSink) Emit(event events.RoomEvent) error {
	return events.RoomEventV1.Publish(s.bus, event, nil)
}
