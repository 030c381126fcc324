package relay

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/secure-chat-relay/domain/relay"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Port defines the read-only room directory surface consumed by dependent
// modules.
type Port interface {
	ListRooms(ctx context.Context) ([]domain.RoomInfo, error)
	RoomOccupancy(ctx context.Context, roomID string) (int, error)
	RoomMembers(ctx context.Context, roomID string) ([]string, error)
}

// Adapter implements Port over the relay module's request-reply services.
type Adapter struct {
	container mono.ServiceContainer
}

// NewAdapter creates an Adapter bound to the relay service container.
func NewAdapter(container mono.ServiceContainer) Port {
	if container == nil {
		panic("relay: ServiceContainer is nil")
	}
	return &Adapter{container: container}
}

// ListRooms returns the rooms that currently have members.
func (a *Adapter) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}

// RoomOccupancy returns the member count of a room.
func (a *Adapter) RoomOccupancy(ctx context.Context, roomID string) (int, error) {
	req := RoomOccupancyRequest{RoomID: roomID}
	var resp RoomOccupancyResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomOccupancy,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return 0, fmt.Errorf("failed to get room occupancy: %w", err)
	}
	return resp.Occupancy, nil
}

// RoomMembers returns the usernames currently present in a room.
func (a *Adapter) RoomMembers(ctx context.Context, roomID string) ([]string, error) {
	req := RoomMembersRequest{RoomID: roomID}
	var resp RoomMembersResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRoomMembers,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to get room members: %w", err)
	}
	return resp.Usernames, nil
}
