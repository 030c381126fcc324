package relay

import (
	"context"

	"github.com/go-monolith/mono"
)

// listRooms handles the list-rooms service request.
func (m *Module) listRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.registry.ActiveRooms()}, nil
}

// roomOccupancy handles the room-occupancy service request. A room with no
// members reports zero occupancy; rooms are never "not found" because they
// exist only as a derived view.
func (m *Module) roomOccupancy(_ context.Context, req RoomOccupancyRequest, _ *mono.Msg) (RoomOccupancyResponse, error) {
	return RoomOccupancyResponse{
		RoomID:    req.RoomID,
		Occupancy: m.registry.Occupancy(req.RoomID),
	}, nil
}

// roomMembers handles the room-members service request.
func (m *Module) roomMembers(_ context.Context, req RoomMembersRequest, _ *mono.Msg) (RoomMembersResponse, error) {
	records := m.registry.ListByRoom(req.RoomID)
	usernames := make([]string, 0, len(records))
	for _, record := range records {
		usernames = append(usernames, record.Username)
	}
	return RoomMembersResponse{
		RoomID:    req.RoomID,
		Usernames: usernames,
	}, nil
}
