package api

import (
	"github.com/gofiber/fiber/v2"
)

// listRooms handles GET /api/v1/rooms.
func (m *Module) listRooms(c *fiber.Ctx) error {
	rooms, err := m.relayPort.ListRooms(c.Context())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	resp := RoomListResponse{
		Rooms: make([]RoomResponse, 0, len(rooms)),
		Total: len(rooms),
	}
	for _, room := range rooms {
		resp.Rooms = append(resp.Rooms, RoomResponse{ID: room.ID, Occupancy: room.Occupancy})
	}
	return c.JSON(resp)
}

// getRoom handles GET /api/v1/rooms/:id. Rooms exist implicitly while
// occupied, so an unknown id simply reports zero occupancy.
func (m *Module) getRoom(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if roomID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "room id is required")
	}

	occupancy, err := m.relayPort.RoomOccupancy(c.Context(), roomID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(RoomResponse{ID: roomID, Occupancy: occupancy})
}

// getRoomMembers handles GET /api/v1/rooms/:id/members.
func (m *Module) getRoomMembers(c *fiber.Ctx) error {
	roomID := c.Params("id")
	if roomID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "room id is required")
	}

	usernames, err := m.relayPort.RoomMembers(c.Context(), roomID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(RoomMembersResponse{
		RoomID:    roomID,
		Usernames: usernames,
		Total:     len(usernames),
	})
}

// healthCheck handles GET /health.
func (m *Module) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": "secure-chat-relay-api",
	})
}
