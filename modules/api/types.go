package api

// RoomResponse is the API response for a room.
type RoomResponse struct {
	ID        string `json:"id"`
	Occupancy int    `json:"occupancy"`
}

// RoomListResponse is the API response for listing rooms.
type RoomListResponse struct {
	Rooms []RoomResponse `json:"rooms"`
	Total int            `json:"total"`
}

// RoomMembersResponse is the API response for listing room members. The room
// secret is never exposed on this surface.
type RoomMembersResponse struct {
	RoomID    string   `json:"room_id"`
	Usernames []string `json:"usernames"`
	Total     int      `json:"total"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
