package relay

import "time"

// MembershipRecord binds an active connection to a username and a room.
// There is at most one record per connection at any time.
type MembershipRecord struct {
	ConnectionID string    `json:"connection_id"`
	Username     string    `json:"username"`
	RoomID       string    `json:"room_id"`
	JoinedAt     time.Time `json:"joined_at"`
}

// RoomInfo is a derived view over the registry: a room exists only while at
// least one member is present.
type RoomInfo struct {
	ID        string `json:"id"`
	Occupancy int    `json:"occupancy"`
}
