package relay

import (
	"errors"
	"unicode/utf8"

	domain "github.com/example/secure-chat-relay/domain/relay"
	"github.com/example/secure-chat-relay/events"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomIDLength   = 100
	MaxBodyLength     = 5000
)

// Sentinel errors for relay operations. Every one of them is scoped to a
// single connection's request; none is fatal to the process.
var (
	// ErrDuplicateUsername is returned when the username is already taken
	// in the target room (case-sensitive exact match).
	ErrDuplicateUsername = errors.New("duplicate username")

	// ErrAlreadyJoined is returned when a connection that already holds a
	// membership record attempts a second join.
	ErrAlreadyJoined = errors.New("connection already joined a room")

	// ErrNotJoined is returned when a send arrives from a connection with
	// no membership record.
	ErrNotJoined = errors.New("connection has not joined a room")

	// ErrRoomMismatch is returned when a send names a room other than the
	// one recorded for the connection.
	ErrRoomMismatch = errors.New("room does not match the joined room")

	ErrUsernameEmpty    = errors.New("username cannot be empty")
	ErrUsernameTooLong  = errors.New("username exceeds maximum length")
	ErrUsernameInvalid  = errors.New("username contains invalid characters")
	ErrUsernameReserved = errors.New("username is reserved")
	ErrRoomIDEmpty      = errors.New("room id cannot be empty")
	ErrRoomIDTooLong    = errors.New("room id exceeds maximum length")
	ErrRoomIDInvalid    = errors.New("room id contains invalid characters")
	ErrBodyTooLong      = errors.New("message body exceeds maximum length")
	ErrBodyInvalid      = errors.New("message body contains invalid characters")
)

// ValidateUsername validates a user-chosen username. The system author tag
// is reserved for join/leave announcements.
func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLength {
		return ErrUsernameTooLong
	}
	if !utf8.ValidString(username) {
		return ErrUsernameInvalid
	}
	if username == events.SystemAuthor {
		return ErrUsernameReserved
	}
	return nil
}

// ValidateRoomID validates a room identifier.
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return ErrRoomIDEmpty
	}
	if len(roomID) > MaxRoomIDLength {
		return ErrRoomIDTooLong
	}
	if !utf8.ValidString(roomID) {
		return ErrRoomIDInvalid
	}
	return nil
}

// ValidateBody validates a ciphertext message body. Empty bodies are not an
// error here: the originating side drops them silently before the relay is
// ever invoked.
func ValidateBody(body string) error {
	if len(body) > MaxBodyLength {
		return ErrBodyTooLong
	}
	if !utf8.ValidString(body) {
		return ErrBodyInvalid
	}
	return nil
}

// Request-reply service names exposed to dependent modules.
const (
	ServiceListRooms     = "list-rooms"
	ServiceRoomOccupancy = "room-occupancy"
	ServiceRoomMembers   = "room-members"
)

// ListRoomsRequest is the request for the list-rooms service.
type ListRoomsRequest struct{}

// ListRoomsResponse is the reply for the list-rooms service.
type ListRoomsResponse struct {
	Rooms []domain.RoomInfo `json:"rooms"`
}

// RoomOccupancyRequest is the request for the room-occupancy service.
type RoomOccupancyRequest struct {
	RoomID string `json:"room_id"`
}

// RoomOccupancyResponse is the reply for the room-occupancy service.
type RoomOccupancyResponse struct {
	RoomID    string `json:"room_id"`
	Occupancy int    `json:"occupancy"`
}

// RoomMembersRequest is the request for the room-members service.
type RoomMembersRequest struct {
	RoomID string `json:"room_id"`
}

// RoomMembersResponse is the reply for the room-members service. It carries
// usernames only; the room secret never leaves the relay/broadcast path.
type RoomMembersResponse struct {
	RoomID    string   `json:"room_id"`
	Usernames []string `json:"usernames"`
}
