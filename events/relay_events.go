package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// Kinds of room events emitted by the relay module.
const (
	KindMeta         = "meta"
	KindAnnouncement = "announcement"
	KindMessage      = "message"
)

// SystemAuthor is the reserved author identity for join/leave announcements.
// It is never accepted as a user-chosen username.
const SystemAuthor = "admin"

// RoomEvent is the single event type carrying all room-scoped traffic.
// Keeping one subject per room stream preserves the order in which the
// session coordinator triggered membership changes and relays.
type RoomEvent struct {
	Kind   string `json:"kind"`
	RoomID string `json:"room_id"`
	// Seq is a per-room sequence number assigned by the coordinator.
	Seq uint64 `json:"seq"`
	// ExcludeConnectionID narrows delivery to all room members except one
	// (the sender of a relayed message, or a fresh joiner for announcements).
	// Empty means the whole room.
	ExcludeConnectionID string `json:"exclude_connection_id,omitempty"`

	// Meta fields (Kind == KindMeta).
	TotalActiveUsers int    `json:"total_active_users,omitempty"`
	RoomSecret       string `json:"room_secret,omitempty"`

	// Message fields (Kind == KindMessage or KindAnnouncement).
	UID         string `json:"uid,omitempty"`
	Author      string `json:"author,omitempty"`
	Body        string `json:"body,omitempty"`
	DisplayTime string `json:"display_time,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// RoomEventV1 is published by the relay module for every membership change
// and relayed message.
var RoomEventV1 = helper.EventDefinition[RoomEvent](
	"relay",
	"RoomEvent",
	"v1",
)
