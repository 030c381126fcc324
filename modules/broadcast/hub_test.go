package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn captures written payloads.
type fakeConn struct {
	writes [][]byte
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func addClient(h *Hub, id string) *fakeConn {
	conn := &fakeConn{}
	h.handleRegister(&Client{ID: id, Conn: conn})
	return conn
}

func TestHub_BroadcastRoom(t *testing.T) {
	hub := NewHub()
	alice := addClient(hub, "A")
	bob := addClient(hub, "B")
	carol := addClient(hub, "C")

	hub.JoinRoom("A", "lobby")
	hub.JoinRoom("B", "lobby")
	hub.JoinRoom("C", "random")

	hub.BroadcastRoom("lobby", "", []byte("to-all"))
	hub.BroadcastRoom("lobby", "B", []byte("not-to-bob"))

	require.Len(t, alice.writes, 2)
	assert.Equal(t, "to-all", string(alice.writes[0]))
	assert.Equal(t, "not-to-bob", string(alice.writes[1]))

	require.Len(t, bob.writes, 1, "excluded sender must not receive its own payload")
	assert.Equal(t, "to-all", string(bob.writes[0]))

	assert.Empty(t, carol.writes, "payloads never cross room boundaries")
}

func TestHub_BroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	addClient(hub, "A")

	// No members, no panic, no deliveries.
	hub.BroadcastRoom("lobby", "", []byte("x"))
	assert.Equal(t, 0, hub.RoomClientCount("lobby"))
}

func TestHub_SendTo(t *testing.T) {
	hub := NewHub()
	alice := addClient(hub, "A")
	bob := addClient(hub, "B")

	hub.SendTo("A", []byte("direct"))
	hub.SendTo("missing", []byte("dropped"))

	require.Len(t, alice.writes, 1)
	assert.Equal(t, "direct", string(alice.writes[0]))
	assert.Empty(t, bob.writes)
}

func TestHub_JoinRoomRequiresRegisteredClient(t *testing.T) {
	hub := NewHub()

	hub.JoinRoom("ghost", "lobby")
	assert.Equal(t, 0, hub.RoomClientCount("lobby"))
}

func TestHub_JoinRoomMovesBetweenGroups(t *testing.T) {
	hub := NewHub()
	addClient(hub, "A")

	hub.JoinRoom("A", "lobby")
	hub.JoinRoom("A", "random")

	assert.Equal(t, 0, hub.RoomClientCount("lobby"), "a connection belongs to at most one broadcast group")
	assert.Equal(t, 1, hub.RoomClientCount("random"))
}

func TestHub_LeaveRoom(t *testing.T) {
	hub := NewHub()
	addClient(hub, "A")
	addClient(hub, "B")
	hub.JoinRoom("A", "lobby")
	hub.JoinRoom("B", "lobby")

	hub.LeaveRoom("A")
	assert.Equal(t, 1, hub.RoomClientCount("lobby"))

	// Leaving twice, or without ever joining, is a no-op.
	hub.LeaveRoom("A")
	hub.LeaveRoom("never-joined")
	assert.Equal(t, 1, hub.RoomClientCount("lobby"))
}

func TestHub_UnregisterRemovesFromRoom(t *testing.T) {
	hub := NewHub()
	conn := addClient(hub, "A")
	hub.JoinRoom("A", "lobby")

	hub.handleUnregister(&Client{ID: "A", Conn: conn})

	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, 0, hub.RoomClientCount("lobby"))

	hub.BroadcastRoom("lobby", "", []byte("x"))
	assert.Empty(t, conn.writes)
}
