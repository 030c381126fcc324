package relay

import (
	"sort"
	"sync"
	"time"

	domain "github.com/example/secure-chat-relay/domain/relay"
)

// Registry is the process-wide mapping from connection identifier to
// membership record. It is the sole owner of membership state; the session
// coordinator is its only writer. Rooms are a derived view: a room exists
// exactly while at least one record names it.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*domain.MembershipRecord // connectionID -> record
	rooms map[string]map[string]bool          // roomID -> set of connectionIDs
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*domain.MembershipRecord),
		rooms: make(map[string]map[string]bool),
	}
}

// Add inserts a membership record for the connection. It fails with
// ErrDuplicateUsername if any record in the same room carries an equal
// username (case-sensitive), and with ErrAlreadyJoined if the connection
// already holds a record. On failure the registry is left unchanged.
func (r *Registry) Add(connectionID, username, roomID string) (*domain.MembershipRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connectionID]; ok {
		return nil, ErrAlreadyJoined
	}

	for connID := range r.rooms[roomID] {
		if r.conns[connID].Username == username {
			return nil, ErrDuplicateUsername
		}
	}

	record := &domain.MembershipRecord{
		ConnectionID: connectionID,
		Username:     username,
		RoomID:       roomID,
		JoinedAt:     time.Now(),
	}
	r.conns[connectionID] = record
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]bool)
	}
	r.rooms[roomID][connectionID] = true
	return record, nil
}

// Remove deletes and returns the record for the connection. Absence is a
// valid outcome (disconnect before join), reported via the boolean.
func (r *Registry) Remove(connectionID string) (*domain.MembershipRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.conns[connectionID]
	if !ok {
		return nil, false
	}

	delete(r.conns, connectionID)
	delete(r.rooms[record.RoomID], connectionID)
	if len(r.rooms[record.RoomID]) == 0 {
		delete(r.rooms, record.RoomID)
	}
	return record, true
}

// Get returns the record for the connection, if any.
func (r *Registry) Get(connectionID string) (*domain.MembershipRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.conns[connectionID]
	if !ok {
		return nil, false
	}
	copy := *record
	return &copy, true
}

// ListByRoom returns the membership records in a room. Order is not
// significant; callers only need cardinality and delivery targets.
func (r *Registry) ListByRoom(roomID string) []domain.MembershipRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.MembershipRecord, 0, len(r.rooms[roomID]))
	for connID := range r.rooms[roomID] {
		result = append(result, *r.conns[connID])
	}
	return result
}

// Occupancy returns the number of active members in a room.
func (r *Registry) Occupancy(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// ActiveRooms returns the rooms that currently have at least one member,
// sorted by id for stable listings.
func (r *Registry) ActiveRooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]domain.RoomInfo, 0, len(r.rooms))
	for roomID, members := range r.rooms {
		rooms = append(rooms, domain.RoomInfo{ID: roomID, Occupancy: len(members)})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}
