package ws

import (
	"sort"
	"strings"
)

// Join subscribes a connection to a room. Authorization is the caller's job.
func (h *Hub) Join(connID, roomID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	h.joinLocked(c, roomID)
	return nil
}

// Leave unsubscribes a connection from a room. Unknown pairs are ignored.
func (h *Hub) Leave(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[connID]; ok {
		h.leaveLocked(c, roomID)
	}
}

// IsMember reports whether the connection is subscribed to roomID.
func (h *Hub) IsMember(connID, roomID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[roomID][connID]
	return ok
}

// IsReservedRoom reports whether roomID is managed by the hub itself (the
// admin room or a personal room) and so is not a chat.
func IsReservedRoom(roomID string) bool {
	return roomID == AdminRoom || strings.HasPrefix(roomID, personalRoomPrefix)
}

// MembersOf returns the connection ids currently subscribed to roomID, sorted.
func (h *Hub) MembersOf(roomID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := make([]string, 0, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		members = append(members, connID)
	}
	sort.Strings(members)
	return members
}

// RoomsOf returns the rooms a connection belongs to, sorted.
func (h *Hub) RoomsOf(connID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

func (h *Hub) joinLocked(c *connection, roomID string) {
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[c.conn.ID()] = struct{}{}
	c.rooms[roomID] = struct{}{}
}

func (h *Hub) leaveLocked(c *connection, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c.conn.ID())
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(c.rooms, roomID)
}
