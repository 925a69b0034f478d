package ws

import (
	"context"
	"log"

	"realtime-service/internal/models"
	"realtime-service/internal/observability"
)

// Register associates a connection with a user and joins the user's personal
// room. Privileged users also join the admin room. A failed role lookup still
// registers the connection, just without admin membership. Registering the
// same pair twice is a no-op. Re-registering a connection as another user
// clears every room and typing entry of the previous user.
func (h *Hub) Register(ctx context.Context, connID, userID string) error {
	privileged := false
	if h.roles != nil {
		role, err := h.roles.GetRole(ctx, userID)
		if err != nil {
			log.Printf("role lookup failed user_id=%s conn_id=%s: %v", userID, connID, err)
		} else {
			privileged = models.IsPrivileged(role)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return ErrUnknownConnection
	}
	if c.userID != "" && c.userID != userID {
		// nothing the previous user joined or typed survives the switch
		h.dropPresenceLocked(c)
		for roomID := range c.rooms {
			h.leaveLocked(c, roomID)
		}
		h.dropTypingLocked(connID)
	}
	c.userID = userID
	c.info.UserID = userID

	conns, ok := h.presence[userID]
	if !ok {
		conns = make(map[string]struct{})
		h.presence[userID] = conns
	}
	conns[connID] = struct{}{}

	h.joinLocked(c, PersonalRoom(userID))
	if privileged {
		h.joinLocked(c, AdminRoom)
	}
	observability.SetOnlineUsers(len(h.presence))
	return nil
}

// Unregister removes the connection from every room, from presence and from
// any typing state it owned. No event is emitted.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.conns[connID]
	if !ok {
		return
	}
	for roomID := range c.rooms {
		h.leaveLocked(c, roomID)
	}
	h.dropPresenceLocked(c)
	h.dropTypingLocked(connID)
	delete(h.conns, connID)
	observability.SetOnlineUsers(len(h.presence))
}

// IsOnline reports whether the user has at least one live connection on this node.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presence[userID]) > 0
}

// OnlineCount returns how many distinct users are connected to this node.
func (h *Hub) OnlineCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.presence)
}

func (h *Hub) dropPresenceLocked(c *connection) {
	if c.userID == "" {
		return
	}
	if conns, ok := h.presence[c.userID]; ok {
		delete(conns, c.conn.ID())
		if len(conns) == 0 {
			delete(h.presence, c.userID)
		}
	}
}
