package ws

import (
	"log"

	"realtime-service/internal/observability"
)

// NotifyUser pushes an event to every connection of userID on this node and
// reports whether any local connection existed. Durable storage of the
// notification is the caller's job; offline users read it over REST.
func (h *Hub) NotifyUser(userID, event string, payload any) bool {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("encode %s failed user_id=%s: %v", event, userID, err)
		return false
	}
	room := PersonalRoom(userID)

	h.mu.Lock()
	online := len(h.presence[userID]) > 0
	if online {
		h.emitLocked(room, event, frame, "")
	}
	h.broadcast(room, event, frame, "")
	h.mu.Unlock()

	observability.IncNotificationPushed(event, online)
	return online
}

// NotifyAdmins pushes an event to the admin room. Membership is fixed when a
// connection registers; a role change applies on the next connect.
func (h *Hub) NotifyAdmins(event string, payload any) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		log.Printf("encode %s failed room=%s: %v", event, AdminRoom, err)
		return
	}

	h.mu.Lock()
	h.emitLocked(AdminRoom, event, frame, "")
	h.broadcast(AdminRoom, event, frame, "")
	h.mu.Unlock()
}
