package ws

import (
	"log"

	"realtime-service/internal/models"
)

// Deliver pushes an already persisted message to every member of the chat
// room except the submitting connection, then acknowledges the sender with
// message_sent. Failed pushes are logged and never retried.
func (h *Hub) Deliver(chatID string, msg models.Message, senderConnID string) {
	frame, err := encodeFrame(EventNewMessage, newMessagePayload{Message: msg, ChatID: chatID})
	if err != nil {
		log.Printf("encode new_message failed chat_id=%s message_id=%s: %v", chatID, msg.ID, err)
		return
	}
	ack, err := encodeFrame(EventMessageSent, messageSentPayload{MessageID: msg.ID, Status: statusDelivered})
	if err != nil {
		log.Printf("encode message_sent failed chat_id=%s message_id=%s: %v", chatID, msg.ID, err)
		return
	}

	h.mu.Lock()
	h.emitLocked(chatID, EventNewMessage, frame, senderConnID)
	if senderConnID != "" {
		h.sendLocked(senderConnID, EventMessageSent, ack)
	}
	h.broadcast(chatID, EventNewMessage, frame, senderConnID)
	h.mu.Unlock()
}
