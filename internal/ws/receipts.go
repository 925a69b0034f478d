package ws

import "log"

// MarkRead tells the other members of a chat that readerID has read it.
// Receivers merge the event with models.ApplyReadReceipt. Nothing is sent
// back to the reader.
func (h *Hub) MarkRead(chatID, readerID, readerConnID string) {
	frame, err := encodeFrame(EventMessagesRead, messagesReadPayload{ChatID: chatID, UserID: readerID})
	if err != nil {
		log.Printf("encode messages_read failed chat_id=%s: %v", chatID, err)
		return
	}

	h.mu.Lock()
	h.emitLocked(chatID, EventMessagesRead, frame, readerConnID)
	h.broadcast(chatID, EventMessagesRead, frame, readerConnID)
	h.mu.Unlock()
}
