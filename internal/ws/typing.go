package ws

import (
	"log"

	"github.com/jonboulle/clockwork"

	"realtime-service/internal/observability"
)

type typingKey struct {
	chatID string
	userID string
}

type typingEntry struct {
	connID string
	timer  clockwork.Timer
}

// StartTyping moves (chatID, userID) to typing. The first start broadcasts
// user_typing{isTyping:true} to the rest of the room; later starts only re-arm
// the expiry timer.
func (h *Hub) StartTyping(chatID, userID, connID string) {
	key := typingKey{chatID: chatID, userID: userID}

	h.mu.Lock()
	defer h.mu.Unlock()

	// A re-arm installs a new entry, so a callback of the old timer that
	// already fired finds a different entry and does nothing.
	if prev, ok := h.typing[key]; ok {
		prev.timer.Stop()
		e := &typingEntry{connID: connID}
		e.timer = h.armTypingLocked(key, e)
		h.typing[key] = e
		return
	}

	e := &typingEntry{connID: connID}
	e.timer = h.armTypingLocked(key, e)
	h.typing[key] = e
	observability.SetTypingSessions(len(h.typing))
	h.emitTypingLocked(key, connID, true)
}

// StopTyping moves (chatID, userID) back to idle and broadcasts
// user_typing{isTyping:false}. Stopping an idle pair does nothing.
func (h *Hub) StopTyping(chatID, userID, connID string) {
	key := typingKey{chatID: chatID, userID: userID}

	h.mu.Lock()
	defer h.mu.Unlock()

	e, ok := h.typing[key]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(h.typing, key)
	observability.SetTypingSessions(len(h.typing))
	h.emitTypingLocked(key, connID, false)
}

// IsTyping reports whether the pair is currently in the typing state.
func (h *Hub) IsTyping(chatID, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.typing[typingKey{chatID: chatID, userID: userID}]
	return ok
}

func (h *Hub) armTypingLocked(key typingKey, e *typingEntry) clockwork.Timer {
	return h.clock.AfterFunc(h.typingTimeout, func() {
		h.expireTyping(key, e)
	})
}

// expireTyping is the timer path; it behaves like an explicit stop unless the
// entry was already replaced or removed.
func (h *Hub) expireTyping(key typingKey, e *typingEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.typing[key]; !ok || cur != e {
		return
	}
	delete(h.typing, key)
	observability.SetTypingSessions(len(h.typing))
	h.emitTypingLocked(key, e.connID, false)
}

// dropTypingLocked forgets typing state owned by a closing connection
// without telling anyone.
func (h *Hub) dropTypingLocked(connID string) {
	for key, e := range h.typing {
		if e.connID == connID {
			e.timer.Stop()
			delete(h.typing, key)
		}
	}
	observability.SetTypingSessions(len(h.typing))
}

func (h *Hub) emitTypingLocked(key typingKey, except string, typing bool) {
	frame, err := encodeFrame(EventUserTyping, userTypingPayload{UserID: key.userID, IsTyping: typing})
	if err != nil {
		log.Printf("encode user_typing failed chat_id=%s user_id=%s: %v", key.chatID, key.userID, err)
		return
	}
	h.emitLocked(key.chatID, EventUserTyping, frame, except)
	h.broadcast(key.chatID, EventUserTyping, frame, except)
}
