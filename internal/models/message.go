package models

import "time"

// ReadReceipt records that a user has seen a message.
type ReadReceipt struct {
	User   string    `db:"user_id" json:"user"`
	ReadAt time.Time `db:"read_at" json:"readAt"`
}

// Message represents a persisted chat message.
type Message struct {
	ID        string        `db:"id" json:"_id"`
	ChatID    string        `db:"chat_id" json:"chat"`
	SenderID  string        `db:"sender_id" json:"sender"`
	Content   string        `db:"content" json:"content"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
	ReadBy    []ReadReceipt `db:"-" json:"readBy"`
}

// IsReadBy reports whether userID already has a receipt on the message.
func (m Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r.User == userID {
			return true
		}
	}
	return false
}

// ApplyReadReceipt merges a "messages read" event into a local message list.
// Every message not authored by readerID gains a receipt for readerID unless it
// already carries one. The input slice is not modified.
func ApplyReadReceipt(msgs []Message, readerID string, at time.Time) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		if m.SenderID != readerID && !m.IsReadBy(readerID) {
			readBy := make([]ReadReceipt, len(m.ReadBy), len(m.ReadBy)+1)
			copy(readBy, m.ReadBy)
			m.ReadBy = append(readBy, ReadReceipt{User: readerID, ReadAt: at})
		}
		out[i] = m
	}
	return out
}
