package models

import "time"

// Chat is a direct-message conversation.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatSummary provides API-friendly view of a chat for a user.
type ChatSummary struct {
	ChatID        string    `db:"id" json:"chat_id"`
	Participants  []string  `db:"-" json:"participants"`
	LastMessageAt time.Time `db:"last_message_at" json:"last_message_at"`
}

// UnreadCount is the number of messages in a chat the user has not read.
type UnreadCount struct {
	ChatID string `db:"chat_id" json:"chat_id"`
	Count  int    `db:"unread" json:"count"`
}
