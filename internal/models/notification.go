package models

import (
	"encoding/json"
	"time"
)

// Notification kinds stored durably and pushed live.
const (
	NotificationFriendRequest  = "friend_request"
	NotificationFriendAccepted = "friend_accepted"
	NotificationFriendCanceled = "friend_request_cancelled"
	NotificationFriendRemoved  = "friend_removed"
	NotificationNewMessage     = "new_message"
	NotificationForumReply     = "forum_reply"
)

// Notification is a durable record of a social event for a user.
type Notification struct {
	ID        string          `db:"id" json:"_id"`
	UserID    string          `db:"user_id" json:"user"`
	Type      string          `db:"type" json:"type"`
	Data      json.RawMessage `db:"data" json:"data"`
	Read      bool            `db:"read" json:"read"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
}
