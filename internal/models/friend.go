package models

import "time"

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestCanceled = "cancelled"
)

// FriendRequest is a pending or resolved request between two users.
type FriendRequest struct {
	ID        string    `db:"id" json:"_id"`
	FromID    string    `db:"from_id" json:"from"`
	ToID      string    `db:"to_id" json:"to"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
