package ws

import (
	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

const personalRoomPrefix = "user:"

// PersonalRoom is the room every connection of a user joins on registration.
func PersonalRoom(userID string) string {
	return personalRoomPrefix + userID
}
