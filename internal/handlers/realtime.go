package handlers

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// ConnectionIDHeader carries the websocket connection id of the caller, so
// realtime echoes skip the tab that made the request.
const ConnectionIDHeader = "X-Connection-Id"

// Realtime is the part of the websocket hub the REST layer drives.
type Realtime interface {
	Deliver(chatID string, msg models.Message, senderConnID string)
	MarkRead(chatID, readerID, readerConnID string)
	NotifyUser(userID, event string, payload any) bool
	NotifyAdmins(event string, payload any)
	IsOnline(userID string) bool
	UserOf(connID string) string
}

// callerConnection returns the X-Connection-Id of the request when that
// connection is registered to userID, and "" otherwise.
func callerConnection(c *gin.Context, hub Realtime, userID string) string {
	connID := c.GetHeader(ConnectionIDHeader)
	if connID == "" {
		return ""
	}
	if owner := hub.UserOf(connID); owner != userID {
		log.Printf("ignoring foreign connection id conn_id=%s user_id=%s", connID, userID)
		return ""
	}
	return connID
}

// recordAndPush stores a durable notification and pushes event to the user's
// live connections. A storage failure is logged and the push still happens.
func recordAndPush(ctx context.Context, notifications repositories.NotificationRepository, hub Realtime, userID, kind, event string, payload any) {
	if notifications != nil {
		if _, err := notifications.Create(ctx, userID, kind, payload); err != nil {
			log.Printf("notification store failed user_id=%s type=%s: %v", userID, kind, err)
		}
	}
	if hub != nil {
		hub.NotifyUser(userID, event, payload)
	}
}

// profileOf loads the public profile of a user, falling back to the bare id.
func profileOf(ctx context.Context, users repositories.UserRepository, userID string) models.PublicProfile {
	if users == nil {
		return models.PublicProfile{ID: userID}
	}
	user, err := users.GetUser(ctx, userID)
	if err != nil {
		log.Printf("profile lookup failed user_id=%s: %v", userID, err)
		return models.PublicProfile{ID: userID}
	}
	return user.Profile()
}
