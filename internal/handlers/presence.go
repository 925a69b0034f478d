package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PresenceHandler exposes local presence.
type PresenceHandler struct {
	hub Realtime
}

func NewPresenceHandler(hub Realtime) *PresenceHandler {
	return &PresenceHandler{hub: hub}
}

// Online reports whether the user has a live connection on this node.
func (h *PresenceHandler) Online(c *gin.Context) {
	userID := c.Param("user_id")
	c.JSON(http.StatusOK, gin.H{"userId": userID, "online": h.hub.IsOnline(userID)})
}
