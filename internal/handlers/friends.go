package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/ws"
)

// FriendHandler drives the friend request lifecycle and its live notifications.
type FriendHandler struct {
	friendRepo       repositories.FriendRepository
	userRepo         repositories.UserRepository
	notificationRepo repositories.NotificationRepository
	hub              Realtime
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendRepo repositories.FriendRepository, userRepo repositories.UserRepository, notificationRepo repositories.NotificationRepository, hub Realtime) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, userRepo: userRepo, notificationRepo: notificationRepo, hub: hub}
}

// SendRequest creates a pending request and notifies the recipient.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		To string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("userID")
	request, err := h.friendRepo.CreateRequest(ctx, userID, req.To)
	if err != nil {
		writeFriendError(c, err)
		return
	}

	recordAndPush(ctx, h.notificationRepo, h.hub, request.ToID, models.NotificationFriendRequest, ws.EventFriendRequest, gin.H{
		"requestId": request.ID,
		"from":      profileOf(ctx, h.userRepo, userID),
	})
	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// AcceptRequest accepts a request addressed to the user and notifies the sender.
func (h *FriendHandler) AcceptRequest(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("userID")
	request, err := h.friendRepo.AcceptRequest(ctx, c.Param("request_id"), userID)
	if err != nil {
		writeFriendError(c, err)
		return
	}

	recordAndPush(ctx, h.notificationRepo, h.hub, request.FromID, models.NotificationFriendAccepted, ws.EventFriendAccept, gin.H{
		"requestId": request.ID,
		"by":        profileOf(ctx, h.userRepo, userID),
	})
	c.JSON(http.StatusOK, gin.H{"request": request})
}

// CancelRequest withdraws or declines a pending request and notifies the other party.
func (h *FriendHandler) CancelRequest(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("userID")
	request, err := h.friendRepo.CancelRequest(ctx, c.Param("request_id"), userID)
	if err != nil {
		writeFriendError(c, err)
		return
	}

	other := request.ToID
	if userID == request.ToID {
		other = request.FromID
	}
	recordAndPush(ctx, h.notificationRepo, h.hub, other, models.NotificationFriendCanceled, ws.EventFriendCancel, gin.H{
		"requestId": request.ID,
		"from":      profileOf(ctx, h.userRepo, userID),
	})
	c.JSON(http.StatusOK, gin.H{"request": request})
}

// RemoveFriend ends a friendship and notifies the former friend.
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString("userID")
	friendID := c.Param("friend_id")
	if err := h.friendRepo.RemoveFriend(ctx, userID, friendID); err != nil {
		writeFriendError(c, err)
		return
	}

	recordAndPush(ctx, h.notificationRepo, h.hub, friendID, models.NotificationFriendRemoved, ws.EventFriendRemoved, gin.H{
		"by": profileOf(ctx, h.userRepo, userID),
	})
	c.Status(http.StatusNoContent)
}

func writeFriendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrSelfFriend):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrFriendRequestNotFound), errors.Is(err, repositories.ErrNotFriends):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrAlreadyFriends), errors.Is(err, repositories.ErrFriendRequestExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "friend operation failed"})
	}
}
