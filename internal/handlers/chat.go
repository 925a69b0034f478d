package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/ws"
)

// ChatHandler manages direct chat endpoints.
type ChatHandler struct {
	chatRepo         repositories.ChatRepository
	messageRepo      repositories.MessageRepository
	userRepo         repositories.UserRepository
	friendRepo       repositories.FriendRepository
	notificationRepo repositories.NotificationRepository
	hub              Realtime
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(
	chatRepo repositories.ChatRepository,
	messageRepo repositories.MessageRepository,
	userRepo repositories.UserRepository,
	friendRepo repositories.FriendRepository,
	notificationRepo repositories.NotificationRepository,
	hub Realtime,
) *ChatHandler {
	return &ChatHandler{
		chatRepo:         chatRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		friendRepo:       friendRepo,
		notificationRepo: notificationRepo,
		hub:              hub,
	}
}

// ListChats returns the chats of the authenticated user with participant profiles.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetString("userID")

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	ids := make([]string, 0, len(chats)*2)
	seen := map[string]struct{}{}
	for _, chat := range chats {
		for _, id := range chat.Participants {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	users, err := h.userRepo.BulkUsers(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}
	profiles := map[string]models.PublicProfile{}
	for _, u := range users {
		profiles[u.ID] = u.Profile()
	}

	type chatResponse struct {
		ChatID        string                 `json:"chat_id"`
		Participants  []models.PublicProfile `json:"participants"`
		LastMessageAt time.Time              `json:"last_message_at"`
	}

	responses := make([]chatResponse, 0, len(chats))
	for _, chat := range chats {
		participants := make([]models.PublicProfile, 0, len(chat.Participants))
		for _, id := range chat.Participants {
			p, ok := profiles[id]
			if !ok {
				p = models.PublicProfile{ID: id}
			}
			participants = append(participants, p)
		}
		responses = append(responses, chatResponse{
			ChatID:        chat.ChatID,
			Participants:  participants,
			LastMessageAt: chat.LastMessageAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"chats": responses})
}

// StartChat creates or returns the direct chat between the user and a friend.
func (h *ChatHandler) StartChat(c *gin.Context) {
	var req struct {
		FriendID string `json:"friend_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	if userID == req.FriendID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate friendship"})
		return
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return
	}

	chat, err := h.chatRepo.CreateOrGetChat(c.Request.Context(), userID, req.FriendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID})
}

// GetChatMessages returns the chat history with read receipts.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	if !h.requireParticipant(c, chatID) {
		return
	}

	msgs, err := h.messageRepo.GetChatMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage stores a message, pushes it to the chat room and leaves a
// notification for every other participant.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID := c.Param("chat_id")
	if !h.requireParticipant(c, chatID) {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("userID")
	msg, err := h.messageRepo.CreateChatMessage(ctx, chatID, userID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
		return
	}

	h.hub.Deliver(chatID, msg, callerConnection(c, h.hub, userID))

	participants, err := h.chatRepo.Participants(ctx, chatID)
	if err != nil {
		log.Printf("load participants failed chat_id=%s: %v", chatID, err)
	}
	sender := profileOf(ctx, h.userRepo, userID)
	for _, participant := range participants {
		if participant == userID {
			continue
		}
		payload := gin.H{
			"chatId":    chatID,
			"messageId": msg.ID,
			"from":      sender,
		}
		note, err := h.notificationRepo.Create(ctx, participant, models.NotificationNewMessage, payload)
		if err != nil {
			log.Printf("notification store failed user_id=%s chat_id=%s: %v", participant, chatID, err)
			h.hub.NotifyUser(participant, ws.EventNotification, payload)
			continue
		}
		h.hub.NotifyUser(participant, ws.EventNotification, note)
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// MarkChatRead records receipts for every message the user has not read and
// tells the rest of the chat.
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	chatID := c.Param("chat_id")
	if !h.requireParticipant(c, chatID) {
		return
	}

	userID := c.GetString("userID")
	marked, err := h.messageRepo.MarkChatRead(c.Request.Context(), chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	h.hub.MarkRead(chatID, userID, callerConnection(c, h.hub, userID))
	c.JSON(http.StatusOK, gin.H{"marked": marked})
}

// UnreadCounts returns unread message counts per chat.
func (h *ChatHandler) UnreadCounts(c *gin.Context) {
	counts, err := h.messageRepo.UnreadCounts(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load unread counts"})
		return
	}
	if counts == nil {
		counts = []models.UnreadCount{}
	}
	c.JSON(http.StatusOK, gin.H{"unread": counts})
}

func (h *ChatHandler) requireParticipant(c *gin.Context, chatID string) bool {
	member, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return false
	}
	return true
}
