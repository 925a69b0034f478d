package ws

import (
	"encoding/json"

	"realtime-service/internal/models"
)

// Client to server events.
const (
	EventUserConnected    = "user_connected"
	EventJoinChat         = "join_chat"
	EventLeaveChat        = "leave_chat"
	EventSendMessage      = "send_message"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventMarkMessagesRead = "mark_messages_read"
)

// Server to client events.
const (
	EventConnected     = "connected"
	EventNewMessage    = "new_message"
	EventMessageSent   = "message_sent"
	EventUserTyping    = "user_typing"
	EventMessagesRead  = "messages_read"
	EventNotification  = "notification:new"
	EventReportFiled   = "report_filed"
	EventFriendRequest = "friend_request:received"
	EventFriendAccept  = "friend_request:accepted"
	EventFriendCancel  = "friend_request:cancelled"
	EventFriendRemoved = "friend:removed"
)

// AdminRoom is the broadcast group for admins and moderators.
const AdminRoom = "admin"

// Frame is the envelope of every websocket text message.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func encodeFrame(event string, data any) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data})
}

type connectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type sendMessagePayload struct {
	ChatID  string         `json:"chatId"`
	Message models.Message `json:"message"`
	Sender  string         `json:"sender"`
}

type newMessagePayload struct {
	Message models.Message `json:"message"`
	ChatID  string         `json:"chatId"`
}

type messageSentPayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type typingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type userTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type messagesReadPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

const statusDelivered = "delivered"
