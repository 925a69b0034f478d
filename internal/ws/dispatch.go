package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrNotRegistered    = errors.New("connection has no registered user")
	ErrIdentityMismatch = errors.New("payload user does not match connection user")
	ErrForbidden        = errors.New("not a chat participant")
	ErrReservedRoom     = errors.New("room is not a chat")
)

// ChatAuthorizer checks chat participation before a connection joins a chat room.
type ChatAuthorizer interface {
	IsParticipant(ctx context.Context, chatID string, userID string) (bool, error)
}

// EventHandler handles one inbound client event for a connection.
type EventHandler func(ctx context.Context, connID string, data json.RawMessage) error

// Dispatcher routes inbound frames to handlers by event name.
type Dispatcher struct {
	hub      *Hub
	chats    ChatAuthorizer
	handlers map[string]EventHandler
}

// NewDispatcher builds the client event table. A nil authorizer lets any
// registered connection join any chat.
func NewDispatcher(hub *Hub, chats ChatAuthorizer) *Dispatcher {
	d := &Dispatcher{hub: hub, chats: chats}
	d.handlers = map[string]EventHandler{
		EventUserConnected:    d.userConnected,
		EventJoinChat:         d.joinChat,
		EventLeaveChat:        d.leaveChat,
		EventSendMessage:      d.sendMessage,
		EventTypingStart:      d.typingStart,
		EventTypingStop:       d.typingStop,
		EventMarkMessagesRead: d.markMessagesRead,
	}
	return d
}

// Dispatch decodes one raw frame and runs its handler.
func (d *Dispatcher) Dispatch(ctx context.Context, connID string, raw []byte) error {
	var in inboundFrame
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	handler, ok := d.handlers[in.Event]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, in.Event)
	}
	if err := handler(ctx, connID, in.Data); err != nil {
		return fmt.Errorf("%s: %w", in.Event, err)
	}
	return nil
}

// Events lists the handled event names.
func (d *Dispatcher) Events() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

func (d *Dispatcher) userConnected(ctx context.Context, connID string, data json.RawMessage) error {
	var userID string
	if err := json.Unmarshal(data, &userID); err != nil {
		return err
	}
	if userID == "" {
		return ErrNotRegistered
	}
	if current := d.hub.UserOf(connID); current != "" && current != userID {
		return ErrIdentityMismatch
	}
	return d.hub.Register(ctx, connID, userID)
}

func (d *Dispatcher) joinChat(ctx context.Context, connID string, data json.RawMessage) error {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil {
		return err
	}
	if chatID == "" || IsReservedRoom(chatID) {
		return ErrReservedRoom
	}
	if d.chats != nil {
		userID, err := d.actingUser(connID, "")
		if err != nil {
			return err
		}
		ok, err := d.chats.IsParticipant(ctx, chatID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	}
	return d.hub.Join(connID, chatID)
}

func (d *Dispatcher) leaveChat(_ context.Context, connID string, data json.RawMessage) error {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil {
		return err
	}
	if IsReservedRoom(chatID) {
		return ErrReservedRoom
	}
	d.hub.Leave(connID, chatID)
	return nil
}

func (d *Dispatcher) sendMessage(_ context.Context, connID string, data json.RawMessage) error {
	var p sendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	userID, err := d.actingUser(connID, p.Sender)
	if err != nil {
		return err
	}
	if p.Message.SenderID != userID {
		return ErrIdentityMismatch
	}
	if p.Message.ChatID != "" && p.Message.ChatID != p.ChatID {
		return ErrIdentityMismatch
	}
	if err := d.inChat(connID, p.ChatID); err != nil {
		return err
	}
	d.hub.Deliver(p.ChatID, p.Message, connID)
	return nil
}

func (d *Dispatcher) typingStart(_ context.Context, connID string, data json.RawMessage) error {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	userID, err := d.actingUser(connID, p.UserID)
	if err != nil {
		return err
	}
	if err := d.inChat(connID, p.ChatID); err != nil {
		return err
	}
	d.hub.StartTyping(p.ChatID, userID, connID)
	return nil
}

func (d *Dispatcher) typingStop(_ context.Context, connID string, data json.RawMessage) error {
	var p typingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	userID, err := d.actingUser(connID, p.UserID)
	if err != nil {
		return err
	}
	if err := d.inChat(connID, p.ChatID); err != nil {
		return err
	}
	d.hub.StopTyping(p.ChatID, userID, connID)
	return nil
}

func (d *Dispatcher) markMessagesRead(_ context.Context, connID string, data json.RawMessage) error {
	var p messagesReadPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	userID, err := d.actingUser(connID, p.UserID)
	if err != nil {
		return err
	}
	if err := d.inChat(connID, p.ChatID); err != nil {
		return err
	}
	d.hub.MarkRead(p.ChatID, userID, connID)
	return nil
}

// actingUser returns the user registered on the connection, rejecting
// payloads that claim a different identity.
func (d *Dispatcher) actingUser(connID, claimed string) (string, error) {
	userID := d.hub.UserOf(connID)
	if userID == "" {
		return "", ErrNotRegistered
	}
	if claimed != "" && claimed != userID {
		return "", ErrIdentityMismatch
	}
	return userID, nil
}

// inChat requires that the connection joined chatID before acting in it.
func (d *Dispatcher) inChat(connID, chatID string) error {
	if IsReservedRoom(chatID) {
		return ErrReservedRoom
	}
	if !d.hub.IsMember(connID, chatID) {
		return ErrForbidden
	}
	return nil
}
