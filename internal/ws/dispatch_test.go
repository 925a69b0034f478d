package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type participants map[string][]string

func (p participants) IsParticipant(_ context.Context, chatID, userID string) (bool, error) {
	for _, id := range p[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(Frame{Event: event, Data: data})
	require.NoError(t, err)
	return raw
}

func TestDispatchUnknownEvent(t *testing.T) {
	d := NewDispatcher(NewHub(nil), nil)
	err := d.Dispatch(context.Background(), "c1", frame(t, "dance", nil))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestDispatchMalformedFrame(t *testing.T) {
	d := NewDispatcher(NewHub(nil), nil)
	assert.Error(t, d.Dispatch(context.Background(), "c1", []byte("{not json")))
}

func TestDispatchEventsTable(t *testing.T) {
	d := NewDispatcher(NewHub(nil), nil)
	assert.ElementsMatch(t, []string{
		EventUserConnected, EventJoinChat, EventLeaveChat, EventSendMessage,
		EventTypingStart, EventTypingStop, EventMarkMessagesRead,
	}, d.Events())
}

func TestDispatchUserConnected(t *testing.T) {
	h := NewHub(nil)
	h.Attach(newFakeConn("c1"), ConnInfo{})
	d := NewDispatcher(h, nil)

	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventUserConnected, "alice")))
	assert.True(t, h.IsOnline("alice"))

	err := d.Dispatch(context.Background(), "c1", frame(t, EventUserConnected, "mallory"))
	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Equal(t, "alice", h.UserOf("c1"))
}

func TestDispatchJoinChatChecksParticipation(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "alice")
	connect(t, h, "c2", "mallory")
	d := NewDispatcher(h, participants{"chat-1": {"alice", "bob"}})

	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventJoinChat, "chat-1")))
	err := d.Dispatch(context.Background(), "c2", frame(t, EventJoinChat, "chat-1"))

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, []string{"c1"}, h.MembersOf("chat-1"))
}

func TestDispatchJoinThenLeave(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "alice")
	d := NewDispatcher(h, nil)

	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventJoinChat, "chat-1")))
	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventLeaveChat, "chat-1")))
	assert.Empty(t, h.MembersOf("chat-1"))
}

func TestDispatchSendMessage(t *testing.T) {
	h := NewHub(nil)
	sender := connect(t, h, "c1", "alice")
	peer := connect(t, h, "c2", "bob")
	require.NoError(t, h.Join("c1", "chat-1"))
	require.NoError(t, h.Join("c2", "chat-1"))
	d := NewDispatcher(h, nil)

	payload := map[string]any{
		"chatId":  "chat-1",
		"sender":  "alice",
		"message": map[string]any{"_id": "m1", "chat": "chat-1", "sender": "alice", "content": "hi"},
	}
	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventSendMessage, payload)))

	assert.Equal(t, []string{EventMessageSent}, sender.events(t))
	assert.Equal(t, []string{EventNewMessage}, peer.events(t))
}

func TestDispatchSendMessageRejectsSpoofedSender(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "mallory")
	peer := connect(t, h, "c2", "bob")
	require.NoError(t, h.Join("c1", "chat-1"))
	require.NoError(t, h.Join("c2", "chat-1"))
	d := NewDispatcher(h, nil)

	payload := map[string]any{"chatId": "chat-1", "sender": "alice", "message": map[string]any{"_id": "m1"}}
	err := d.Dispatch(context.Background(), "c1", frame(t, EventSendMessage, payload))

	assert.ErrorIs(t, err, ErrIdentityMismatch)
	assert.Empty(t, peer.events(t))
}

func TestDispatchRequiresRegistration(t *testing.T) {
	h := NewHub(nil)
	h.Attach(newFakeConn("c1"), ConnInfo{})
	d := NewDispatcher(h, nil)

	err := d.Dispatch(context.Background(), "c1", frame(t, EventTypingStart, map[string]string{"chatId": "chat-1", "userId": "alice"}))
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestDispatchTypingAndRead(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "alice")
	peer := connect(t, h, "c2", "bob")
	require.NoError(t, h.Join("c1", "chat-1"))
	require.NoError(t, h.Join("c2", "chat-1"))
	d := NewDispatcher(h, nil)
	ref := map[string]string{"chatId": "chat-1", "userId": "alice"}

	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventTypingStart, ref)))
	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventTypingStop, ref)))
	require.NoError(t, d.Dispatch(context.Background(), "c1", frame(t, EventMarkMessagesRead, ref)))

	assert.Equal(t, []string{EventUserTyping, EventUserTyping, EventMessagesRead}, peer.events(t))
}

func TestDispatchSendMessageRejectsForgedAuthor(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "mallory")
	peer := connect(t, h, "c2", "bob")
	require.NoError(t, h.Join("c1", "chat-1"))
	require.NoError(t, h.Join("c2", "chat-1"))
	d := NewDispatcher(h, nil)

	forged := map[string]any{
		"chatId":  "chat-1",
		"sender":  "mallory",
		"message": map[string]any{"_id": "forged", "sender": "alice", "content": "pay me"},
	}
	err := d.Dispatch(context.Background(), "c1", frame(t, EventSendMessage, forged))
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	otherChat := map[string]any{
		"chatId":  "chat-1",
		"sender":  "mallory",
		"message": map[string]any{"_id": "m2", "chat": "chat-2", "sender": "mallory"},
	}
	err = d.Dispatch(context.Background(), "c1", frame(t, EventSendMessage, otherChat))
	assert.ErrorIs(t, err, ErrIdentityMismatch)

	assert.Empty(t, peer.events(t))
}

func TestDispatchRequiresChatMembership(t *testing.T) {
	h := NewHub(nil)
	connect(t, h, "c1", "mallory")
	peer := connect(t, h, "c2", "bob")
	require.NoError(t, h.Join("c2", "chat-1"))
	d := NewDispatcher(h, participants{"chat-1": {"alice", "bob"}})
	ctx := context.Background()

	send := map[string]any{
		"chatId":  "chat-1",
		"sender":  "mallory",
		"message": map[string]any{"_id": "m1", "sender": "mallory", "content": "hi"},
	}
	ref := map[string]string{"chatId": "chat-1", "userId": "mallory"}

	assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventSendMessage, send)), ErrForbidden)
	assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventTypingStart, ref)), ErrForbidden)
	assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventTypingStop, ref)), ErrForbidden)
	assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventMarkMessagesRead, ref)), ErrForbidden)

	assert.Empty(t, peer.events(t))
	assert.False(t, h.IsTyping("chat-1", "mallory"))
}

func TestDispatchRefusesReservedRooms(t *testing.T) {
	h := NewHub(staticRoles{"alice": "admin"})
	connect(t, h, "c1", "alice")
	d := NewDispatcher(h, nil)
	ctx := context.Background()

	for _, room := range []string{AdminRoom, PersonalRoom("alice"), PersonalRoom("bob")} {
		assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventLeaveChat, room)), ErrReservedRoom, room)
		assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventJoinChat, room)), ErrReservedRoom, room)
	}
	assert.ErrorIs(t, d.Dispatch(ctx, "c1", frame(t, EventTypingStart, map[string]string{"chatId": AdminRoom})), ErrReservedRoom)

	assert.Equal(t, []string{AdminRoom, PersonalRoom("alice")}, h.RoomsOf("c1"))
}
