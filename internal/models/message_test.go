package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyReadReceiptMarksOthersMessages(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msgs := []Message{
		{ID: "m1", SenderID: "alice"},
		{ID: "m2", SenderID: "bob"},
	}

	out := ApplyReadReceipt(msgs, "bob", at)

	require.Len(t, out, 2)
	assert.Equal(t, []ReadReceipt{{User: "bob", ReadAt: at}}, out[0].ReadBy)
	assert.Empty(t, out[1].ReadBy, "own message must not be marked read by its author")
	assert.Empty(t, msgs[0].ReadBy, "input must not be mutated")
}

func TestApplyReadReceiptIsIdempotent(t *testing.T) {
	first := time.Unix(100, 0)
	msgs := []Message{{ID: "m1", SenderID: "alice"}}

	once := ApplyReadReceipt(msgs, "bob", first)
	twice := ApplyReadReceipt(once, "bob", first.Add(time.Minute))

	require.Len(t, twice[0].ReadBy, 1)
	assert.Equal(t, first, twice[0].ReadBy[0].ReadAt)
}

func TestApplyReadReceiptKeepsOtherReaders(t *testing.T) {
	msgs := []Message{{ID: "m1", SenderID: "alice", ReadBy: []ReadReceipt{{User: "carol"}}}}

	out := ApplyReadReceipt(msgs, "bob", time.Unix(1, 0))

	require.Len(t, out[0].ReadBy, 2)
	assert.True(t, out[0].IsReadBy("carol"))
	assert.True(t, out[0].IsReadBy("bob"))
	assert.Len(t, msgs[0].ReadBy, 1)
}

func TestIsPrivileged(t *testing.T) {
	assert.True(t, IsPrivileged(RoleAdmin))
	assert.True(t, IsPrivileged(RoleModerator))
	assert.False(t, IsPrivileged(RoleUser))
	assert.False(t, IsPrivileged(""))
}
