package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	id string

	mu     sync.Mutex
	frames [][]byte
	fail   error
	closed bool
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = err
}

type receivedFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (f *fakeConn) received(t *testing.T) []receivedFrame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]receivedFrame, 0, len(f.frames))
	for _, raw := range f.frames {
		var fr receivedFrame
		require.NoError(t, json.Unmarshal(raw, &fr))
		out = append(out, fr)
	}
	return out
}

func (f *fakeConn) events(t *testing.T) []string {
	t.Helper()
	var names []string
	for _, fr := range f.received(t) {
		names = append(names, fr.Event)
	}
	return names
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

type staticRoles map[string]string

func (r staticRoles) GetRole(_ context.Context, userID string) (string, error) {
	role, ok := r[userID]
	if !ok {
		return "", errors.New("user not found")
	}
	return role, nil
}

type recordingBackbone struct {
	mu        sync.Mutex
	envelopes []Envelope
}

func (b *recordingBackbone) Publish(env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envelopes = append(b.envelopes, env)
}

func (b *recordingBackbone) published() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Envelope(nil), b.envelopes...)
}

// connect attaches a fake connection and registers it for userID.
func connect(t *testing.T, h *Hub, connID, userID string) *fakeConn {
	t.Helper()
	c := newFakeConn(connID)
	h.Attach(c, ConnInfo{})
	require.NoError(t, h.Register(context.Background(), connID, userID))
	return c
}
