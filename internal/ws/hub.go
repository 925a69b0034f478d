package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"realtime-service/internal/observability"
)

const defaultTypingTimeout = 5 * time.Second

// RoleLookup resolves a user's role for admin room assignment.
type RoleLookup interface {
	GetRole(ctx context.Context, userID string) (string, error)
}

type connection struct {
	conn   Conn
	info   ConnInfo
	userID string
	rooms  map[string]struct{}
}

// Hub owns presence, room membership and typing state for this process.
// Every mutation and every fan-out happens under mu, so a connection removed by
// Unregister never receives another frame.
type Hub struct {
	mu       sync.Mutex
	conns    map[string]*connection
	presence map[string]map[string]struct{}
	rooms    map[string]map[string]struct{}
	typing   map[typingKey]*typingEntry

	roles         RoleLookup
	clock         clockwork.Clock
	typingTimeout time.Duration
	backbone      Backbone
	nodeID        string
}

// Option configures a Hub.
type Option func(*Hub)

// WithClock replaces the clock used for typing timers.
func WithClock(clock clockwork.Clock) Option {
	return func(h *Hub) { h.clock = clock }
}

// WithTypingTimeout sets how long a typing indicator lives without a refresh.
func WithTypingTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.typingTimeout = d
		}
	}
}

// WithBackbone makes fan-out reach connections held by other nodes.
func WithBackbone(nodeID string, b Backbone) Option {
	return func(h *Hub) {
		h.nodeID = nodeID
		h.backbone = b
	}
}

// NewHub creates an empty hub.
func NewHub(roles RoleLookup, opts ...Option) *Hub {
	h := &Hub{
		conns:         make(map[string]*connection),
		presence:      make(map[string]map[string]struct{}),
		rooms:         make(map[string]map[string]struct{}),
		typing:        make(map[typingKey]*typingEntry),
		roles:         roles,
		clock:         clockwork.NewRealClock(),
		typingTimeout: defaultTypingTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach tracks a freshly accepted transport session. The connection has no
// user until Register is called.
func (h *Hub) Attach(conn Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn.ID()]; ok {
		return
	}
	info.ConnID = conn.ID()
	h.conns[conn.ID()] = &connection{conn: conn, info: info, rooms: make(map[string]struct{})}
}

// UserOf returns the user registered on the connection, or "".
func (h *Hub) UserOf(connID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.conns[connID]; ok {
		return c.userID
	}
	return ""
}

// ConnectionCount returns the number of attached connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// emitLocked writes frame to every member of roomID except the given
// connection. Callers must hold mu.
func (h *Hub) emitLocked(roomID, event string, frame []byte, except string) int {
	sent := 0
	for connID := range h.rooms[roomID] {
		if connID == except {
			continue
		}
		if h.sendLocked(connID, event, frame) {
			sent++
		}
	}
	return sent
}

// sendLocked writes one frame to one connection. Failures are isolated to that
// connection. Callers must hold mu.
func (h *Hub) sendLocked(connID, event string, frame []byte) bool {
	c, ok := h.conns[connID]
	if !ok {
		return false
	}
	if err := c.conn.Send(frame); err != nil {
		log.Printf("websocket send failed conn_id=%s user_id=%s event=%s: %v", connID, c.userID, event, err)
		h.publishWSError(c.info, event, err)
		return false
	}
	observability.IncWSEvent(wsKind, event)
	return true
}

// broadcast forwards a local fan-out to the other nodes. Callers must hold mu
// so remote order follows local order.
func (h *Hub) broadcast(roomID, event string, frame []byte, except string) {
	if h.backbone == nil {
		return
	}
	h.backbone.Publish(Envelope{Node: h.nodeID, Room: roomID, Event: event, Except: except, Frame: frame})
}

func (h *Hub) publishWSError(info ConnInfo, event string, err error) {
	payload := wsEventPayload(info, observability.WSError, err.Error())
	payload["ws"].(map[string]interface{})["push_event"] = event
	headers := observability.BuildHeaders(info.RequestID, info.TraceID)

	observability.IncWSSendFailure(event)
	// mu is held; publish off the fan-out path.
	go func() {
		_ = observability.PublishWSEvent(context.Background(), wsKind, observability.WSError, payload, headers)
	}()
}
