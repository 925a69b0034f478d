package ws

import (
	"errors"
	"time"
)

var (
	ErrSendBufferFull    = errors.New("send buffer full")
	ErrConnClosed        = errors.New("connection closed")
	ErrUnknownConnection = errors.New("unknown connection")
)

// Conn is one live realtime transport session as seen by the hub.
// Send must not block: it either queues the frame or fails.
type Conn interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

// ConnInfo is what the hub knows about a connection beyond its transport:
// who owns it and where it came from. It feeds lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
