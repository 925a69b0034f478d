package observability

import "context"

// Routing keys and event names for websocket lifecycle events.
const (
	WSRoutingKey = "ws_events.realtime"
	WSEventType  = "ws_events"

	WSConnect    = "ws_connect"
	WSDisconnect = "ws_disconnect"
	WSError      = "ws_error"
)

// EventEnvelope is the body of every non-audit event put on the bus.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// BuildHeaders returns the correlation headers for a published event. Empty
// values are left out.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// PublishWSEvent publishes one websocket lifecycle event and counts it.
func PublishWSEvent(ctx context.Context, kind, name string, payload interface{}, headers map[string]string) error {
	IncWSEvent(kind, name)
	return PublishEvent(ctx, WSRoutingKey, EventEnvelope{
		EventType: WSEventType,
		EventName: name,
		Payload:   payload,
	}, headers)
}
