package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"realtime-service/internal/observability"
)

const wsKind = "realtime"

var errMissingToken = errors.New("missing token")

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// WebSocketHandler upgrades authenticated requests and binds them to the hub.
type WebSocketHandler struct {
	hub        *Hub
	dispatcher *Dispatcher
	tokens     TokenValidator
	sendBuffer int
}

// NewWebSocketHandler constructs a WebSocketHandler.
func NewWebSocketHandler(hub *Hub, dispatcher *Dispatcher, tokens TokenValidator, sendBuffer int) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, dispatcher: dispatcher, tokens: tokens, sendBuffer: sendBuffer}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, registers the token's user and starts the pumps.
func (h *WebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("realtime-service/ws").Start(c.Request.Context(), "ws.handshake",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	userID, err := h.authenticate(c)
	if err != nil {
		span.SetStatus(codes.Error, "unauthenticated")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		return
	}
	client := NewClient(conn, h.sendBuffer)
	span.SetAttributes(
		attribute.String("ws.conn_id", client.ID()),
		attribute.String("enduser.id", userID),
	)

	traceID := span.SpanContext().TraceID().String()
	meta := observability.ClientMetaFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      client.ID(),
		UserID:      userID,
		DeviceID:    meta.DeviceID,
		IP:          meta.IP,
		RequestID:   meta.RequestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	// The request context ends once the handler returns; the session outlives it.
	connCtx := context.WithoutCancel(ctx)
	headers := observability.BuildHeaders(meta.RequestID, traceID)

	h.hub.Attach(client, info)
	if err := h.hub.Register(ctx, client.ID(), userID); err != nil {
		log.Printf("websocket register failed conn_id=%s user_id=%s: %v", client.ID(), userID, err)
		_ = client.Close()
		h.hub.Unregister(client.ID())
		return
	}
	if frame, err := encodeFrame(EventConnected, connectedPayload{ConnectionID: client.ID()}); err == nil {
		_ = client.Send(frame)
	}

	observability.IncWSActive(wsKind)
	_ = observability.PublishWSEvent(connCtx, wsKind, observability.WSConnect, wsEventPayload(info, observability.WSConnect, ""), headers)

	client.Run(
		func(raw []byte) {
			if err := h.dispatcher.Dispatch(connCtx, client.ID(), raw); err != nil {
				log.Printf("websocket dispatch failed conn_id=%s user_id=%s: %v", client.ID(), userID, err)
				observability.IncWSEvent(wsKind, "dispatch_error")
			}
		},
		func(readErr error) {
			h.hub.Unregister(client.ID())
			observability.DecWSActive(wsKind)

			reason := ""
			if readErr != nil {
				reason = readErr.Error()
			}
			if readErr != nil && websocket.IsUnexpectedCloseError(readErr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				_ = observability.PublishWSEvent(connCtx, wsKind, observability.WSError, wsEventPayload(info, observability.WSError, reason), headers)
			}
			_ = observability.PublishWSEvent(connCtx, wsKind, observability.WSDisconnect, wsEventPayload(info, observability.WSDisconnect, reason), headers)
		},
	)
}

func (h *WebSocketHandler) authenticate(c *gin.Context) (string, error) {
	token := c.Query("token")
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", errMissingToken
		}
		token = parts[1]
	}
	if token == "" {
		return "", errMissingToken
	}
	return h.tokens.ValidateToken(token)
}

func wsEventPayload(info ConnInfo, event, reason string) map[string]interface{} {
	duration := int64(0)
	if event != observability.WSConnect {
		duration = time.Since(info.ConnectedAt).Milliseconds()
	}
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        wsKind,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
