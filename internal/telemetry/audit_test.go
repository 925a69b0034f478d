package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	routingKey string
	events     []any
}

func (c *capturePublisher) Publish(_ context.Context, routingKey string, event any) error {
	c.routingKey = routingKey
	c.events = append(c.events, event)
	return nil
}

func TestAuditEmitterBuildsEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	emitter := NewAuditEmitter(pub, "audit.realtime", "realtime-service", "test")
	emitter.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	emitter.Emit(context.Background(), AuditRecord{
		Level:     "info",
		Text:      "report filed",
		RequestID: "req-1",
		UserID:    "u1",
		Fields:    map[string]string{"report_id": "r1"},
	})

	require.Len(t, pub.events, 1)
	env, ok := pub.events[0].(AuditEnvelope)
	require.True(t, ok)
	assert.Equal(t, "audit.realtime", pub.routingKey)
	assert.Equal(t, "audit_log", env.EventType)
	assert.Equal(t, "2024-05-01T12:00:00Z", env.OccurredAt)
	assert.Equal(t, "realtime-service", env.Service)
	assert.Equal(t, "req-1", env.RequestID)
	require.NotNil(t, env.UserID)
	assert.Equal(t, "u1", *env.UserID)
	assert.Equal(t, "r1", env.Payload.Fields["report_id"])
}

func TestAuditEmitterOmitsAnonymousUser(t *testing.T) {
	pub := &capturePublisher{}
	NewAuditEmitter(pub, "audit.realtime", "realtime-service", "test").Emit(context.Background(), AuditRecord{Level: "info", Text: "x"})

	require.Len(t, pub.events, 1)
	assert.Nil(t, pub.events[0].(AuditEnvelope).UserID)
}

func TestAuditEmitterNilSafe(t *testing.T) {
	var emitter *AuditEmitter
	assert.NotPanics(t, func() { emitter.Emit(context.Background(), AuditRecord{Level: "info", Text: "x"}) })

	assert.NotPanics(t, func() {
		NewAuditEmitter(nil, "k", "s", "e").Emit(context.Background(), AuditRecord{Level: "info", Text: "x"})
	})
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "realtime-service", "", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
