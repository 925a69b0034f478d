package telemetry

import (
	"context"
	"log"
	"time"
)

const auditSchemaVersion = 1

// Publisher is the part of the event bus the audit emitter needs.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// AuditRecord is one audit entry as produced by a handler.
type AuditRecord struct {
	Level     string
	Text      string
	RequestID string
	UserID    string
	Fields    map[string]string
}

// AuditEnvelope is the wire form of an AuditRecord.
type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserID        *string      `json:"user_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level  string            `json:"level"`
	Text   string            `json:"text"`
	Fields map[string]string `json:"fields,omitempty"`
}

// AuditEmitter stamps records with service identity and puts them on the bus.
// A nil emitter, or one without a publisher, drops everything.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Emit publishes rec. Failures are logged, never returned.
func (e *AuditEmitter) Emit(ctx context.Context, rec AuditRecord) {
	if e == nil || e.publisher == nil {
		return
	}

	log.Printf("audit emit: level=%s request_id=%s user_id=%s text=%q", rec.Level, rec.RequestID, rec.UserID, rec.Text)
	if err := e.publisher.Publish(ctx, e.routingKey, e.envelope(rec)); err != nil {
		log.Printf("audit publish failed routing_key=%s: %v", e.routingKey, err)
	}
}

func (e *AuditEmitter) envelope(rec AuditRecord) AuditEnvelope {
	env := AuditEnvelope{
		SchemaVersion: auditSchemaVersion,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     rec.RequestID,
		Payload:       AuditPayload{Level: rec.Level, Text: rec.Text, Fields: rec.Fields},
	}
	if rec.UserID != "" {
		userID := rec.UserID
		env.UserID = &userID
	}
	return env
}
