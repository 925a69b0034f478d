package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/telemetry"
)

func TestPresenceOnline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := new(mocks.HubMock)
	hub.On("IsOnline", "bob").Return(true).Once()
	r := gin.New()
	r.GET("/users/:user_id/online", NewPresenceHandler(hub).Online)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/users/bob/online", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":"bob","online":true}`, rec.Body.String())
	hub.AssertExpectations(t)
}

func TestDebugRoutesDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDebugRoutes(r, nil, false)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugAuditTest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	publisher := &recordingAuditPublisher{}
	r := gin.New()
	RegisterDebugRoutes(r, telemetry.NewAuditEmitter(publisher, "audit.realtime", "realtime-service", "test"), true)

	req := httptest.NewRequest(http.MethodGet, "/debug/audit-test", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := serve(r, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "req-1", publisher.events[0].(telemetry.AuditEnvelope).RequestID)
}

type recordingAuditPublisher struct {
	events []any
}

func (p *recordingAuditPublisher) Publish(_ context.Context, _ string, event any) error {
	p.events = append(p.events, event)
	return nil
}
