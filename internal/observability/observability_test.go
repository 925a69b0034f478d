package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	err        error
	routingKey string
	headers    map[string]string
}

func (s *stubPublisher) PublishJSON(_ context.Context, routingKey string, _ interface{}, headers map[string]string) error {
	s.routingKey = routingKey
	s.headers = headers
	return s.err
}

func TestBuildHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{}, BuildHeaders("", ""))
	assert.Equal(t, map[string]string{"x-request-id": "r1", "trace_id": "t1"}, BuildHeaders("r1", "t1"))
}

func TestClientMetaFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws", nil)
	req.RemoteAddr = "10.0.0.7:5555"
	req.Header.Set("X-Request-Id", "r1")
	req.Header.Set("X-Device-Id", "steamdeck")
	assert.Equal(t, ClientMeta{RequestID: "r1", DeviceID: "steamdeck", IP: "10.0.0.7"}, ClientMetaFromRequest(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientMetaFromRequest(req).IP)

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientMetaFromRequest(req).IP)
}

func TestPublishEventWithoutPublisher(t *testing.T) {
	SetPublisher(nil)
	assert.NoError(t, PublishEvent(context.Background(), "ws_events.realtime", EventEnvelope{}, nil))
}

func TestPublishEventCountsErrors(t *testing.T) {
	stub := &stubPublisher{err: errors.New("channel closed")}
	SetPublisher(stub)
	t.Cleanup(func() { SetPublisher(nil) })

	before := testutil.ToFloat64(amqpPublishErrorsTotal)
	err := PublishEvent(context.Background(), "ws_events.realtime", EventEnvelope{EventName: "ws_connect"}, BuildHeaders("r1", ""))

	require.Error(t, err)
	assert.Equal(t, "ws_events.realtime", stub.routingKey)
	assert.Equal(t, "r1", stub.headers["x-request-id"])
	assert.Equal(t, before+1, testutil.ToFloat64(amqpPublishErrorsTotal))
}

func TestPublishWSEventCountsAndRoutes(t *testing.T) {
	stub := &stubPublisher{}
	SetPublisher(stub)
	t.Cleanup(func() { SetPublisher(nil) })

	before := testutil.ToFloat64(wsEventsTotal.WithLabelValues("realtime", WSConnect))
	require.NoError(t, PublishWSEvent(context.Background(), "realtime", WSConnect, map[string]string{"conn_id": "c1"}, nil))

	assert.Equal(t, WSRoutingKey, stub.routingKey)
	assert.Equal(t, before+1, testutil.ToFloat64(wsEventsTotal.WithLabelValues("realtime", WSConnect)))
}

func TestIncWSSendFailure(t *testing.T) {
	before := testutil.ToFloat64(wsSendFailuresTotal.WithLabelValues("new_message"))
	IncWSSendFailure("new_message")
	assert.Equal(t, before+1, testutil.ToFloat64(wsSendFailuresTotal.WithLabelValues("new_message")))
}

func TestHTTPMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(HTTPMetricsMiddleware())
	r.GET("/chats/:chat_id/messages", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := httpRequestsTotal.WithLabelValues("GET", "/chats/:chat_id/messages", "200")
	before := testutil.ToFloat64(counter)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chats/c1/messages", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	unmatched := httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before = testutil.ToFloat64(unmatched)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(unmatched))
}

func TestIncNotificationPushed(t *testing.T) {
	counter := notificationsPushedTotal.WithLabelValues("notification:new", "false")
	before := testutil.ToFloat64(counter)
	IncNotificationPushed("notification:new", false)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
