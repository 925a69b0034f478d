package handlers

import (
	"github.com/gin-gonic/gin"

	"realtime-service/internal/middleware"
	"realtime-service/internal/telemetry"
)

func auditRecord(c *gin.Context, level, text string, fields map[string]string) telemetry.AuditRecord {
	return telemetry.AuditRecord{
		Level:     level,
		Text:      text,
		RequestID: requestID(c),
		UserID:    c.GetString("userID"),
		Fields:    fields,
	}
}

// requestID prefers the inbound header and falls back to the id the
// RequestID middleware put on the response.
func requestID(c *gin.Context) string {
	if id := c.GetHeader(middleware.RequestIDHeader); id != "" {
		return id
	}
	return c.Writer.Header().Get(middleware.RequestIDHeader)
}
