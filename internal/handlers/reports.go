package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

// ReportHandler accepts moderation reports and alerts online staff.
type ReportHandler struct {
	reportRepo repositories.ReportRepository
	hub        Realtime
	audit      *telemetry.AuditEmitter
}

// NewReportHandler builds a ReportHandler.
func NewReportHandler(reportRepo repositories.ReportRepository, hub Realtime, audit *telemetry.AuditEmitter) *ReportHandler {
	return &ReportHandler{reportRepo: reportRepo, hub: hub, audit: audit}
}

// FileReport stores a report and pushes report_filed to the admin room.
func (h *ReportHandler) FileReport(c *gin.Context) {
	var req struct {
		TargetType string `json:"targetType" binding:"required,oneof=user message chat forum_post"`
		TargetID   string `json:"targetId" binding:"required"`
		Reason     string `json:"reason" binding:"required,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	report, err := h.reportRepo.Create(ctx, models.Report{
		ReporterID: c.GetString("userID"),
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to file report"})
		return
	}

	h.hub.NotifyAdmins(ws.EventReportFiled, report)
	h.audit.Emit(ctx, auditRecord(c, "INFO", "report filed", map[string]string{
		"report_id":   report.ID,
		"target_type": report.TargetType,
		"target_id":   report.TargetID,
	}))
	c.JSON(http.StatusCreated, gin.H{"report": report})
}
