package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"realtime-service/internal/models"
)

// ReportRepository stores moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report models.Report) (models.Report, error)
}

// ReportRepo is a sqlx implementation of ReportRepository.
type ReportRepo struct {
	db *sqlx.DB
}

// NewReportRepo constructs a ReportRepo.
func NewReportRepo(db *sqlx.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

func (r *ReportRepo) Create(ctx context.Context, report models.Report) (models.Report, error) {
	var created models.Report
	err := r.db.GetContext(ctx, &created, `INSERT INTO reports (reporter_id, target_type, target_id, reason)
        VALUES ($1, $2, $3, $4) RETURNING id, reporter_id, target_type, target_id, reason, created_at`,
		report.ReporterID, report.TargetType, report.TargetID, report.Reason)
	return created, err
}
