package models

import "time"

// Report is a moderation report filed by a user.
type Report struct {
	ID         string    `db:"id" json:"_id"`
	ReporterID string    `db:"reporter_id" json:"reporter"`
	TargetType string    `db:"target_type" json:"targetType"`
	TargetID   string    `db:"target_id" json:"targetId"`
	Reason     string    `db:"reason" json:"reason"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}
