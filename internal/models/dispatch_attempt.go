package models

import (
	"time"

	"github.com/google/uuid"
)

// DispatchAttempt is one row of the optional audit log: a single
// outbound call attempt and how it was classified. The router never
// reads these rows back; they exist for operators.
type DispatchAttempt struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Route       string    `gorm:"not null" json:"route"`
	Queue       string    `gorm:"not null" json:"queue"`
	ResourceID  string    `gorm:"not null" json:"resource_id"`
	Method      string    `gorm:"not null" json:"method"`
	URL         string    `gorm:"not null" json:"url"`
	AttemptNo   int       `gorm:"not null" json:"attempt_no"`
	HTTPStatus  *int      `gorm:"type:integer" json:"http_status"`
	LatencyMs   int       `gorm:"not null" json:"latency_ms"`
	Disposition string    `gorm:"not null" json:"disposition"`
	LastError   *string   `json:"last_error"`
	StartedAt   time.Time `gorm:"not null" json:"started_at"`
	FinishedAt  time.Time `gorm:"not null" json:"finished_at"`
	CreatedAt   time.Time `gorm:"default:now()" json:"created_at"`
}

func (DispatchAttempt) TableName() string {
	return "dispatch_attempts"
}
