// Package audit persists one row per outbound dispatch attempt so
// operators can inspect routing outcomes after the fact. The router
// never reads these rows back; a recording failure is logged and
// otherwise ignored so the audit trail can never affect message
// processing.
package audit

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/adam-vessey/Alpaca/internal/models"
)

// Recorder writes dispatch attempts to the audit database.
type Recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewRecorder creates a recorder backed by the given database.
func NewRecorder(db *gorm.DB, logger *zap.Logger) *Recorder {
	return &Recorder{
		db:     db,
		logger: logger,
	}
}

// Record inserts one attempt row. Safe on a nil recorder.
func (r *Recorder) Record(attempt *models.DispatchAttempt) {
	if r == nil || r.db == nil {
		return
	}

	if err := r.db.Create(attempt).Error; err != nil {
		r.logger.Warn("Failed to record dispatch attempt",
			zap.String("route", attempt.Route),
			zap.String("resource_id", attempt.ResourceID),
			zap.Error(err),
		)
	}
}

// Recent returns attempt rows ordered newest first. It fetches one
// extra row so callers can report whether more are available.
func (r *Recorder) Recent(limit, offset int) ([]models.DispatchAttempt, bool, error) {
	var attempts []models.DispatchAttempt

	err := r.db.
		Order("created_at DESC").
		Limit(limit + 1).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := len(attempts) > limit
	if hasMore {
		attempts = attempts[:limit]
	}
	return attempts, hasMore, nil
}
