// Package audit keeps a local trail of admin actions. The trail is a
// convenience record for the console operator; lead data itself lives in
// the backend, so entries carry identifiers and counts, never lead content.
package audit

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AtorixIT/leadconsole/internal/model"
	"github.com/AtorixIT/leadconsole/internal/storage"
)

// Actions recorded by the admin console.
const (
	ActionLoginSucceeded         = "login_succeeded"
	ActionLoginFailed            = "login_failed"
	ActionLogout                 = "logout"
	ActionSubmissionDeleted      = "submission_deleted"
	ActionSubmissionsBulkDeleted = "submissions_bulk_deleted"
	ActionSubmissionsExported    = "submissions_exported"
)

const logEventAuditWrite = "audit_write"

// Recorder appends audit entries. Recording is best effort: a write failure
// is logged and never surfaces to the operator's request.
type Recorder struct {
	database *gorm.DB
	logger   *zap.Logger
}

// NewRecorder builds a Recorder. A nil database yields a recorder that
// drops entries, which keeps the console usable without a local database.
func NewRecorder(database *gorm.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{database: database, logger: logger}
}

// Record appends one entry to the trail.
func (recorder *Recorder) Record(requestContext context.Context, action string, detail string) {
	if recorder == nil || recorder.database == nil {
		return
	}

	entry := model.AuditEntry{
		ID:     storage.NewID(),
		Action: action,
		Detail: detail,
	}
	if writeErr := recorder.database.WithContext(requestContext).Create(&entry).Error; writeErr != nil {
		recorder.logger.Warn(logEventAuditWrite,
			zap.String("action", action),
			zap.Error(writeErr),
		)
	}
}
