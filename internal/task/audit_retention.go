package task

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AtorixIT/leadconsole/internal/model"
)

const (
	logEventAuditPrune      = "audit_prune"
	logFieldPrunedEntries   = "pruned"
	logFieldRetentionCutoff = "cutoff"
)

// AuditRetentionConfig bounds the audit trail's age.
type AuditRetentionConfig struct {
	RetentionDays int
}

// AuditRetentionJob prunes audit entries older than the retention window.
type AuditRetentionJob struct {
	database *gorm.DB
	logger   *zap.Logger
	config   AuditRetentionConfig
}

// NewAuditRetentionJob builds an AuditRetentionJob.
func NewAuditRetentionJob(database *gorm.DB, logger *zap.Logger, config AuditRetentionConfig) *AuditRetentionJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRetentionJob{database: database, logger: logger, config: config}
}

// Run deletes entries past the retention cutoff. A non-positive retention
// keeps everything.
func (job *AuditRetentionJob) Run(runtimeContext context.Context) error {
	if job.config.RetentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-time.Duration(job.config.RetentionDays) * 24 * time.Hour)

	result := job.database.WithContext(runtimeContext).
		Where("created_at < ?", cutoff).
		Delete(&model.AuditEntry{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		job.logger.Info(logEventAuditPrune,
			zap.Int64(logFieldPrunedEntries, result.RowsAffected),
			zap.Time(logFieldRetentionCutoff, cutoff),
		)
	}
	return nil
}
