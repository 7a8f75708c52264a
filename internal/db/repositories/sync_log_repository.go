package repositories

import (
	"context"
	"errors"
	"time"

	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// SyncLogRepository handles the sync_log audit table.
type SyncLogRepository struct {
	db *gormlib.DB
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *gormlib.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Create opens a new in-progress run entry and returns it with its id set.
func (r *SyncLogRepository) Create(ctx context.Context, operationType string) (*gorm.SyncLog, error) {
	entry := &gorm.SyncLog{
		OperationType:  operationType,
		Status:         constants.SyncStatusInProgress,
		StartTimestamp: time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// CreateError records a run that failed before a log entry could usefully
// track progress (bootstrap failures create a fresh error entry rather than
// mutating the in-progress one).
func (r *SyncLogRepository) CreateError(ctx context.Context, operationType, message string) error {
	now := time.Now()
	entry := &gorm.SyncLog{
		OperationType:  operationType,
		Status:         constants.SyncStatusError,
		StartTimestamp: now,
		EndTimestamp:   &now,
		ErrorMessage:   &message,
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// MarkSuccess finalizes a run entry and stamps its end time.
func (r *SyncLogRepository) MarkSuccess(ctx context.Context, id int64) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&gorm.SyncLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        constants.SyncStatusSuccess,
			"end_timestamp": now,
		}).Error
}

// MarkError finalizes a run entry with the causal message.
func (r *SyncLogRepository) MarkError(ctx context.Context, id int64, message string) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&gorm.SyncLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        constants.SyncStatusError,
			"end_timestamp": now,
			"error_message": message,
		}).Error
}

// IncrementProcessed adds n to the records-processed counter. The increment
// happens in SQL so concurrent task completions never lose updates.
func (r *SyncLogRepository) IncrementProcessed(ctx context.Context, id int64, n int) error {
	return r.db.WithContext(ctx).
		Model(&gorm.SyncLog{}).
		Where("id = ?", id).
		UpdateColumn("records_processed", gormlib.Expr("records_processed + ?", n)).Error
}

// LastSuccessfulEnd returns the end time of the most recent successful run,
// nil when no run has succeeded yet.
func (r *SyncLogRepository) LastSuccessfulEnd(ctx context.Context) (*time.Time, error) {
	var entry gorm.SyncLog
	err := r.db.WithContext(ctx).
		Where("status = ?", constants.SyncStatusSuccess).
		Order("end_timestamp DESC").
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry.EndTimestamp, nil
}

// Get returns one run entry by id.
func (r *SyncLogRepository) Get(ctx context.Context, id int64) (*gorm.SyncLog, error) {
	var entry gorm.SyncLog
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// Recent returns the latest run entries, newest first.
func (r *SyncLogRepository) Recent(ctx context.Context, limit int) ([]gorm.SyncLog, error) {
	var entries []gorm.SyncLog
	q := r.db.WithContext(ctx).Order("start_timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
