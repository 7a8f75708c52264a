package gorm

import "time"

// SyncLog records the lifecycle of one sync run. Created in_progress at run
// start, finalized to success or error at run end. RecordsProcessed is only
// ever touched through atomic increments because tasks complete concurrently.
type SyncLog struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement"`
	OperationType    string     `gorm:"column:operation_type;type:varchar(20);not null"`
	Status           string     `gorm:"column:status;type:varchar(20);not null"`
	StartTimestamp   time.Time  `gorm:"column:start_timestamp;autoCreateTime"`
	EndTimestamp     *time.Time `gorm:"column:end_timestamp"`
	RecordsProcessed int        `gorm:"column:records_processed;default:0"`
	ErrorMessage     *string    `gorm:"column:error_message;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (SyncLog) TableName() string {
	return "sync_log"
}
