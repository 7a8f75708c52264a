package entities

import "time"

// SyncTask is one durable unit of sync work. Rows survive restarts; a task is
// claimed by exactly one worker at a time and re-queued with a delay when it
// fails before its retry budget is spent.
type SyncTask struct {
	ID          string     `db:"id"`           // UUID
	Kind        string     `db:"kind"`         // constants.TaskKind*
	Payload     string     `db:"payload"`      // JSON, shape depends on Kind
	Status      string     `db:"status"`       // constants.TaskStatus*
	RetryCount  int        `db:"retry_count"`
	MaxRetries  int        `db:"max_retries"`
	BackoffSecs int        `db:"backoff_secs"` // initial exponential backoff delay
	NextRunAt   time.Time  `db:"next_run_at"`
	LastError   *string    `db:"last_error"`
	SyncLogID   int64      `db:"sync_log_id"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
