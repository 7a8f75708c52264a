package constants

// Sync operation types recorded in the sync_log table
const (
	SyncOpFull        = "full"
	SyncOpIncremental = "incremental"
)

// Sync run statuses
const (
	SyncStatusInProgress = "in_progress"
	SyncStatusSuccess    = "success"
	SyncStatusError      = "error"
)

// Task kinds executed by the queue workers
const (
	TaskKindPropertyPage        = "fetch-property-page"
	TaskKindPropertyIncremental = "fetch-property-incremental"
	TaskKindBootstrap           = "bootstrap-full-sync"
)

// Task statuses in the sync_tasks table
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusRetry     = "retry"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// Pagination and horizon bounds for full syncs
const (
	DefaultPageSize = 500
	// MaxSyncPages caps pagination depth so a misbehaving remote cannot
	// keep a property's page chain alive forever.
	MaxSyncPages = 100
	// FullSyncHorizonDays bounds the booking history window on both sides.
	FullSyncHorizonDays = 730
)

// Retry policies carried by each task kind
const (
	PageTaskMaxRetries         = 5
	PageTaskBackoffSecs        = 10
	IncrementalTaskMaxRetries  = 3
	IncrementalTaskBackoffSecs = 5
	BootstrapTaskMaxRetries    = 3
	BootstrapRetryDelaySecs    = 60
)

// Fallback values applied during reconciliation
const (
	UnknownGuestName  = "Unknown Guest"
	UnknownRoomID     = "Unknown Room ID"
	UnnamedProperty   = "Unnamed Property"
	UnnamedRoom       = "Unnamed Room"
	UnknownStatus     = "unknown"
	WatermarkFallback = 24 // hours back when no successful sync log exists
)
