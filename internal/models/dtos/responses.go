package dtos

import "time"

// APIResponse is the envelope for this service's own HTTP endpoints.
type APIResponse[T any] struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      *T        `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// TriggerSyncRequest is the body of POST /sync/trigger.
type TriggerSyncRequest struct {
	ForceFull bool `json:"forceFull"`
}

// TriggerSyncResponse acknowledges a scheduled sync.
type TriggerSyncResponse struct {
	Message string `json:"message"`
}

// SyncLogView is one sync run as reported by GET /sync/status.
type SyncLogView struct {
	ID               int64      `json:"id"`
	OperationType    string     `json:"operationType"`
	Status           string     `json:"status"`
	StartTimestamp   time.Time  `json:"startTimestamp"`
	EndTimestamp     *time.Time `json:"endTimestamp,omitempty"`
	RecordsProcessed int        `json:"recordsProcessed"`
	ErrorMessage     *string    `json:"errorMessage,omitempty"`
}
