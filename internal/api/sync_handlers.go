package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/jobs"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/models/dtos"
)

// SyncHandler exposes manual sync control and run history.
type SyncHandler struct {
	orchestrator *jobs.SyncOrchestrator
	syncLogs     *repositories.SyncLogRepository
	queue        *common.TaskQueueService
	upSince      time.Time
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	orchestrator *jobs.SyncOrchestrator,
	syncLogs *repositories.SyncLogRepository,
	queue *common.TaskQueueService,
	upSince time.Time,
) *SyncHandler {
	return &SyncHandler{
		orchestrator: orchestrator,
		syncLogs:     syncLogs,
		queue:        queue,
		upSince:      upSince,
	}
}

// TriggerSync handles POST /sync/trigger. The run is scheduled in the
// background; the request returns as soon as the run kind is decided.
func (h *SyncHandler) TriggerSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req dtos.TriggerSyncRequest
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
				respondWithError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		full := req.ForceFull || h.orchestrator.NeedsBootstrap()

		// Detached from the request context: the run outlives the response.
		go func() {
			ctx := context.Background()
			if full {
				if err := h.orchestrator.RunFull(ctx); err != nil {
					if retryErr := h.orchestrator.ScheduleBootstrapRetry(ctx); retryErr != nil {
						logging.Error("Failed to schedule bootstrap retry", "error", retryErr.Error())
					}
				}
			} else {
				if err := h.orchestrator.RunIncremental(ctx); err != nil {
					logging.Error("Triggered incremental sync failed", "error", err.Error())
				}
			}
		}()

		kind := "incremental"
		if full {
			kind = "full"
		}
		logging.Info("Sync manually triggered", "kind", kind)

		resp := dtos.TriggerSyncResponse{
			Message: fmt.Sprintf("Scheduled %s sync", kind),
		}
		respondWithSuccess(w, http.StatusAccepted, &resp)
	}
}

// SyncStatus handles GET /sync/status and returns recent run history,
// newest first. The limit query parameter caps the page, defaulting to 20.
func (h *SyncHandler) SyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > 200 {
				respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 200")
				return
			}
			limit = parsed
		}

		entries, err := h.syncLogs.Recent(r.Context(), limit)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to load sync history")
			return
		}

		views := make([]dtos.SyncLogView, 0, len(entries))
		for _, e := range entries {
			views = append(views, dtos.SyncLogView{
				ID:               e.ID,
				OperationType:    e.OperationType,
				Status:           e.Status,
				StartTimestamp:   e.StartTimestamp,
				EndTimestamp:     e.EndTimestamp,
				RecordsProcessed: e.RecordsProcessed,
				ErrorMessage:     e.ErrorMessage,
			})
		}

		respondWithSuccess(w, http.StatusOK, &views)
	}
}

// ServiceBanner handles GET /status with a coarse service overview.
func (h *SyncHandler) ServiceBanner() http.HandlerFunc {
	type banner struct {
		Service        string `json:"service"`
		Uptime         string `json:"uptime"`
		NeedsBootstrap bool   `json:"needsBootstrap"`
		QueueDepth     int64  `json:"queueDepth"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		depth, err := h.queue.Depth(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, "Failed to read queue depth")
			return
		}

		resp := banner{
			Service:        "staysync",
			Uptime:         time.Since(h.upSince).Round(time.Second).String(),
			NeedsBootstrap: h.orchestrator.NeedsBootstrap(),
			QueueDepth:     depth,
		}
		respondWithSuccess(w, http.StatusOK, &resp)
	}
}
