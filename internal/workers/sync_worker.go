package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/metrics"
	"lodgeworks/staysync/internal/models/dtos"
	"lodgeworks/staysync/internal/models/entities"

	"golang.org/x/sync/errgroup"
)

// RemoteClient is the slice of the Beds24 client the workers need.
type RemoteClient interface {
	ListBookingsForProperty(ctx context.Context, propertyID string, fromDate, toDate string, page, pageSize int) (*dtos.BookingsResult, error)
	ListRecentBookings(ctx context.Context, propertyID string, modifiedFrom string) ([]dtos.Beds24Booking, error)
}

// Reconciler persists raw booking records.
type Reconciler interface {
	UpsertBooking(ctx context.Context, propertyID string, raw *dtos.Beds24Booking) error
}

// BootstrapRunner re-runs the full sync path for durable bootstrap retries.
type BootstrapRunner interface {
	RunFull(ctx context.Context) error
}

// Each remote call and persistence transaction inside a task runs under this
// deadline so a stalled task cannot hold a worker indefinitely.
const taskTimeout = 5 * time.Minute

// SyncWorker executes durable sync tasks from the queue. Multiple workers run
// concurrently; ordering is only guaranteed within one property's pagination
// chain, because page N+1 is enqueued only after page N reconciled.
type SyncWorker struct {
	workerID   string
	client     RemoteClient
	reconciler Reconciler
	bootstrap  BootstrapRunner
	tasks      *repositories.TaskRepository
	syncLogs   *repositories.SyncLogRepository
	queue      *common.TaskQueueService
	metrics    *metrics.MetricsRegistry

	pollInterval time.Duration
}

// NewSyncWorker creates a new sync queue worker
func NewSyncWorker(
	workerID string,
	client RemoteClient,
	reconciler Reconciler,
	tasks *repositories.TaskRepository,
	syncLogs *repositories.SyncLogRepository,
	queue *common.TaskQueueService,
	metricsReg *metrics.MetricsRegistry,
) *SyncWorker {
	return &SyncWorker{
		workerID:     workerID,
		client:       client,
		reconciler:   reconciler,
		tasks:        tasks,
		syncLogs:     syncLogs,
		queue:        queue,
		metrics:      metricsReg,
		pollInterval: 2 * time.Second,
	}
}

// SetBootstrapRunner wires the orchestrator in after construction; the
// orchestrator itself needs the queue, so the two are built in sequence.
func (w *SyncWorker) SetBootstrapRunner(runner BootstrapRunner) {
	w.bootstrap = runner
}

// Start runs numWorkers claim loops until the context is cancelled. Tasks
// stranded in running by a previous crash are returned to the queue first.
func (w *SyncWorker) Start(ctx context.Context, numWorkers int) error {
	requeued, err := w.tasks.RequeueStale(ctx)
	if err != nil {
		return fmt.Errorf("failed to requeue stale tasks: %w", err)
	}
	if requeued > 0 {
		logging.Info("Requeued stale tasks from previous run", "count", requeued)
	}

	logging.Info("Starting sync workers", "count", numWorkers, "worker_id", w.workerID)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numWorkers; i++ {
		name := fmt.Sprintf("%s-%d", w.workerID, i)
		g.Go(func() error {
			w.runLoop(gctx, name)
			return nil
		})
	}
	return g.Wait()
}

func (w *SyncWorker) runLoop(ctx context.Context, name string) {
	logging.Info("Worker started", "worker", name)
	for {
		select {
		case <-ctx.Done():
			logging.Info("Worker shutting down", "worker", name)
			return
		default:
		}

		claimed, err := w.tasks.ClaimDue(ctx, 1)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logging.Error("Failed to claim tasks", "worker", name, "error", err.Error())
			time.Sleep(w.pollInterval)
			continue
		}
		if len(claimed) == 0 {
			w.awaitWork(ctx)
			continue
		}

		for i := range claimed {
			w.processTask(ctx, &claimed[i])
		}
	}
}

// awaitWork blocks until a wake signal arrives or the poll interval elapses.
// AwaitWake returns immediately when Redis is unavailable or unconfigured, so
// the unused portion of the interval is slept out here to keep the fallback
// polling paced.
func (w *SyncWorker) awaitWork(ctx context.Context) {
	start := time.Now()
	if w.queue.AwaitWake(ctx, w.pollInterval) {
		return
	}
	remaining := w.pollInterval - time.Since(start)
	if remaining <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(remaining):
	}
}

// processTask runs one task and settles it: completed on success, retry with
// backoff while budget remains, failed plus sync-log error on exhaustion.
func (w *SyncWorker) processTask(ctx context.Context, task *entities.SyncTask) {
	start := time.Now()
	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	err := w.handleTask(taskCtx, task)
	if w.metrics != nil {
		w.metrics.TaskDuration.WithLabelValues(task.Kind).Observe(time.Since(start).Seconds())
	}
	if err == nil {
		if markErr := w.tasks.MarkCompleted(ctx, task.ID); markErr != nil {
			logging.Error("Failed to mark task completed", "task_id", task.ID, "error", markErr.Error())
		}
		return
	}

	w.retryOrFail(ctx, task, err)
}

func (w *SyncWorker) handleTask(ctx context.Context, task *entities.SyncTask) error {
	switch task.Kind {
	case constants.TaskKindPropertyPage:
		var payload dtos.PropertyPageTask
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("malformed page task payload: %w", err)
		}
		return w.processPropertyPage(ctx, task, &payload)
	case constants.TaskKindPropertyIncremental:
		var payload dtos.PropertyIncrementalTask
		if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
			return fmt.Errorf("malformed incremental task payload: %w", err)
		}
		return w.processIncremental(ctx, task, &payload)
	case constants.TaskKindBootstrap:
		if w.bootstrap == nil {
			return fmt.Errorf("no bootstrap runner configured")
		}
		return w.bootstrap.RunFull(ctx)
	default:
		return fmt.Errorf("unknown task kind: %s", task.Kind)
	}
}

// processPropertyPage fetches one full-sync page, reconciles it and enqueues
// the continuation while more pages exist and the page ceiling is not hit.
func (w *SyncWorker) processPropertyPage(ctx context.Context, task *entities.SyncTask, payload *dtos.PropertyPageTask) error {
	log := logging.WithSync(constants.SyncOpFull, payload.PropertyID, payload.Page)
	log.Debug("Processing full sync page")

	result, err := w.client.ListBookingsForProperty(ctx,
		payload.PropertyID, payload.FromDate, payload.ToDate, payload.Page, payload.PageSize)
	if err != nil {
		return fmt.Errorf("page %d for property %s: %w", payload.Page, payload.PropertyID, err)
	}

	if len(result.Bookings) == 0 {
		log.Debug("No bookings on page")
		return nil
	}

	for i := range result.Bookings {
		if err := w.reconciler.UpsertBooking(ctx, payload.PropertyID, &result.Bookings[i]); err != nil {
			return fmt.Errorf("page %d for property %s: %w", payload.Page, payload.PropertyID, err)
		}
	}

	if err := w.syncLogs.IncrementProcessed(ctx, task.SyncLogID, len(result.Bookings)); err != nil {
		return fmt.Errorf("page %d for property %s: %w", payload.Page, payload.PropertyID, err)
	}
	if w.metrics != nil {
		w.metrics.RecordsProcessedTotal.Add(float64(len(result.Bookings)))
	}

	if result.HasNextPage && payload.Page < constants.MaxSyncPages {
		next := *payload
		next.Page = payload.Page + 1
		if err := w.enqueuePage(ctx, task.SyncLogID, &next); err != nil {
			return fmt.Errorf("page %d for property %s: %w", payload.Page, payload.PropertyID, err)
		}
	}

	log.Debug("Processed full sync page", "records", len(result.Bookings))
	return nil
}

// processIncremental fetches everything modified since the watermark for one
// property. The remote returns a bounded window, so there is no continuation.
func (w *SyncWorker) processIncremental(ctx context.Context, task *entities.SyncTask, payload *dtos.PropertyIncrementalTask) error {
	log := logging.WithSync(constants.SyncOpIncremental, payload.PropertyID, 0)
	log.Debug("Processing incremental sync", "modified_from", payload.ModifiedFrom)

	bookings, err := w.client.ListRecentBookings(ctx, payload.PropertyID, payload.ModifiedFrom)
	if err != nil {
		return fmt.Errorf("incremental fetch for property %s: %w", payload.PropertyID, err)
	}
	if len(bookings) == 0 {
		return nil
	}

	for i := range bookings {
		if err := w.reconciler.UpsertBooking(ctx, payload.PropertyID, &bookings[i]); err != nil {
			return fmt.Errorf("incremental fetch for property %s: %w", payload.PropertyID, err)
		}
	}

	if err := w.syncLogs.IncrementProcessed(ctx, task.SyncLogID, len(bookings)); err != nil {
		return fmt.Errorf("incremental fetch for property %s: %w", payload.PropertyID, err)
	}
	if w.metrics != nil {
		w.metrics.RecordsProcessedTotal.Add(float64(len(bookings)))
	}

	log.Debug("Processed incremental sync", "records", len(bookings))
	return nil
}

func (w *SyncWorker) enqueuePage(ctx context.Context, syncLogID int64, payload *dtos.PropertyPageTask) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode page payload: %w", err)
	}
	return w.queue.Enqueue(ctx, &entities.SyncTask{
		Kind:        constants.TaskKindPropertyPage,
		Payload:     string(data),
		MaxRetries:  constants.PageTaskMaxRetries,
		BackoffSecs: constants.PageTaskBackoffSecs,
		SyncLogID:   syncLogID,
	})
}

// retryOrFail re-queues a failed task with exponential backoff, or settles it
// as failed and stamps the owning sync log entry once the budget is spent.
// A failed page stops its chain: later pages are never enqueued.
func (w *SyncWorker) retryOrFail(ctx context.Context, task *entities.SyncTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= task.MaxRetries {
		logging.Error("Task failed permanently",
			"task_id", task.ID, "kind", task.Kind, "attempts", attempt, "error", cause.Error())

		if err := w.tasks.MarkFailed(ctx, task.ID, cause.Error()); err != nil {
			logging.Error("Failed to mark task failed", "task_id", task.ID, "error", err.Error())
		}
		if task.SyncLogID != 0 {
			if err := w.syncLogs.MarkError(ctx, task.SyncLogID, cause.Error()); err != nil {
				logging.Error("Failed to mark sync log error", "sync_log_id", task.SyncLogID, "error", err.Error())
			}
		}
		w.queue.PushDeadLetter(ctx, task)
		if w.metrics != nil {
			w.metrics.TasksFailedTotal.WithLabelValues(task.Kind).Inc()
		}
		return
	}

	policy := RetryPolicy{
		MaxRetries:   task.MaxRetries,
		InitialDelay: time.Duration(task.BackoffSecs) * time.Second,
	}
	nextRun := time.Now().Add(policy.NextDelay(attempt))

	logging.Warn("Task failed, scheduling retry",
		"task_id", task.ID, "kind", task.Kind, "attempt", attempt,
		"next_run_at", nextRun.Format(time.RFC3339), "error", cause.Error())

	if err := w.tasks.MarkRetry(ctx, task.ID, cause.Error(), nextRun); err != nil {
		logging.Error("Failed to mark task for retry", "task_id", task.ID, "error", err.Error())
	}
	if w.metrics != nil {
		w.metrics.TasksRetriedTotal.WithLabelValues(task.Kind).Inc()
	}
}
