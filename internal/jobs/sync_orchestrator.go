package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/metrics"
	"lodgeworks/staysync/internal/models/dtos"
	"lodgeworks/staysync/internal/models/entities"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05"
)

// CatalogClient is the slice of the Beds24 client the orchestrator needs.
type CatalogClient interface {
	ListProperties(ctx context.Context) ([]dtos.Beds24Property, error)
}

// CatalogReconciler persists raw property records.
type CatalogReconciler interface {
	UpsertProperty(ctx context.Context, raw *dtos.Beds24Property) error
}

// SyncOrchestrator decides whether a bootstrap or an incremental sync is due,
// computes the modification watermark and fans out per-property tasks.
//
// Bootstrap state and watermark live in memory but are re-derived from the
// store and the sync log at startup, so a restart lands in the right state.
type SyncOrchestrator struct {
	client     CatalogClient
	reconciler CatalogReconciler
	properties *repositories.PropertyRepository
	bookings   *repositories.BookingRepository
	syncLogs   *repositories.SyncLogRepository
	queue      *common.TaskQueueService
	metrics    *metrics.MetricsRegistry
	pageSize   int

	mu             sync.Mutex
	needsBootstrap bool
	watermark      time.Time
}

// NewSyncOrchestrator creates a new sync orchestrator
func NewSyncOrchestrator(
	client CatalogClient,
	reconciler CatalogReconciler,
	properties *repositories.PropertyRepository,
	bookings *repositories.BookingRepository,
	syncLogs *repositories.SyncLogRepository,
	queue *common.TaskQueueService,
	metricsReg *metrics.MetricsRegistry,
	pageSize int,
) *SyncOrchestrator {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	return &SyncOrchestrator{
		client:     client,
		reconciler: reconciler,
		properties: properties,
		bookings:   bookings,
		syncLogs:   syncLogs,
		queue:      queue,
		metrics:    metricsReg,
		pageSize:   pageSize,
	}
}

// Init re-derives orchestrator state from the store. An empty property or
// booking table means the mirror was never populated and a bootstrap is due;
// otherwise the watermark comes from the last successful run's end time,
// falling back to 24 hours ago.
func (o *SyncOrchestrator) Init(ctx context.Context) error {
	propertyCount, err := o.properties.CountProperties(ctx)
	if err != nil {
		return fmt.Errorf("failed to count properties: %w", err)
	}
	bookingCount, err := o.bookings.CountBookings(ctx)
	if err != nil {
		return fmt.Errorf("failed to count bookings: %w", err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if propertyCount == 0 || bookingCount == 0 {
		o.needsBootstrap = true
		logging.Info("Local store needs initial population, full sync required",
			"properties", propertyCount, "bookings", bookingCount)
		return nil
	}

	o.needsBootstrap = false
	lastEnd, err := o.syncLogs.LastSuccessfulEnd(ctx)
	if err != nil {
		return fmt.Errorf("failed to read last successful sync: %w", err)
	}
	if lastEnd != nil {
		o.watermark = *lastEnd
		logging.Info("Resuming from last successful sync", "watermark", o.watermark.Format(time.RFC3339))
	} else {
		o.watermark = time.Now().Add(-constants.WatermarkFallback * time.Hour)
		logging.Info("No previous sync found, using fallback watermark",
			"watermark", o.watermark.Format(time.RFC3339))
	}
	return nil
}

// NeedsBootstrap reports whether the full sync has not completed yet.
func (o *SyncOrchestrator) NeedsBootstrap() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.needsBootstrap
}

// Watermark returns the current modified-since boundary.
func (o *SyncOrchestrator) Watermark() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.watermark
}

// RunFull executes the bootstrap path: reconcile the property catalog, then
// enqueue page 1 of a ±730-day booking window for every property. On failure
// a fresh error log entry is recorded (the in-progress entry is not mutated)
// and the error propagates to the caller for durable retry scheduling.
func (o *SyncOrchestrator) RunFull(ctx context.Context) error {
	start := time.Now()
	logging.Info("Starting full sync of all properties")

	entry, err := o.syncLogs.Create(ctx, constants.SyncOpFull)
	if err != nil {
		return fmt.Errorf("failed to create sync log entry: %w", err)
	}

	if err := o.runFullInner(ctx, entry.ID); err != nil {
		logging.Error("Full sync failed", "error", err.Error())
		if logErr := o.syncLogs.CreateError(ctx, constants.SyncOpFull, err.Error()); logErr != nil {
			logging.Error("Failed to record full sync error", "error", logErr.Error())
		}
		o.observeRun(constants.SyncOpFull, constants.SyncStatusError, start)
		return err
	}

	now := time.Now()
	o.mu.Lock()
	o.needsBootstrap = false
	o.watermark = now
	o.mu.Unlock()

	if err := o.syncLogs.MarkSuccess(ctx, entry.ID); err != nil {
		return fmt.Errorf("failed to finalize sync log entry: %w", err)
	}

	o.observeRun(constants.SyncOpFull, constants.SyncStatusSuccess, start)
	logging.Info("Completed scheduling full sync for all properties",
		"duration", time.Since(start).Truncate(time.Millisecond).String())
	return nil
}

func (o *SyncOrchestrator) runFullInner(ctx context.Context, syncLogID int64) error {
	properties, err := o.client.ListProperties(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch properties: %w", err)
	}
	logging.Debug("Fetched property catalog", "count", len(properties))

	for i := range properties {
		if err := o.reconciler.UpsertProperty(ctx, &properties[i]); err != nil {
			return err
		}
	}

	fromDate := time.Now().AddDate(0, 0, -constants.FullSyncHorizonDays).Format(dateLayout)
	toDate := time.Now().AddDate(0, 0, constants.FullSyncHorizonDays).Format(dateLayout)

	for i := range properties {
		propertyID := properties[i].RemoteID()
		if propertyID == "" {
			continue
		}
		if err := o.enqueuePageTask(ctx, syncLogID, propertyID, fromDate, toDate); err != nil {
			return fmt.Errorf("failed to schedule full sync for property %s: %w", propertyID, err)
		}
	}
	return nil
}

// ScheduleBootstrapRetry enqueues a durable delayed retry of the full sync.
// Unlike an in-process timer, the task survives a restart; a crash inside the
// retry window ends with the bootstrap check at next startup either way.
func (o *SyncOrchestrator) ScheduleBootstrapRetry(ctx context.Context) error {
	task := &entities.SyncTask{
		Kind:        constants.TaskKindBootstrap,
		Payload:     "{}",
		MaxRetries:  constants.BootstrapTaskMaxRetries,
		BackoffSecs: constants.BootstrapRetryDelaySecs,
		NextRunAt:   time.Now().Add(constants.BootstrapRetryDelaySecs * time.Second),
	}
	if err := o.queue.Enqueue(ctx, task); err != nil {
		return fmt.Errorf("failed to schedule bootstrap retry: %w", err)
	}
	logging.Info("Scheduled bootstrap retry", "delay_secs", constants.BootstrapRetryDelaySecs)
	return nil
}

// RunIncremental executes the hourly path: refresh the property catalog, then
// enqueue one incremental task per property for everything modified since the
// watermark. The watermark advances only after the catalog refresh succeeds,
// so a failed run retries the same window next hour; the at-worst duplicated
// records of a successful run are absorbed by idempotent upserts. A no-op
// while bootstrap has not completed.
func (o *SyncOrchestrator) RunIncremental(ctx context.Context) error {
	o.mu.Lock()
	if o.needsBootstrap {
		o.mu.Unlock()
		logging.Info("Skipping incremental sync, initial sync is not complete")
		return nil
	}
	o.mu.Unlock()

	start := time.Now()
	logging.Info("Starting incremental sync")

	entry, err := o.syncLogs.Create(ctx, constants.SyncOpIncremental)
	if err != nil {
		return fmt.Errorf("failed to create sync log entry: %w", err)
	}

	if err := o.runIncrementalInner(ctx, entry.ID); err != nil {
		logging.Error("Incremental sync failed", "error", err.Error())
		if logErr := o.syncLogs.MarkError(ctx, entry.ID, err.Error()); logErr != nil {
			logging.Error("Failed to record incremental sync error", "error", logErr.Error())
		}
		o.observeRun(constants.SyncOpIncremental, constants.SyncStatusError, start)
		return err
	}

	// Success means successful enqueue; task completion is asynchronous.
	if err := o.syncLogs.MarkSuccess(ctx, entry.ID); err != nil {
		return fmt.Errorf("failed to finalize sync log entry: %w", err)
	}

	o.observeRun(constants.SyncOpIncremental, constants.SyncStatusSuccess, start)
	logging.Info("Completed incremental sync for all properties",
		"duration", time.Since(start).Truncate(time.Millisecond).String())
	return nil
}

func (o *SyncOrchestrator) runIncrementalInner(ctx context.Context, syncLogID int64) error {
	properties, err := o.client.ListProperties(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch properties: %w", err)
	}
	logging.Debug("Fetched property catalog", "count", len(properties))

	// Catalog metadata may have changed since the last run.
	for i := range properties {
		if err := o.reconciler.UpsertProperty(ctx, &properties[i]); err != nil {
			return err
		}
	}

	o.mu.Lock()
	watermark := o.watermark
	o.watermark = time.Now()
	o.mu.Unlock()

	if watermark.IsZero() {
		watermark = time.Now().AddDate(0, 0, -1)
	}
	modifiedFrom := watermark.Format(timestampLayout)

	for i := range properties {
		propertyID := properties[i].RemoteID()
		if propertyID == "" {
			continue
		}
		if err := o.enqueueIncrementalTask(ctx, syncLogID, propertyID, modifiedFrom); err != nil {
			return fmt.Errorf("failed to queue sync job for property %s: %w", propertyID, err)
		}
	}
	return nil
}

func (o *SyncOrchestrator) enqueuePageTask(ctx context.Context, syncLogID int64, propertyID, fromDate, toDate string) error {
	payload, err := json.Marshal(dtos.PropertyPageTask{
		PropertyID: propertyID,
		FromDate:   fromDate,
		ToDate:     toDate,
		Page:       1,
		PageSize:   o.pageSize,
	})
	if err != nil {
		return fmt.Errorf("encode page payload: %w", err)
	}
	return o.queue.Enqueue(ctx, &entities.SyncTask{
		Kind:        constants.TaskKindPropertyPage,
		Payload:     string(payload),
		MaxRetries:  constants.PageTaskMaxRetries,
		BackoffSecs: constants.PageTaskBackoffSecs,
		SyncLogID:   syncLogID,
	})
}

func (o *SyncOrchestrator) enqueueIncrementalTask(ctx context.Context, syncLogID int64, propertyID, modifiedFrom string) error {
	payload, err := json.Marshal(dtos.PropertyIncrementalTask{
		PropertyID:   propertyID,
		ModifiedFrom: modifiedFrom,
	})
	if err != nil {
		return fmt.Errorf("encode incremental payload: %w", err)
	}
	return o.queue.Enqueue(ctx, &entities.SyncTask{
		Kind:        constants.TaskKindPropertyIncremental,
		Payload:     string(payload),
		MaxRetries:  constants.IncrementalTaskMaxRetries,
		BackoffSecs: constants.IncrementalTaskBackoffSecs,
		SyncLogID:   syncLogID,
	})
}

func (o *SyncOrchestrator) observeRun(operation, status string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.SyncRunsTotal.WithLabelValues(operation, status).Inc()
	o.metrics.SyncRunDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RunScheduled fires the incremental path on a fixed interval until the
// context is cancelled.
func (o *SyncOrchestrator) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := o.RunIncremental(ctx); err != nil {
				logging.Error("Error in scheduled incremental sync", "error", err.Error())
			}
		case <-ctx.Done():
			logging.Info("Shutting down scheduled sync")
			return
		}
	}
}
