package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lodgeworks/staysync/internal/common"
	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/models/dtos"
	models "lodgeworks/staysync/internal/models/gorm"
	"lodgeworks/staysync/internal/services"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeCatalog struct {
	properties []dtos.Beds24Property
	err        error
}

func (c *fakeCatalog) ListProperties(ctx context.Context) ([]dtos.Beds24Property, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.properties, nil
}

type orchestratorFixture struct {
	orchestrator *SyncOrchestrator
	catalog      *fakeCatalog
	gdb          *gormlib.DB
	tasks        *repositories.TaskRepository
	syncLogs     *repositories.SyncLogRepository
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	gdb, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.Property{}, &models.Room{}, &models.Booking{},
		&models.BookingDay{}, &models.SyncLog{},
	))

	sdb, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	sdb.SetMaxOpenConns(1)
	t.Cleanup(func() { sdb.Close() })

	taskRepo := repositories.NewTaskRepository(sdb)
	require.NoError(t, taskRepo.EnsureSchema(context.Background()))

	propertyRepo := repositories.NewPropertyRepository(gdb)
	bookingRepo := repositories.NewBookingRepository(gdb)
	syncLogRepo := repositories.NewSyncLogRepository(gdb)
	reconciler := services.NewReconcileService(propertyRepo, bookingRepo)
	queue := common.NewTaskQueueService(taskRepo, nil)

	catalog := &fakeCatalog{}
	orchestrator := NewSyncOrchestrator(
		catalog, reconciler, propertyRepo, bookingRepo, syncLogRepo,
		queue, nil, constants.DefaultPageSize,
	)

	return &orchestratorFixture{
		orchestrator: orchestrator,
		catalog:      catalog,
		gdb:          gdb,
		tasks:        taskRepo,
		syncLogs:     syncLogRepo,
	}
}

func seedMirror(t *testing.T, gdb *gormlib.DB) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.Property{Beds24ID: "p-1", Name: "Harbour House"}).Error)
	require.NoError(t, gdb.Create(&models.Booking{
		BookingID:  "b-1",
		PropertyID: "p-1",
		GuestName:  "Jane Doe",
		Status:     "confirmed",
		Arrival:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Departure:  time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	}).Error)
}

func TestInitEmptyStoreNeedsBootstrap(t *testing.T) {
	f := newOrchestratorFixture(t)

	require.NoError(t, f.orchestrator.Init(context.Background()))
	assert.True(t, f.orchestrator.NeedsBootstrap())
}

func TestInitResumesFromLastSuccessfulSync(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()
	seedMirror(t, f.gdb)

	entry, err := f.syncLogs.Create(ctx, constants.SyncOpFull)
	require.NoError(t, err)
	require.NoError(t, f.syncLogs.MarkSuccess(ctx, entry.ID))

	require.NoError(t, f.orchestrator.Init(ctx))
	assert.False(t, f.orchestrator.NeedsBootstrap())

	stored, err := f.syncLogs.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, *stored.EndTimestamp, f.orchestrator.Watermark(), time.Second)
}

func TestInitFallsBackWithoutSyncHistory(t *testing.T) {
	f := newOrchestratorFixture(t)
	seedMirror(t, f.gdb)

	require.NoError(t, f.orchestrator.Init(context.Background()))
	assert.False(t, f.orchestrator.NeedsBootstrap())
	assert.WithinDuration(t,
		time.Now().Add(-constants.WatermarkFallback*time.Hour),
		f.orchestrator.Watermark(), time.Minute)
}

func TestRunFullSchedulesPageTasks(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.catalog.properties = []dtos.Beds24Property{
		{PropertyID: "p-1", Name: "Harbour House"},
		{PropertyID: "p-2", Name: "City Loft"},
		{Name: "orphan without id"},
	}
	f.orchestrator.needsBootstrap = true

	require.NoError(t, f.orchestrator.RunFull(ctx))

	assert.False(t, f.orchestrator.NeedsBootstrap())
	assert.WithinDuration(t, time.Now(), f.orchestrator.Watermark(), time.Second)

	var propertyCount int64
	f.gdb.Model(&models.Property{}).Count(&propertyCount)
	assert.Equal(t, int64(2), propertyCount)

	claimed, err := f.tasks.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)

	seen := map[string]bool{}
	for _, task := range claimed {
		assert.Equal(t, constants.TaskKindPropertyPage, task.Kind)
		assert.Equal(t, constants.PageTaskMaxRetries, task.MaxRetries)
		require.NotZero(t, task.SyncLogID)

		var payload dtos.PropertyPageTask
		require.NoError(t, json.Unmarshal([]byte(task.Payload), &payload))
		assert.Equal(t, 1, payload.Page)
		assert.Equal(t, constants.DefaultPageSize, payload.PageSize)
		assert.NotEmpty(t, payload.FromDate)
		assert.NotEmpty(t, payload.ToDate)
		seen[payload.PropertyID] = true
	}
	assert.True(t, seen["p-1"])
	assert.True(t, seen["p-2"])

	entries, err := f.syncLogs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.SyncStatusSuccess, entries[0].Status)
	assert.Equal(t, constants.SyncOpFull, entries[0].OperationType)
}

func TestRunFullFailureRecordsErrorEntry(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.catalog.err = errors.New("remote unreachable")
	f.orchestrator.needsBootstrap = true

	require.Error(t, f.orchestrator.RunFull(ctx))
	assert.True(t, f.orchestrator.NeedsBootstrap())

	entries, err := f.syncLogs.Recent(ctx, 10)
	require.NoError(t, err)

	var errorEntries int
	for _, e := range entries {
		if e.Status == constants.SyncStatusError {
			errorEntries++
			require.NotNil(t, e.ErrorMessage)
			assert.Contains(t, *e.ErrorMessage, "remote unreachable")
		}
	}
	assert.Equal(t, 1, errorEntries)
}

func TestScheduleBootstrapRetryIsDelayed(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	require.NoError(t, f.orchestrator.ScheduleBootstrapRetry(ctx))

	// The retry is durable but not yet due.
	claimed, err := f.tasks.ClaimDue(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	count, err := f.tasks.CountRunnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRunIncrementalSkipsBeforeBootstrap(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.orchestrator.needsBootstrap = true
	require.NoError(t, f.orchestrator.RunIncremental(ctx))

	entries, err := f.syncLogs.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	count, err := f.tasks.CountRunnable(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRunIncrementalSchedulesTasksAndAdvancesWatermark(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.catalog.properties = []dtos.Beds24Property{
		{PropertyID: "p-1", Name: "Harbour House"},
	}
	previous := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	f.orchestrator.needsBootstrap = false
	f.orchestrator.watermark = previous

	require.NoError(t, f.orchestrator.RunIncremental(ctx))

	assert.WithinDuration(t, time.Now(), f.orchestrator.Watermark(), time.Second)

	claimed, err := f.tasks.ClaimDue(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, constants.TaskKindPropertyIncremental, claimed[0].Kind)
	assert.Equal(t, constants.IncrementalTaskMaxRetries, claimed[0].MaxRetries)

	var payload dtos.PropertyIncrementalTask
	require.NoError(t, json.Unmarshal([]byte(claimed[0].Payload), &payload))
	assert.Equal(t, "p-1", payload.PropertyID)
	assert.Equal(t, "2026-08-01T12:00:00", payload.ModifiedFrom)

	entries, err := f.syncLogs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.SyncStatusSuccess, entries[0].Status)
	assert.Equal(t, constants.SyncOpIncremental, entries[0].OperationType)
}

func TestRunIncrementalFailureKeepsWatermark(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.catalog.err = errors.New("remote unreachable")
	previous := time.Now().Add(-2 * time.Hour)
	f.orchestrator.needsBootstrap = false
	f.orchestrator.watermark = previous

	require.Error(t, f.orchestrator.RunIncremental(ctx))

	// The next run must retry the same window.
	assert.Equal(t, previous, f.orchestrator.Watermark())
}

func TestRunIncrementalFailureMarksLogEntry(t *testing.T) {
	f := newOrchestratorFixture(t)
	ctx := context.Background()

	f.catalog.err = errors.New("remote unreachable")
	f.orchestrator.needsBootstrap = false
	f.orchestrator.watermark = time.Now().Add(-time.Hour)

	require.Error(t, f.orchestrator.RunIncremental(ctx))

	entries, err := f.syncLogs.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.SyncStatusError, entries[0].Status)
	require.NotNil(t, entries[0].ErrorMessage)
}
