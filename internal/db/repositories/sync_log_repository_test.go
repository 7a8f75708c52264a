package repositories

import (
	"context"
	"testing"

	"lodgeworks/staysync/internal/constants"
	models "lodgeworks/staysync/internal/models/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newSyncLogRepo(t *testing.T) *SyncLogRepository {
	t.Helper()

	gdb, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.SyncLog{}))
	return NewSyncLogRepository(gdb)
}

func TestSyncLogLifecycle(t *testing.T) {
	repo := newSyncLogRepo(t)
	ctx := context.Background()

	entry, err := repo.Create(ctx, constants.SyncOpFull)
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	assert.Equal(t, constants.SyncStatusInProgress, entry.Status)

	require.NoError(t, repo.IncrementProcessed(ctx, entry.ID, 120))
	require.NoError(t, repo.IncrementProcessed(ctx, entry.ID, 30))
	require.NoError(t, repo.MarkSuccess(ctx, entry.ID))

	stored, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusSuccess, stored.Status)
	assert.Equal(t, 150, stored.RecordsProcessed)
	require.NotNil(t, stored.EndTimestamp)
}

func TestSyncLogMarkError(t *testing.T) {
	repo := newSyncLogRepo(t)
	ctx := context.Background()

	entry, err := repo.Create(ctx, constants.SyncOpIncremental)
	require.NoError(t, err)
	require.NoError(t, repo.MarkError(ctx, entry.ID, "page 3 for property p-1: remote timeout"))

	stored, err := repo.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SyncStatusError, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "page 3")
}

func TestLastSuccessfulEnd(t *testing.T) {
	repo := newSyncLogRepo(t)
	ctx := context.Background()

	got, err := repo.LastSuccessfulEnd(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := repo.Create(ctx, constants.SyncOpFull)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSuccess(ctx, first.ID))

	second, err := repo.Create(ctx, constants.SyncOpIncremental)
	require.NoError(t, err)
	require.NoError(t, repo.MarkSuccess(ctx, second.ID))

	// An in-progress run must not move the watermark.
	_, err = repo.Create(ctx, constants.SyncOpIncremental)
	require.NoError(t, err)

	got, err = repo.LastSuccessfulEnd(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	latest, err := repo.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, *latest.EndTimestamp, *got, 0)
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	repo := newSyncLogRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, constants.SyncOpIncremental)
		require.NoError(t, err)
	}

	entries, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.GreaterOrEqual(t, entries[0].ID, entries[1].ID)
}

func TestCreateErrorEntry(t *testing.T) {
	repo := newSyncLogRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateError(ctx, constants.SyncOpFull, "remote unreachable"))

	entries, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, constants.SyncStatusError, entries[0].Status)
	require.NotNil(t, entries[0].EndTimestamp)
	require.NotNil(t, entries[0].ErrorMessage)
	assert.Equal(t, "remote unreachable", *entries[0].ErrorMessage)
}
