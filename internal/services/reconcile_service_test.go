package services

import (
	"context"
	"testing"

	"lodgeworks/staysync/internal/db/repositories"
	models "lodgeworks/staysync/internal/models/gorm"
	"lodgeworks/staysync/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	gormlib "gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*ReconcileService, *gormlib.DB) {
	t.Helper()

	gdb, err := gormlib.Open(sqlite.Open(":memory:"), &gormlib.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.Property{}, &models.Room{}, &models.Booking{}, &models.BookingDay{},
	))

	svc := NewReconcileService(
		repositories.NewPropertyRepository(gdb),
		repositories.NewBookingRepository(gdb),
	)
	return svc, gdb
}

func TestUpsertPropertyWithRooms(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	raw := &dtos.Beds24Property{
		Beds24ID: "p-1",
		Name:     "Harbour House",
		Rooms: []dtos.Beds24Room{
			{ID: 11, Name: "Standard"},
			{ID: 12, Name: "Deluxe"},
		},
	}
	require.NoError(t, svc.UpsertProperty(ctx, raw))

	var propertyCount, roomCount int64
	gdb.Model(&models.Property{}).Count(&propertyCount)
	gdb.Model(&models.Room{}).Count(&roomCount)
	assert.Equal(t, int64(1), propertyCount)
	assert.Equal(t, int64(2), roomCount)

	// Re-upserting the same property must update, not duplicate.
	raw.Name = "Harbour House Renamed"
	require.NoError(t, svc.UpsertProperty(ctx, raw))

	gdb.Model(&models.Property{}).Count(&propertyCount)
	assert.Equal(t, int64(1), propertyCount)

	var stored models.Property
	require.NoError(t, gdb.Where("beds24_id = ?", "p-1").First(&stored).Error)
	assert.Equal(t, "Harbour House Renamed", stored.Name)
}

func TestUpsertPropertySkipsMissingID(t *testing.T) {
	svc, gdb := newTestService(t)

	require.NoError(t, svc.UpsertProperty(context.Background(), &dtos.Beds24Property{
		Name: "No Key",
	}))

	var count int64
	gdb.Model(&models.Property{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUpsertBookingReplacesDays(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	raw := &dtos.Beds24Booking{
		ID:        9001,
		Arrival:   "2026-01-01",
		Departure: "2026-01-04",
		Price:     flexPtr(300),
	}
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))

	var dayCount int64
	gdb.Model(&models.BookingDay{}).Count(&dayCount)
	assert.Equal(t, int64(3), dayCount)

	// Shorter stay on re-sync: stale day rows must not survive.
	raw.Departure = "2026-01-03"
	raw.Price = flexPtr(200)
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))

	var bookingCount int64
	gdb.Model(&models.Booking{}).Count(&bookingCount)
	assert.Equal(t, int64(1), bookingCount)

	var days []models.BookingDay
	require.NoError(t, gdb.Order("date").Find(&days).Error)
	require.Len(t, days, 2)
	assert.Equal(t, 100.0, days[0].Revenue)
	assert.Equal(t, 100.0, days[1].Revenue)
}

func TestUpsertBookingIdempotent(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	raw := &dtos.Beds24Booking{
		ID:        9005,
		Arrival:   "2024-01-10",
		Departure: "2024-01-13",
		Price:     flexPtr(300),
	}
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))

	var bookings []models.Booking
	require.NoError(t, gdb.Find(&bookings).Error)
	require.Len(t, bookings, 1)
	assert.Equal(t, 300.0, bookings[0].TotalRevenue)

	var days []models.BookingDay
	require.NoError(t, gdb.Order("date").Find(&days).Error)
	require.Len(t, days, 3)
	for _, day := range days {
		assert.Equal(t, bookings[0].ID, day.BookingID)
		assert.Equal(t, 100.0, day.Revenue)
	}
}

func TestUpsertBookingZeroRevenueClearsDays(t *testing.T) {
	svc, gdb := newTestService(t)
	ctx := context.Background()

	raw := &dtos.Beds24Booking{
		ID:        9002,
		Arrival:   "2026-01-01",
		Departure: "2026-01-03",
		Price:     flexPtr(200),
	}
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))

	raw.Price = nil
	require.NoError(t, svc.UpsertBooking(ctx, "p-1", raw))

	var dayCount int64
	gdb.Model(&models.BookingDay{}).Count(&dayCount)
	assert.Equal(t, int64(0), dayCount)
}

func TestUpsertBookingSkipsMissingID(t *testing.T) {
	svc, gdb := newTestService(t)

	require.NoError(t, svc.UpsertBooking(context.Background(), "p-1", &dtos.Beds24Booking{
		Arrival:   "2026-01-01",
		Departure: "2026-01-02",
	}))

	var count int64
	gdb.Model(&models.Booking{}).Count(&count)
	assert.Equal(t, int64(0), count)
}
