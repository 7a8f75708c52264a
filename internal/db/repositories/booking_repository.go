package repositories

import (
	"context"
	"errors"

	"lodgeworks/staysync/internal/models/gorm"

	gormlib "gorm.io/gorm"
)

// BookingRepository handles the bookings and booking_days tables.
type BookingRepository struct {
	db *gormlib.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *gormlib.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// UpsertWithDays writes one booking and replaces its full booking_days child
// set in a single transaction. If anything fails, every write for the booking
// rolls back and the error propagates to the enclosing task.
//
// days may be nil when arrival, departure or revenue were absent upstream; the
// existing child rows are still cleared so stale nights never survive.
func (r *BookingRepository) UpsertWithDays(ctx context.Context, booking *gorm.Booking, days []gorm.BookingDay) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		var existing gorm.Booking
		err := tx.Where("booking_id = ?", booking.BookingID).First(&existing).Error
		switch {
		case errors.Is(err, gormlib.ErrRecordNotFound):
			if err := tx.Create(booking).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			booking.ID = existing.ID
			booking.CreatedAt = existing.CreatedAt
			if err := tx.Model(&gorm.Booking{}).
				Where("id = ?", existing.ID).
				Select("*").
				Omit("id", "created_at").
				Updates(booking).Error; err != nil {
				return err
			}
		}

		// Replace the child set: delete-all-then-insert, never a partial patch.
		if err := tx.Where("booking_id = ?", booking.ID).
			Delete(&gorm.BookingDay{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		for i := range days {
			days[i].BookingID = booking.ID
		}
		return tx.Create(&days).Error
	})
}

// CountBookings returns the number of locally mirrored bookings.
func (r *BookingRepository) CountBookings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Booking{}).Count(&count).Error
	return count, err
}

// FindByBookingID returns one booking by natural key, nil when absent.
func (r *BookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*gorm.Booking, error) {
	var booking gorm.Booking
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

// DaysForBooking returns the booking_days rows for one booking ordered by date.
func (r *BookingRepository) DaysForBooking(ctx context.Context, bookingID int64) ([]gorm.BookingDay, error) {
	var days []gorm.BookingDay
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("date").
		Find(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}
