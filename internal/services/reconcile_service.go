package services

import (
	"context"
	"fmt"
	"strconv"

	"lodgeworks/staysync/internal/db/repositories"
	"lodgeworks/staysync/internal/logging"
	"lodgeworks/staysync/internal/models/dtos"
)

// ReconcileService converts raw Beds24 records into canonical entities and
// writes them idempotently. Records without a natural key are logged and
// skipped, never propagated: a malformed record must not kill a page task.
type ReconcileService struct {
	properties *repositories.PropertyRepository
	bookings   *repositories.BookingRepository
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(
	properties *repositories.PropertyRepository,
	bookings *repositories.BookingRepository,
) *ReconcileService {
	return &ReconcileService{
		properties: properties,
		bookings:   bookings,
	}
}

// UpsertProperty writes one property and its nested rooms. The property row
// is overwritten wholesale; the remote system is the source of truth.
func (s *ReconcileService) UpsertProperty(ctx context.Context, raw *dtos.Beds24Property) error {
	propertyID := raw.RemoteID()
	if propertyID == "" {
		logging.Warn("Skipping property without ID", "name", raw.Name)
		return nil
	}

	property := normalizeProperty(raw)
	if err := s.properties.UpsertProperty(ctx, property); err != nil {
		return fmt.Errorf("failed to upsert property %s: %w", propertyID, err)
	}

	for i := range raw.Rooms {
		if err := s.UpsertRoom(ctx, propertyID, &raw.Rooms[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRoom writes one room keyed by its remote id, applying the documented
// fallbacks for missing numeric fields.
func (s *ReconcileService) UpsertRoom(ctx context.Context, propertyID string, raw *dtos.Beds24Room) error {
	if raw.ID == 0 {
		logging.Warn("Skipping room without ID", "property_id", propertyID)
		return nil
	}

	room := normalizeRoom(propertyID, raw)
	if err := s.properties.UpsertRoom(ctx, room); err != nil {
		return fmt.Errorf("failed to upsert room %d for property %s: %w", raw.ID, propertyID, err)
	}
	return nil
}

// UpsertBooking writes one booking and recomputes its per-night revenue rows
// in a single transaction. Re-running with identical input leaves the booking
// and its full booking_days set unchanged.
func (s *ReconcileService) UpsertBooking(ctx context.Context, propertyID string, raw *dtos.Beds24Booking) error {
	if raw.ID == 0 {
		logging.Warn("Skipping booking without ID", "property_id", propertyID)
		return nil
	}
	bookingID := strconv.FormatInt(raw.ID, 10)

	booking, err := normalizeBooking(propertyID, raw)
	if err != nil {
		return fmt.Errorf("failed to normalize booking %s: %w", bookingID, err)
	}

	days := buildBookingDays(booking)

	if err := s.bookings.UpsertWithDays(ctx, booking, days); err != nil {
		return fmt.Errorf("failed to upsert booking %s: %w", bookingID, err)
	}

	logging.Debug("Upserted booking",
		"booking_id", bookingID,
		"property_id", propertyID,
		"guest", booking.GuestName,
		"nights", len(days),
	)
	return nil
}
