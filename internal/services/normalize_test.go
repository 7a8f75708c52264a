package services

import (
	"testing"
	"time"

	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int { return &n }
func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool { return &b }

func flexPtr(f float64) *dtos.FlexFloat {
	v := dtos.FlexFloat(f)
	return &v
}

func TestNormalizeBooking(t *testing.T) {
	raw := &dtos.Beds24Booking{
		ID:        1001,
		RoomID:    int64Ptr(55),
		Status:    strPtr("confirmed"),
		Arrival:   "2026-01-01",
		Departure: "2026-01-04",
		NumAdult:  intPtr(2),
		NumChild:  intPtr(1),
		FirstName: strPtr("Jane"),
		LastName:  strPtr("Doe"),
		Price:     flexPtr(300),
		Comments:  strPtr("late arrival"),
		APISource: strPtr("airbnb"),
		Channel:   strPtr("abnb-123"),
		Guests: []dtos.Beds24Guest{
			{ID: 7, Email: strPtr("jane@example.com")},
		},
	}

	booking, err := normalizeBooking("prop-1", raw)
	require.NoError(t, err)

	assert.Equal(t, "1001", booking.BookingID)
	assert.Equal(t, "prop-1", booking.PropertyID)
	assert.Equal(t, "55", booking.RoomID)
	assert.Equal(t, "Jane Doe", booking.GuestName)
	assert.Equal(t, "confirmed", booking.Status)
	assert.Equal(t, 2, booking.NumAdult)
	assert.Equal(t, 1, booking.NumChildren)
	assert.Equal(t, 300.0, booking.TotalRevenue)
	assert.Equal(t, 100.0, booking.ADR) // 300 over 3 nights
	require.NotNil(t, booking.Note)
	assert.Equal(t, "late arrival", *booking.Note)
	require.NotNil(t, booking.Channel)
	assert.Equal(t, "airbnb", *booking.Channel)
	require.NotNil(t, booking.ChannelReference)
	assert.Equal(t, "abnb-123", *booking.ChannelReference)
	require.NotNil(t, booking.GuestID)
	assert.Equal(t, int64(7), *booking.GuestID)
	require.NotNil(t, booking.GuestEmail)
	assert.Equal(t, "jane@example.com", *booking.GuestEmail)
}

func TestNormalizeBookingDefaults(t *testing.T) {
	raw := &dtos.Beds24Booking{
		ID:        2002,
		Arrival:   "2026-02-10",
		Departure: "2026-02-11",
	}

	booking, err := normalizeBooking("prop-1", raw)
	require.NoError(t, err)

	assert.Equal(t, constants.UnknownGuestName, booking.GuestName)
	assert.Equal(t, constants.UnknownRoomID, booking.RoomID)
	assert.Equal(t, constants.UnknownStatus, booking.Status)
	assert.Equal(t, 1, booking.NumAdult)
	assert.Equal(t, 0, booking.NumChildren)
	assert.Nil(t, booking.Note)
	assert.Nil(t, booking.Channel)
	assert.Nil(t, booking.ChannelReference)
	assert.Equal(t, 0.0, booking.TotalRevenue)
	assert.Equal(t, 0.0, booking.ADR)
}

func TestNormalizeBookingRejectsBadDates(t *testing.T) {
	_, err := normalizeBooking("prop-1", &dtos.Beds24Booking{
		ID:        3003,
		Arrival:   "not-a-date",
		Departure: "2026-02-11",
	})
	assert.Error(t, err)

	_, err = normalizeBooking("prop-1", &dtos.Beds24Booking{
		ID:        3003,
		Arrival:   "2026-02-10",
		Departure: "",
	})
	assert.Error(t, err)
}

func TestNormalizeBookingSameDayStay(t *testing.T) {
	raw := &dtos.Beds24Booking{
		ID:        4004,
		Arrival:   "2026-03-01",
		Departure: "2026-03-01",
		Price:     flexPtr(150),
	}

	booking, err := normalizeBooking("prop-1", raw)
	require.NoError(t, err)

	// A same-day departure still counts as one night.
	assert.Equal(t, 150.0, booking.ADR)
	assert.Equal(t, 1, booking.Nights())
}

func TestNormalizeBookingNoteCoalescing(t *testing.T) {
	raw := &dtos.Beds24Booking{
		ID:        5005,
		Arrival:   "2026-03-01",
		Departure: "2026-03-02",
		Notes:     strPtr(""),
		Comments:  strPtr(""),
		Message:   strPtr("via channel manager"),
	}

	booking, err := normalizeBooking("prop-1", raw)
	require.NoError(t, err)
	require.NotNil(t, booking.Note)
	assert.Equal(t, "via channel manager", *booking.Note)
}

func TestBuildBookingDays(t *testing.T) {
	booking, err := normalizeBooking("prop-1", &dtos.Beds24Booking{
		ID:        6006,
		Arrival:   "2026-01-01",
		Departure: "2026-01-04",
		Price:     flexPtr(300),
	})
	require.NoError(t, err)

	days := buildBookingDays(booking)
	require.Len(t, days, 3)

	for i, day := range days {
		assert.Equal(t, "prop-1", day.PropertyID)
		assert.Equal(t, 100.0, day.Revenue)
		expected := time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, expected, day.Date)
	}
}

func TestBuildBookingDaysZeroRevenue(t *testing.T) {
	booking, err := normalizeBooking("prop-1", &dtos.Beds24Booking{
		ID:        7007,
		Arrival:   "2026-01-01",
		Departure: "2026-01-04",
	})
	require.NoError(t, err)

	assert.Nil(t, buildBookingDays(booking))
}

func TestBuildBookingDaysSameDayStay(t *testing.T) {
	booking, err := normalizeBooking("prop-1", &dtos.Beds24Booking{
		ID:        8008,
		Arrival:   "2026-01-01",
		Departure: "2026-01-01",
		Price:     flexPtr(150),
	})
	require.NoError(t, err)

	days := buildBookingDays(booking)
	require.Len(t, days, 1)
	assert.Equal(t, 150.0, days[0].Revenue)
}

func TestNormalizeRoomDefaults(t *testing.T) {
	room := normalizeRoom("prop-1", &dtos.Beds24Room{ID: 42})

	assert.Equal(t, "42", room.RoomID)
	assert.Equal(t, constants.UnnamedRoom, room.RoomName)
	assert.Equal(t, 1, room.Qty)
	assert.Equal(t, 1, room.Type)
	assert.Equal(t, 1, room.Rates)
	assert.Equal(t, 2, room.NumGuests)
	assert.Equal(t, 1, room.NumBeds)
	assert.Equal(t, 1, room.NumBedrooms)
	assert.Equal(t, 1, room.NumBaths)
	assert.False(t, room.Featured)
	assert.True(t, room.Status)
	assert.Equal(t, "prop-1", room.PropertyID)
}

func TestNormalizeRoomAlternateFields(t *testing.T) {
	room := normalizeRoom("prop-1", &dtos.Beds24Room{
		ID:        43,
		Name:      "Sea View Suite",
		RoomQty:   intPtr(4),
		MaxPeople: intPtr(6),
		Status:    boolPtr(false),
	})

	assert.Equal(t, "Sea View Suite", room.RoomName)
	assert.Equal(t, 4, room.Qty)
	assert.Equal(t, 6, room.NumGuests)
	assert.False(t, room.Status)
}

func TestNormalizePropertyFallbackName(t *testing.T) {
	property := normalizeProperty(&dtos.Beds24Property{Beds24ID: "p-9"})

	assert.Equal(t, "p-9", property.Beds24ID)
	assert.Equal(t, constants.UnnamedProperty, property.Name)
	assert.True(t, property.Published)
}
