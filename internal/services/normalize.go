package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lodgeworks/staysync/internal/constants"
	"lodgeworks/staysync/internal/models/dtos"
	"lodgeworks/staysync/internal/models/gorm"
)

// Normalization converts raw Beds24 records, with their optional and
// alternate field names, into canonical local models. Reconciliation only
// ever sees the canonical shape.

const dateLayout = "2006-01-02"

func normalizeProperty(raw *dtos.Beds24Property) *gorm.Property {
	name := raw.Name
	if name == "" {
		name = constants.UnnamedProperty
	}
	return &gorm.Property{
		Beds24ID:      raw.RemoteID(),
		Name:          name,
		Address:       raw.Address,
		City:          raw.City,
		Country:       raw.Country,
		CheckinStart:  raw.CheckinTimeFrom,
		CheckinEnd:    raw.CheckinTimeTo,
		CheckoutStart: raw.CheckoutTime,
		SpecialNote:   raw.SpecialInstructions,
		Published:     true,
	}
}

func normalizeRoom(propertyID string, raw *dtos.Beds24Room) *gorm.Room {
	name := raw.Name
	if name == "" {
		name = constants.UnnamedRoom
	}
	return &gorm.Room{
		RoomID:      strconv.Itoa(raw.ID),
		RoomName:    name,
		Qty:         intAlternates(1, raw.Quantity, raw.RoomQty),
		Type:        intAlternates(1, raw.Type),
		Rates:       intAlternates(1, raw.Rates),
		NumGuests:   intAlternates(2, raw.MaxGuests, raw.MaxPeople),
		NumBeds:     intAlternates(1, raw.Beds),
		NumBedrooms: intAlternates(1, raw.Bedrooms),
		NumBaths:    intAlternates(1, raw.Bathrooms),
		Featured:    raw.Featured != nil && *raw.Featured,
		// Active unless the remote explicitly says otherwise.
		Status:     raw.Status == nil || *raw.Status,
		PropertyID: propertyID,
	}
}

func normalizeBooking(propertyID string, raw *dtos.Beds24Booking) (*gorm.Booking, error) {
	arrival, err := time.Parse(dateLayout, raw.Arrival)
	if err != nil {
		return nil, fmt.Errorf("invalid arrival date %q: %w", raw.Arrival, err)
	}
	departure, err := time.Parse(dateLayout, raw.Departure)
	if err != nil {
		return nil, fmt.Errorf("invalid departure date %q: %w", raw.Departure, err)
	}

	booking := &gorm.Booking{
		BookingID:        strconv.FormatInt(raw.ID, 10),
		PropertyID:       propertyID,
		RoomID:           constants.UnknownRoomID,
		GuestName:        guestName(raw),
		Note:             coalesce(raw.Notes, raw.Comments, raw.Message),
		NumAdult:         1,
		NumChildren:      0,
		Country:          raw.Country,
		Arrival:          arrival,
		Departure:        departure,
		TotalRevenue:     raw.Price.Float64(),
		Commission:       raw.Commission.Float64(),
		ADR:              calculateADR(raw, arrival, departure),
		Status:           constants.UnknownStatus,
		Channel:          raw.APISource,
		ChannelReference: coalesce(raw.Channel, raw.APISource),
	}
	if raw.RoomID != nil {
		booking.RoomID = strconv.FormatInt(*raw.RoomID, 10)
	}
	if raw.NumAdult != nil && *raw.NumAdult > 0 {
		booking.NumAdult = *raw.NumAdult
	}
	if raw.NumChild != nil {
		booking.NumChildren = *raw.NumChild
	}
	if raw.Status != nil && *raw.Status != "" {
		booking.Status = *raw.Status
	}
	if len(raw.Guests) > 0 {
		guest := raw.Guests[0]
		if guest.ID != 0 {
			id := guest.ID
			booking.GuestID = &id
		}
		booking.GuestEmail = guest.Email
		booking.GuestPhone = guest.Phone
	}
	return booking, nil
}

// buildBookingDays allocates the booking's revenue evenly across its nights,
// one row per night starting at the arrival date. A departure on or before
// the arrival still yields a single night.
func buildBookingDays(booking *gorm.Booking) []gorm.BookingDay {
	if booking.TotalRevenue == 0 {
		return nil
	}
	nights := booking.Nights()
	dailyRevenue := booking.TotalRevenue / float64(nights)

	days := make([]gorm.BookingDay, 0, nights)
	date := booking.Arrival
	for i := 0; i < nights; i++ {
		days = append(days, gorm.BookingDay{
			PropertyID: booking.PropertyID,
			Date:       date,
			Revenue:    dailyRevenue,
		})
		date = date.AddDate(0, 0, 1)
	}
	return days
}

func guestName(raw *dtos.Beds24Booking) string {
	parts := make([]string, 0, 2)
	if raw.FirstName != nil && *raw.FirstName != "" {
		parts = append(parts, *raw.FirstName)
	}
	if raw.LastName != nil && *raw.LastName != "" {
		parts = append(parts, *raw.LastName)
	}
	if len(parts) == 0 {
		return constants.UnknownGuestName
	}
	return strings.Join(parts, " ")
}

func calculateADR(raw *dtos.Beds24Booking, arrival, departure time.Time) float64 {
	price := raw.Price.Float64()
	if price == 0 {
		return 0
	}
	nights := int(departure.Sub(arrival).Hours() / 24)
	if nights < 1 {
		nights = 1
	}
	return price / float64(nights)
}

func intAlternates(fallback int, values ...*int) int {
	for _, v := range values {
		if v != nil && *v > 0 {
			return *v
		}
	}
	return fallback
}

func coalesce(values ...*string) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			return v
		}
	}
	return nil
}
