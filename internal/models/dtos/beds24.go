package dtos

import (
	"encoding/json"
	"strconv"
	"strings"
)

// FlexFloat accepts a JSON number or a numeric string. Beds24 is not
// consistent about how it serializes money fields.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return err
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// Float64 returns the underlying value, 0 when the pointer is nil.
func (f *FlexFloat) Float64() float64 {
	if f == nil {
		return 0
	}
	return float64(*f)
}

// Beds24ListResponse is the envelope every Beds24 list endpoint returns.
type Beds24ListResponse[T any] struct {
	Success bool        `json:"success"`
	Type    string      `json:"type"`
	Count   int         `json:"count"`
	Pages   *Beds24Page `json:"pages,omitempty"`
	Data    []T         `json:"data"`
}

// Beds24Page carries the pagination metadata of a list response. NextPageLink
// is an opaque continuation locator; callers must not construct it themselves.
type Beds24Page struct {
	NextPageExists bool   `json:"nextPageExists"`
	NextPageLink   string `json:"nextPageLink"`
}

// Beds24Property is a raw property record as the API delivers it.
type Beds24Property struct {
	Beds24ID            string       `json:"beds24_id,omitempty"`
	PropertyID          string       `json:"propertyId,omitempty"`
	Name                string       `json:"name"`
	Address             *string      `json:"address,omitempty"`
	City                *string      `json:"city,omitempty"`
	Country             *string      `json:"country,omitempty"`
	CheckinTimeFrom     *string      `json:"checkinTimeFrom,omitempty"`
	CheckinTimeTo       *string      `json:"checkinTimeTo,omitempty"`
	CheckoutTime        *string      `json:"checkoutTime,omitempty"`
	SpecialInstructions *string      `json:"specialInstructions,omitempty"`
	Status              *string      `json:"status,omitempty"`
	Rooms               []Beds24Room `json:"rooms,omitempty"`
}

// RemoteID returns the property's natural key, whichever field carried it.
func (p *Beds24Property) RemoteID() string {
	if p.Beds24ID != "" {
		return p.Beds24ID
	}
	return p.PropertyID
}

// Beds24Room is a raw room record. Quantity/RoomQty and MaxGuests/MaxPeople
// are alternate names for the same values depending on the endpoint.
type Beds24Room struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quantity  *int   `json:"quantity,omitempty"`
	RoomQty   *int   `json:"roomQty,omitempty"`
	Type      *int   `json:"type,omitempty"`
	Rates     *int   `json:"rates,omitempty"`
	MaxGuests *int   `json:"maxGuests,omitempty"`
	MaxPeople *int   `json:"maxPeople,omitempty"`
	Beds      *int   `json:"beds,omitempty"`
	Bedrooms  *int   `json:"bedrooms,omitempty"`
	Bathrooms *int   `json:"bathrooms,omitempty"`
	Featured  *bool  `json:"featured,omitempty"`
	Status    *bool  `json:"status,omitempty"`
}

// Beds24Booking is a raw booking record.
type Beds24Booking struct {
	ID           int64         `json:"id"`
	PropertyID   int64         `json:"propertyId"`
	APISource    *string       `json:"apiSource,omitempty"`
	Channel      *string       `json:"channel,omitempty"`
	RoomID       *int64        `json:"roomId,omitempty"`
	UnitID       *int64        `json:"unitId,omitempty"`
	Status       *string       `json:"status,omitempty"`
	Arrival      string        `json:"arrival"`
	Departure    string        `json:"departure"`
	NumAdult     *int          `json:"numAdult,omitempty"`
	NumChild     *int          `json:"numChild,omitempty"`
	FirstName    *string       `json:"firstName,omitempty"`
	LastName     *string       `json:"lastName,omitempty"`
	Country      *string       `json:"country,omitempty"`
	Price        *FlexFloat    `json:"price,omitempty"`
	Commission   *FlexFloat    `json:"commission,omitempty"`
	Notes        *string       `json:"notes,omitempty"`
	Comments     *string       `json:"comments,omitempty"`
	Message      *string       `json:"message,omitempty"`
	BookingTime  *string       `json:"bookingTime,omitempty"`
	ModifiedTime *string       `json:"modifiedTime,omitempty"`
	Guests       []Beds24Guest `json:"guests,omitempty"`
}

// Beds24Guest is the guest identity attached to a booking.
type Beds24Guest struct {
	ID        int64   `json:"id"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Country   *string `json:"country,omitempty"`
}

// BookingsQuery is the filter set accepted by the bookings list endpoint.
type BookingsQuery struct {
	PropertyID   []int64
	ArrivalFrom  string
	DepartureTo  string
	ModifiedFrom string
	Page         int
	PageSize     int
}

// BookingsResult is what the client hands back for one page of bookings.
type BookingsResult struct {
	Bookings     []Beds24Booking
	HasNextPage  bool
	NextPageLink string
	TotalCount   int
}
