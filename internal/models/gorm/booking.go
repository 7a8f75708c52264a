package gorm

import "time"

// Booking is the local mirror of one Beds24 reservation.
type Booking struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	BookingID string `gorm:"column:booking_id;type:varchar(50);uniqueIndex;not null"`

	PropertyID string `gorm:"column:property_id;type:varchar(50);index;not null"`
	RoomID     string `gorm:"column:room_id;type:varchar(50)"`

	GuestID    *int64  `gorm:"column:guest_id"`
	GuestName  string  `gorm:"column:guest_name;type:varchar(255);not null"`
	GuestEmail *string `gorm:"column:guest_email;type:varchar(255)"`
	GuestPhone *string `gorm:"column:guest_phone;type:varchar(50)"`

	Note        *string `gorm:"column:note;type:text"`
	NumAdult    int     `gorm:"column:num_adult;default:1"`
	NumChildren int     `gorm:"column:num_children;default:0"`
	Country     *string `gorm:"column:country;type:varchar(100)"`

	Arrival   time.Time `gorm:"column:arrival;type:date;not null"`
	Departure time.Time `gorm:"column:departure;type:date;not null"`

	TotalRevenue float64 `gorm:"column:total_revenue;type:numeric(12,2);default:0"`
	Commission   float64 `gorm:"column:commission;type:numeric(12,2);default:0"`
	ADR          float64 `gorm:"column:adr;type:numeric(12,2);default:0"`

	Status           string  `gorm:"column:status;type:varchar(50);not null"`
	Channel          *string `gorm:"column:channel;type:varchar(100)"`
	ChannelReference *string `gorm:"column:channel_reference;type:varchar(100)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// Nights returns the stay length in whole nights, clamped to at least 1.
func (b *Booking) Nights() int {
	nights := int(b.Departure.Sub(b.Arrival).Hours() / 24)
	if nights < 1 {
		return 1
	}
	return nights
}
