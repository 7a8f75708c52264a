package gorm

import "time"

// BookingDay is one allocated night of a booking's revenue. Rows have no
// identity of their own: the full set is deleted and rebuilt every time the
// parent booking is written.
type BookingDay struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BookingID  int64     `gorm:"column:booking_id;index;not null"`
	PropertyID string    `gorm:"column:property_id;type:varchar(50);index;not null"`
	Date       time.Time `gorm:"column:date;type:date;not null"`
	Revenue    float64   `gorm:"column:revenue;type:numeric(12,2);not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (BookingDay) TableName() string {
	return "booking_days"
}
