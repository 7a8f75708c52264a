package gorm

import "time"

// Property is the local mirror of one Beds24 property. It is overwritten
// wholesale on each sync; absence upstream is never treated as deletion.
type Property struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Beds24ID string `gorm:"column:beds24_id;type:varchar(50);uniqueIndex;not null"`

	Name    string  `gorm:"column:name;type:varchar(255);not null"`
	Address *string `gorm:"column:address;type:varchar(255)"`
	City    *string `gorm:"column:city;type:varchar(100)"`
	Country *string `gorm:"column:country;type:varchar(100)"`

	CheckinStart  *string `gorm:"column:checkin_start;type:varchar(20)"`
	CheckinEnd    *string `gorm:"column:checkin_end;type:varchar(20)"`
	CheckoutStart *string `gorm:"column:checkout_start;type:varchar(20)"`

	SpecialNote *string `gorm:"column:special_note;type:text"`
	Published   bool    `gorm:"column:published;default:true"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Property) TableName() string {
	return "properties"
}
