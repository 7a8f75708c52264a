package gorm

import "time"

// Room is the local mirror of one Beds24 room type. PropertyID carries the
// remote property key; the reference is not enforced at write time because
// room upserts ride along with property upserts.
type Room struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RoomID string `gorm:"column:room_id;type:varchar(50);uniqueIndex;not null"`

	RoomName    string `gorm:"column:room_name;type:varchar(255);not null"`
	Qty         int    `gorm:"column:qty;default:1"`
	Type        int    `gorm:"column:type;default:1"`
	Rates       int    `gorm:"column:rates;default:1"`
	NumGuests   int    `gorm:"column:num_guests;default:2"`
	NumBeds     int    `gorm:"column:num_beds;default:1"`
	NumBedrooms int    `gorm:"column:num_bedrooms;default:1"`
	NumBaths    int    `gorm:"column:num_baths;default:1"`
	Featured    bool   `gorm:"column:featured;default:false"`
	Status      bool   `gorm:"column:status;default:true"`

	PropertyID string `gorm:"column:property_id;type:varchar(50);index;not null"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Room) TableName() string {
	return "rooms"
}
