package repositories

import (
	"context"
	"errors"

	"lodgeworks/staysync/internal/models/gorm"

	gormlib "gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PropertyRepository handles the properties and rooms tables.
type PropertyRepository struct {
	db *gormlib.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gormlib.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

// UpsertProperty writes a property keyed by its Beds24 id.
// ON CONFLICT (beds24_id) DO UPDATE — full-field overwrite, the remote
// system is the source of truth.
func (r *PropertyRepository) UpsertProperty(ctx context.Context, property *gorm.Property) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "beds24_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "address", "city", "country",
				"checkin_start", "checkin_end", "checkout_start",
				"special_note", "published", "updated_at",
			}),
		}).
		Create(property).Error
}

// UpsertRoom writes a room keyed by its remote room id.
func (r *PropertyRepository) UpsertRoom(ctx context.Context, room *gorm.Room) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "room_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"room_name", "qty", "type", "rates",
				"num_guests", "num_beds", "num_bedrooms", "num_baths",
				"featured", "status", "property_id", "updated_at",
			}),
		}).
		Create(room).Error
}

// CountProperties returns the number of locally mirrored properties.
func (r *PropertyRepository) CountProperties(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&gorm.Property{}).Count(&count).Error
	return count, err
}

// FindByBeds24ID returns one property by natural key, nil when absent.
func (r *PropertyRepository) FindByBeds24ID(ctx context.Context, beds24ID string) (*gorm.Property, error) {
	var property gorm.Property
	err := r.db.WithContext(ctx).
		Where("beds24_id = ?", beds24ID).
		First(&property).Error
	if err != nil {
		if errors.Is(err, gormlib.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &property, nil
}

// RoomsForProperty returns all rooms mirrored for one property.
func (r *PropertyRepository) RoomsForProperty(ctx context.Context, beds24ID string) ([]gorm.Room, error) {
	var rooms []gorm.Room
	err := r.db.WithContext(ctx).
		Where("property_id = ?", beds24ID).
		Order("room_id").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
