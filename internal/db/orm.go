package db

import (
	"fmt"

	"lodgeworks/staysync/internal/config"
	models "lodgeworks/staysync/internal/models/gorm"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var PgDB *gorm.DB

// InitPostgresORM opens the GORM handle used by the entity repositories.
func InitPostgresORM(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.PGUser, cfg.PGPassword, cfg.PGHost, cfg.PGPort, cfg.PGDatabase)

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	PgDB = gdb
	return gdb, nil
}

// Migrate creates or updates the mirror tables.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.Property{},
		&models.Room{},
		&models.Booking{},
		&models.BookingDay{},
		&models.SyncLog{},
	)
}
