package database

import (
	"fmt"

	"eventix/internal/bookings"
	"eventix/internal/events"
	"eventix/internal/users"

	"gorm.io/gorm"
)

// Migrate creates the schema for users, events and bookings
func Migrate(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	return db.AutoMigrate(
		&users.User{},
		&events.Event{},
		&bookings.Booking{},
	)
}
