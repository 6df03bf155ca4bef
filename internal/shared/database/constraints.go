package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the constraints inventory and confirmation rely on
func MigrateConstraints(db *gorm.DB) error {
	statements := []string{
		// availableTickets can never leave [0, totalTickets]
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_events_available_tickets') THEN
				ALTER TABLE events
				ADD CONSTRAINT chk_events_available_tickets
				CHECK (available_tickets >= 0 AND available_tickets <= total_tickets);
			END IF;
		END $$;`,

		// one booking per checkout session
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_stripe_session_id
			ON bookings (stripe_session_id);`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_booking_reference
			ON bookings (booking_reference);`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_event_status
			ON bookings (event_id, payment_status, booking_status);`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
