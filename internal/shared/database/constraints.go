package database

import (
	"fmt"

	"gorm.io/gorm"
)

// EnableExtensions must run before AutoMigrate: every table defaults its
// primary key to uuid_generate_v4().
func EnableExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}

// MigrateConstraints adds the indexes gorm tags cannot express
func MigrateConstraints(db *gorm.DB) error {
	// The sweep only ever scans bookings it has not finished with
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_awaiting_evaluation
		ON bookings (journey_date)
		WHERE evaluated_at IS NULL;
	`).Error
	if err != nil {
		return fmt.Errorf("idx_bookings_awaiting_evaluation: %w", err)
	}

	// Promotion, expiry and reminders read open claims by deadline
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_claims_open_deadline
		ON claims (deadline)
		WHERE status IN ('pending', 'eligible');
	`).Error
	if err != nil {
		return fmt.Errorf("idx_claims_open_deadline: %w", err)
	}

	return nil
}
