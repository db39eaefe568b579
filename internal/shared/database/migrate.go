package database

import (
	"fmt"

	"autoclaim/internal/bookings"
	"autoclaim/internal/claims"
	"autoclaim/internal/trains"
	"autoclaim/internal/users"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := EnableExtensions(db); err != nil {
		return fmt.Errorf("failed to enable extensions: %w", err)
	}

	err := db.AutoMigrate(
		&users.User{},
		&bookings.Booking{},
		&trains.Train{},
		&claims.Claim{},
	)
	if err != nil {
		return err
	}

	return MigrateConstraints(db)
}
