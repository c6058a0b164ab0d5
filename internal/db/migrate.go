package db

import (
	"site-content-store/internal/domain"

	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Document{},
		&domain.Story{},
		&domain.Event{},
	)
}
