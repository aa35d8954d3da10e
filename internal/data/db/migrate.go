package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
)

func AutoMigrateAll(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("nil db")
	}
	return db.AutoMigrate(
		&types.Product{},
		&types.Order{},
		&types.Article{},
		&types.FloorEvent{},
	)
}
