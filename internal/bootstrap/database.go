package bootstrap

import (
	"fmt"

	"gorm.io/gorm"

	"shoppay/internal/models"
)

// MigrateAndSeed ensures required tables exist.
func MigrateAndSeed(db *gorm.DB) error {
	if err := db.AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

func allModels() []interface{} {
	return []interface{}{
		&models.Order{},
	}
}
