package db

import (
	"fmt"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.GitLabConfig{},
		&models.Group{},
		&models.Project{},
		&models.Pipeline{},
		&models.Branch{},
		&models.SyncStatus{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// Reset drops all mirrored data for a fresh resync. The credential row is
// kept. Deletion order respects foreign keys.
func Reset(db *gorm.DB) error {
	for _, model := range []interface{}{
		&models.Branch{},
		&models.Pipeline{},
		&models.Project{},
		&models.Group{},
		&models.SyncStatus{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("db: reset: %w", err)
		}
	}
	return nil
}
