package models

import "time"

// Sync status terminal states.
const (
	SyncPending   = "pending"
	SyncCompleted = "completed"
	SyncFailed    = "failed"
)

// Sync status entity types.
const (
	EntityFullSync    = "full_sync"
	EntityProjectSync = "project_sync"
)

// SyncStatus records the outcome of the most recent sync attempt per
// (entity type, entity id) pair. One row per pair, overwritten on each
// attempt; there is no history.
type SyncStatus struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	EntityType   string `gorm:"not null;size:32;uniqueIndex:idx_sync_entity"`
	EntityID     *int64 `gorm:"uniqueIndex:idx_sync_entity"`
	LastSync     time.Time
	Status       string `gorm:"size:16;default:pending"`
	ErrorMessage string `gorm:"type:text"`
}
