package store

import (
	"errors"
	"time"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
)

// RecordSyncStatus overwrites the sync record for (entityType, entityID).
// Last write wins; no history is kept. The upsert is done with an explicit
// lookup because a NULL entity_id never conflicts under a unique index.
func (s *Store) RecordSyncStatus(entityType string, entityID *int64, status, errorMessage string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("entity_type = ?", entityType)
		if entityID == nil {
			q = q.Where("entity_id IS NULL")
		} else {
			q = q.Where("entity_id = ?", *entityID)
		}

		var existing models.SyncStatus
		err := q.First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.SyncStatus{
				EntityType:   entityType,
				EntityID:     entityID,
				LastSync:     time.Now(),
				Status:       status,
				ErrorMessage: errorMessage,
			}).Error
		case err != nil:
			return err
		default:
			return tx.Model(&existing).Updates(map[string]interface{}{
				"last_sync":     time.Now(),
				"status":        status,
				"error_message": errorMessage,
			}).Error
		}
	})
	return storageErr("record sync status", err)
}

// ReadSyncStatus returns the sync record for (entityType, entityID), or the
// most recently updated record for the type when entityID is nil. Returns
// nil when no record exists.
func (s *Store) ReadSyncStatus(entityType string, entityID *int64) (*models.SyncStatus, error) {
	var status models.SyncStatus
	q := s.db.Where("entity_type = ?", entityType)
	if entityID != nil {
		q = q.Where("entity_id = ?", *entityID)
	} else {
		q = q.Order("last_sync DESC")
	}
	err := q.First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("read sync status", err)
	}
	return &status, nil
}
