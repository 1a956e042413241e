package store

import (
	"time"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertGroups inserts or overwrites groups keyed by their GitLab ID.
func (s *Store) UpsertGroups(groups []models.Group) error {
	if len(groups) == 0 {
		return nil
	}
	now := time.Now()
	for i := range groups {
		groups[i].LastSynced = now
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&groups).Error
	})
	return storageErr("upsert groups", err)
}

// Groups returns root groups when parentID is nil, otherwise the direct
// children of parentID. Never recursive.
func (s *Store) Groups(parentID *int64) ([]models.Group, error) {
	var groups []models.Group
	q := s.db.Order("name ASC")
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if err := q.Find(&groups).Error; err != nil {
		return nil, storageErr("list groups", err)
	}
	return groups, nil
}
