package store

import (
	"time"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
)

// ReplaceBranches deletes all branches for projectID and inserts the fresh
// set in a single transaction.
func (s *Store) ReplaceBranches(branches []models.Branch, projectID int64) error {
	now := time.Now()
	for i := range branches {
		branches[i].ID = 0
		branches[i].ProjectID = projectID
		branches[i].LastSynced = now
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Branch{}).Error; err != nil {
			return err
		}
		if len(branches) == 0 {
			return nil
		}
		return tx.Create(&branches).Error
	})
	return storageErr("replace branches", err)
}

// Branches returns the mirrored branches for a project, default branch first.
func (s *Store) Branches(projectID int64) ([]models.Branch, error) {
	var branches []models.Branch
	err := s.db.
		Where("project_id = ?", projectID).
		Order("`default` DESC, name ASC").
		Find(&branches).Error
	if err != nil {
		return nil, storageErr("list branches", err)
	}
	return branches, nil
}
