package store

import (
	"time"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
)

// ReplacePipelines deletes all pipelines for projectID and inserts the fresh
// set in a single transaction. Upstream exposes no delta API for pipelines,
// so each sync replaces the project's rows wholesale.
func (s *Store) ReplacePipelines(pipelines []models.Pipeline, projectID int64) error {
	now := time.Now()
	for i := range pipelines {
		pipelines[i].ProjectID = projectID
		pipelines[i].LastSynced = now
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Pipeline{}).Error; err != nil {
			return err
		}
		if len(pipelines) == 0 {
			return nil
		}
		return tx.Create(&pipelines).Error
	})
	return storageErr("replace pipelines", err)
}

// Pipelines returns the mirrored pipelines for a project, newest first.
func (s *Store) Pipelines(projectID int64) ([]models.Pipeline, error) {
	var pipelines []models.Pipeline
	err := s.db.
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&pipelines).Error
	if err != nil {
		return nil, storageErr("list pipelines", err)
	}
	return pipelines, nil
}
