package store

import (
	"errors"
	"strings"
	"time"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertProjects inserts or overwrites projects keyed by their GitLab ID.
// When ownerGroupID is non-nil it overrides the group reference decoded from
// the payload; parent linkage is established by the caller, not inferred.
func (s *Store) UpsertProjects(projects []models.Project, ownerGroupID *int64) error {
	if len(projects) == 0 {
		return nil
	}
	now := time.Now()
	for i := range projects {
		projects[i].LastSynced = now
		if ownerGroupID != nil {
			id := *ownerGroupID
			projects[i].GroupID = &id
		}
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&projects).Error
	})
	return storageErr("upsert projects", err)
}

// Projects returns all projects, or only those owned by groupID when set.
func (s *Store) Projects(groupID *int64) ([]models.Project, error) {
	var projects []models.Project
	q := s.db.Order("name ASC")
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	if err := q.Find(&projects).Error; err != nil {
		return nil, storageErr("list projects", err)
	}
	return projects, nil
}

// ProjectByID returns the project with the given ID, or nil when absent.
func (s *Store) ProjectByID(id int64) (*models.Project, error) {
	var project models.Project
	err := s.db.First(&project, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get project", err)
	}
	return &project, nil
}

// SearchProjects returns projects whose name, namespace path, or description
// contains the query, case-insensitively.
func (s *Store) SearchProjects(query string) ([]models.Project, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var projects []models.Project
	err := s.db.
		Where("LOWER(name) LIKE ? OR LOWER(name_with_namespace) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern).
		Order("name ASC").
		Find(&projects).Error
	if err != nil {
		return nil, storageErr("search projects", err)
	}
	return projects, nil
}
