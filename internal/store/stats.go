package store

import (
	"database/sql"
	"time"

	"github.com/zulandar/depot/internal/models"
)

// Stats summarizes the mirrored catalog for the dashboard.
type Stats struct {
	TotalGroups    int64      `json:"total_groups"`
	TotalSubgroups int64      `json:"total_subgroups"`
	TotalProjects  int64      `json:"total_projects"`
	LastUpdated    *time.Time `json:"last_updated"`
}

// AggregateStats counts root groups, subgroups, and projects, and reports
// the newest group sync time as a coarse freshness signal.
func (s *Store) AggregateStats() (*Stats, error) {
	var stats Stats

	if err := s.db.Model(&models.Group{}).Where("parent_id IS NULL").Count(&stats.TotalGroups).Error; err != nil {
		return nil, storageErr("count root groups", err)
	}
	if err := s.db.Model(&models.Group{}).Where("parent_id IS NOT NULL").Count(&stats.TotalSubgroups).Error; err != nil {
		return nil, storageErr("count subgroups", err)
	}
	if err := s.db.Model(&models.Project{}).Count(&stats.TotalProjects).Error; err != nil {
		return nil, storageErr("count projects", err)
	}

	var last sql.NullTime
	row := s.db.Model(&models.Group{}).Select("MAX(last_synced)").Row()
	if err := row.Scan(&last); err == nil && last.Valid {
		t := last.Time
		stats.LastUpdated = &t
	}

	return &stats, nil
}
