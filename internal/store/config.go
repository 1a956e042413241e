package store

import (
	"errors"

	"github.com/zulandar/depot/internal/models"
	"gorm.io/gorm"
)

// SaveConfig replaces the persisted credential pair. Last write wins; the
// table holds at most one logically active row.
func (s *Store) SaveConfig(gitlabURL, accessToken string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.GitLabConfig{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.GitLabConfig{
			GitLabURL:   gitlabURL,
			AccessToken: accessToken,
		}).Error
	})
	return storageErr("save config", err)
}

// LoadConfig returns the persisted credential pair, or nil when none exists.
func (s *Store) LoadConfig() (*models.GitLabConfig, error) {
	var cfg models.GitLabConfig
	err := s.db.Order("id DESC").First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("load config", err)
	}
	return &cfg, nil
}
