package models

import "time"

// GitLabConfig is the persisted upstream credential pair. At most one row
// is logically active; writes are last-write-wins.
type GitLabConfig struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	GitLabURL   string `gorm:"not null"`
	AccessToken string `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
